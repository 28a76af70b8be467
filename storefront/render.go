package storefront

import (
	"bytes"
	"html/template"
)

var funcs = template.FuncMap{"money": money}

var tmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><title>Demo shop</title></head>
<body>
<header>
  <h1>Demo shop</h1>
  Cart: {{template "count" .}} items, {{template "total" .}}
</header>
<script type="application/json" data-ajax-watch-map>{"/cart/*": ["count", "total"]}</script>
<div id="cart-summary" data-ajax-watch="/cart/*" data-ajax-region="cart">{{template "cart-inner" .}}</div>
<ul id="catalog">
{{- range .Catalog}}
  <li>{{.Name}} {{money .Price}}
    <a class="ajax" href="/cart/add/{{.SKU}}">Add</a>
    <form data-target="ajax" action="/cart/add/{{.SKU}}" method="post">
      <input type="number" name="qty" value="2" min="1">
      <input type="submit" value="Add">
    </form>
  </li>
{{- end}}
</ul>
<p id="status"></p>
</body>
</html>
{{define "count"}}<span id="cart-count">{{.Count}}</span>{{end}}
{{define "total"}}<span class="summary total">{{money .Total}}</span>{{end}}
{{define "cart"}}<div id="cart-summary">{{template "cart-inner" .}}</div>{{end}}
{{define "cart-inner"}}
{{- if .Lines -}}
<form class="ajax" action="/cart/update" method="post">
<table>
<tr><th>Product</th><th>Qty</th><th>Subtotal</th></tr>
{{- range .Lines}}
<tr><td>{{.Name}}</td><td><input type="number" name="qty-{{.SKU}}" value="{{.Qty}}" min="0"></td><td>{{money .Subtotal}}</td></tr>
{{- end}}
</table>
<input type="submit" name="op" value="Update">
<input type="submit" name="op" value="Clear">
</form>
{{- else -}}
<p>Your cart is empty.</p>
{{- end -}}
{{end}}
`))

type view struct {
	Catalog []Product
	Lines   []Line
	Count   int
	Total   int
}

func render(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// regionTemplates maps region names to the templates that render them.
var regionTemplates = map[string]string{
	"cart":  "cart",
	"count": "count",
	"total": "total",
}
