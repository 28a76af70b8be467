// CLAUDE:SUMMARY Demo storefront: chi routes for a cart that answer ajax requests with region/event/message envelopes.
// Package storefront is a small shop server that speaks the pull-regions
// contract: ajax requests get a JSON envelope carrying only the regions
// named in X-Pull-Regions, a cart-updated event and a status message.
// Plain requests are redirected back to the page.
package storefront

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultHeader is the request header listing wanted regions.
const DefaultHeader = "X-Pull-Regions"

// Service is the storefront.
type Service struct {
	catalog []Product
	bySKU   map[string]Product
	cart    *Cart
	header  string
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCatalog replaces the demo catalog.
func WithCatalog(products []Product) Option {
	return func(s *Service) { s.catalog = products }
}

// WithHeader overrides the pull-regions header name.
func WithHeader(name string) Option {
	return func(s *Service) { s.header = name }
}

// New creates a Service with an empty cart.
func New(opts ...Option) *Service {
	s := &Service{
		catalog: DefaultCatalog,
		cart:    newCart(),
		header:  DefaultHeader,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.bySKU = make(map[string]Product, len(s.catalog))
	for _, p := range s.catalog {
		s.bySKU[p.SKU] = p
	}
	return s
}

// Cart returns the service cart.
func (s *Service) Cart() *Cart { return s.cart }

// RegisterHTTP registers the shop routes on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/", s.handlePage)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/add/{sku}", s.handleAdd)
		r.Post("/add/{sku}", s.handleAdd)
		r.Post("/update", s.handleUpdate)
		r.Post("/clear", s.handleClear)
	})
}

// Handler returns a router with the shop routes and request logging.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(headToGet)
	r.Use(securityHeaders)
	r.Use(maxFormBody(maxFormBytes))
	s.RegisterHTTP(r)
	return r
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("storefront: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"regions", r.Header.Get(s.header),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Service) view() view {
	lines := s.cart.snapshot(s.bySKU)
	return view{Catalog: s.catalog, Lines: lines, Count: count(lines), Total: total(lines)}
}

func (s *Service) handlePage(w http.ResponseWriter, _ *http.Request) {
	page, err := render("page", s.view())
	if err != nil {
		s.logger.Error("storefront: render page", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Service) handleAdd(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	p, ok := s.bySKU[sku]
	if !ok {
		s.reply(w, r, http.StatusNotFound, message{Content: "Unknown product " + sku, Type: "error"})
		return
	}
	qty := 1
	if v := r.FormValue("qty"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.reply(w, r, http.StatusUnprocessableEntity, message{Content: "Quantity must be a positive number", Type: "error"})
			return
		}
		qty = n
	}
	s.cart.Add(sku, qty)
	s.reply(w, r, http.StatusOK, message{Content: "Added " + strconv.Itoa(qty) + " × " + p.Name})
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.reply(w, r, http.StatusBadRequest, message{Content: "Bad form", Type: "error"})
		return
	}
	if r.PostForm.Get("op") == "Clear" {
		s.cart.Clear()
		s.reply(w, r, http.StatusOK, message{Content: "Cart cleared"})
		return
	}
	// Validate every quantity before touching the cart.
	var updates []lineQty
	for _, p := range s.catalog {
		v := r.PostForm.Get("qty-" + p.SKU)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			s.reply(w, r, http.StatusUnprocessableEntity, message{Content: "Quantity for " + p.Name + " must be a number", Type: "error"})
			return
		}
		updates = append(updates, lineQty{SKU: p.SKU, Qty: n})
	}
	s.cart.setAll(updates)
	s.reply(w, r, http.StatusOK, message{Content: "Cart updated"})
}

func (s *Service) handleClear(w http.ResponseWriter, r *http.Request) {
	s.cart.Clear()
	s.reply(w, r, http.StatusOK, message{Content: "Cart cleared"})
}

type message struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// Envelope is the JSON response body.
type Envelope struct {
	Regions  map[string]string          `json:"regions,omitempty"`
	Events   map[string]json.RawMessage `json:"events,omitempty"`
	Messages []any                      `json:"messages,omitempty"`
}

// reply answers ajax requests with an envelope and redirects the rest to
// the page.
func (s *Service) reply(w http.ResponseWriter, r *http.Request, status int, msg message) {
	if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
		if status != http.StatusOK {
			http.Error(w, msg.Content, status)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	v := s.view()
	env := Envelope{Messages: []any{msg}}
	if msg.Type == "" {
		// Bare strings are valid messages.
		env.Messages = []any{msg.Content}
	}
	if status == http.StatusOK {
		detail, _ := json.Marshal(map[string]any{"count": v.Count, "total": money(v.Total)})
		env.Events = map[string]json.RawMessage{"cart-updated": detail}
	}

	for _, name := range wantedRegions(r.Header.Get(s.header)) {
		tmplName, ok := regionTemplates[name]
		if !ok {
			continue
		}
		html, err := render(tmplName, v)
		if err != nil {
			s.logger.Error("storefront: render region", "region", name, "error", err)
			continue
		}
		if env.Regions == nil {
			env.Regions = make(map[string]string)
		}
		env.Regions[name] = html
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// wantedRegions splits a pull-regions header value. Duplicates are kept
// once.
func wantedRegions(h string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range strings.Split(h, ",") {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
