// Package urlnorm canonicalises URLs so request URLs and watch patterns can
// be compared as strings: resolved against the page base URL, with query
// string and fragment removed.
//
// The canonical form follows what a browser produces for an anchor href:
// scheme and host are lower-cased, the scheme's default port is dropped, an
// empty path becomes "/", dot segments are removed, and only bytes in the
// browser path percent-encode set (controls, space, non-ASCII and
// " < > ` { }) are escaped. Everything else in the path is kept as written,
// so "*" and regexp syntax in watch patterns survive normalisation.
package urlnorm

import (
	"net/url"
	"strings"
)

// Normalizer resolves URLs against a fixed base.
type Normalizer struct {
	base *url.URL
}

// New creates a Normalizer. An empty or unparsable base leaves relative
// URLs relative.
func New(base string) *Normalizer {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return &Normalizer{}
	}
	return &Normalizer{base: u}
}

// Base returns the base URL, or nil.
func (n *Normalizer) Base() *url.URL {
	return n.base
}

// Normalize returns raw as an absolute URL without query or fragment.
// It never fails: input that does not parse is only stripped.
func (n *Normalizer) Normalize(raw string) string {
	stripped := stripSuffix(raw)
	ref, err := url.Parse(stripped)
	if err != nil || ref.Opaque != "" {
		return stripped
	}

	scheme, user, host, p := ref.Scheme, ref.User, ref.Host, rawPath(ref)
	if scheme == "" && n.base != nil {
		scheme = n.base.Scheme
		switch {
		case host != "":
			// Network-path reference: only the scheme comes from the base.
		case p == "":
			user, host, p = n.base.User, n.base.Host, rawPath(n.base)
		case strings.HasPrefix(p, "/"):
			user, host = n.base.User, n.base.Host
		default:
			user, host = n.base.User, n.base.Host
			p = dir(rawPath(n.base)) + p
		}
	}
	p = removeDots(p)

	if scheme == "" && host == "" {
		return escapePath(p)
	}
	scheme = strings.ToLower(scheme)
	host = canonicalHost(scheme, host)
	if p == "" {
		p = "/"
	}

	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme)
		b.WriteByte(':')
	}
	b.WriteString("//")
	if user != nil {
		b.WriteString(user.String())
		b.WriteByte('@')
	}
	b.WriteString(host)
	b.WriteString(escapePath(p))
	return b.String()
}

// Resolve returns raw resolved against the base, query and fragment kept.
func (n *Normalizer) Resolve(raw string) string {
	ref, err := url.Parse(raw)
	if err != nil || n.base == nil {
		return raw
	}
	return n.base.ResolveReference(ref).String()
}

func stripSuffix(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// rawPath returns the path of u as it was written, escapes untouched.
func rawPath(u *url.URL) string {
	if u.RawPath != "" {
		return u.RawPath
	}
	return u.EscapedPath()
}

// dir returns p up to and including its last "/".
func dir(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i+1]
	}
	return "/"
}

// removeDots applies RFC 3986 dot-segment removal. Unlike path.Clean it
// keeps trailing and repeated slashes.
func removeDots(p string) string {
	if !strings.Contains(p, ".") {
		return p
	}
	floor := 0
	if strings.HasPrefix(p, "/") {
		floor = 1
	}
	segs := strings.Split(p, "/")
	out := make([]string, 0, len(segs))
	for i, s := range segs {
		last := i == len(segs)-1
		switch s {
		case ".":
			if last {
				out = append(out, "")
			}
		case "..":
			if len(out) > floor {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch {
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	}
	return host
}

const upperHex = "0123456789ABCDEF"

// escapePath percent-encodes the bytes a browser encodes in a path.
// Existing escapes are left as written.
func escapePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("\"<>`{}", c) >= 0 {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
