// Package querystring builds JSONAPI query strings. Terms keep the order they were
// added in and keys may repeat. Brackets and ":" stay literal so that
// filter[name]=:bob reaches the backend as written.
package querystring

import (
	"net/url"
	"strings"
)

var unescaper = strings.NewReplacer(
	"%5B", "[",
	"%5D", "]",
	"%3A", ":",
)

// Escape percent-encodes s for use as a query key or value.
func Escape(s string) string {
	return unescaper.Replace(url.QueryEscape(s))
}

type Builder struct {
	terms []string
}

func (b *Builder) Add(key, value string) *Builder {
	b.terms = append(b.terms, Escape(key)+"="+Escape(value))
	return b
}

func (b *Builder) Len() int {
	return len(b.terms)
}

// Encode joins the terms with "&".
func (b *Builder) Encode() string {
	return strings.Join(b.terms, "&")
}
