// Package problem renders RFC 7807 problem documents for the ledger API.
package problem

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	ContentType = "application/problem+json"
	baseTypeURL = "https://errors.cartai.com/"

	// RequestIDHeader carries the per-request id echoed in every problem body.
	RequestIDHeader = "X-Request-ID"
)

// Details is the problem document. Code repeats the slug so clients can switch on it
// without parsing the type URL.
type Details struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	RequestID string `json:"request_id"`
}

func Type(slug string) string {
	return baseTypeURL + slug
}

// New builds the document for slug. An empty slug yields about:blank.
func New(r *http.Request, status int, slug, detail string) Details {
	d := Details{
		Type:   "about:blank",
		Code:   slug,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	if slug != "" {
		d.Type = Type(strings.TrimPrefix(slug, "/"))
	}
	if r != nil {
		d.Instance = r.URL.Path
		d.RequestID = r.Header.Get(RequestIDHeader)
	}
	return d
}

// Write sends the problem for slug with the given status.
func Write(w http.ResponseWriter, r *http.Request, status int, slug, detail string) {
	d := New(r, status, slug, detail)
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(RequestIDHeader)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
