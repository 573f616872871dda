package commands

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Request reads command arguments from the query string. A missing key reads
// as nil; an empty value is still present.
type Request struct {
	r *http.Request
}

// Args wraps r
func Args(r *http.Request) Request {
	return Request{r: r}
}

// String returns the first value of key
func (q Request) String(key string) *string {
	values, ok := q.r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// Float parses key as a finite float; nil when missing or malformed
func (q Request) Float(key string) *float64 {
	s := q.String(key)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Bool reports whether key equals "true", ignoring case. def is returned when key is missing.
func (q Request) Bool(key string, def bool) bool {
	s := q.String(key)
	if s == nil {
		return def
	}
	return strings.EqualFold(*s, "true")
}

// SemicolonList splits key on ';' and trims each element
func (q Request) SemicolonList(key string) []string {
	s := q.String(key)
	if s == nil {
		return nil
	}
	parts := strings.Split(*s, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
