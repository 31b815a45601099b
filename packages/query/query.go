package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
)

// ErrInvalidURL is returned when the base URL cannot be parsed
var ErrInvalidURL = errors.New("invalid url")

// Pair is a single top-level parameter
type Pair struct {
	Key   string
	Value value.Value
}

// Component is one encoded key=value pair of a query string
type Component struct {
	Key   string
	Value string
}

// Query builds the encoded query string for params.
func Query(params []Pair) string {
	components := Components(params)
	parts := make([]string, 0, len(components))
	for _, c := range components {
		parts = append(parts, c.Key+"="+c.Value)
	}
	return strings.Join(parts, "&")
}

// Components returns the escaped key/value pairs Query joins, in order.
func Components(params []Pair) []Component {
	sorted := make([]Pair, len(params))
	copy(sorted, params)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})

	var components []Component
	for _, p := range sorted {
		components = appendComponents(components, p.Key, p.Value)
	}
	return components
}

func appendComponents(components []Component, key string, v value.Value) []Component {
	switch v.Kind() {
	case value.KindObject:
		for _, m := range v.SortedMembers() {
			components = appendComponents(components, key+"["+m.Key+"]", m.Value)
		}
	case value.KindArray:
		for _, item := range v.Items() {
			components = appendComponents(components, key+"[]", item)
		}
	case value.KindBool:
		b := "0"
		if v.BoolValue() {
			b = "1"
		}
		components = append(components, Component{Key: Escape(key), Value: b})
	default:
		components = append(components, Component{Key: Escape(key), Value: Escape(v.Text())})
	}
	return components
}

// EncodeParamToURL parses base and appends the query built from params to any
// query it already carries.
func EncodeParamToURL(base string, params []Pair) (*url.URL, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if len(params) == 0 {
		return u, nil
	}

	q := Query(params)
	if q == "" {
		return u, nil
	}
	if u.RawQuery != "" {
		u.RawQuery = u.RawQuery + "&" + q
	} else {
		u.RawQuery = q
	}
	u.ForceQuery = false
	return u, nil
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes s for use as a query key or value.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !allowed(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func allowed(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '/', '?':
		return true
	}
	return false
}
