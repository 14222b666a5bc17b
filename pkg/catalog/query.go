package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchParams is the optional-field filter record for product search.
// A nil field means "no filter on this dimension" and is never sent.
type SearchParams struct {
	Keyword     *string  `json:"keyword,omitempty" yaml:"keyword"`
	MinPrice    *float64 `json:"minPrice,omitempty" yaml:"min_price"`
	MaxPrice    *float64 `json:"maxPrice,omitempty" yaml:"max_price"`
	MinDiscount *float64 `json:"minDiscount,omitempty" yaml:"min_discount"`
	MaxDiscount *float64 `json:"maxDiscount,omitempty" yaml:"max_discount"`
	MinRating   *float64 `json:"minRating,omitempty" yaml:"min_rating"`
	Page        *int     `json:"page,omitempty" yaml:"page"`
}

// String returns a pointer to s, for building SearchParams literals.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// queryParam is one encoded name/value pair.
type queryParam struct {
	name  string
	value string
}

func (p SearchParams) params() []queryParam {
	out := make([]queryParam, 0, 7)
	if p.Keyword != nil {
		out = append(out, queryParam{"keyword", *p.Keyword})
	}
	addFloat := func(name string, v *float64) {
		if v != nil {
			out = append(out, queryParam{name, formatNumber(*v)})
		}
	}
	addFloat("minPrice", p.MinPrice)
	addFloat("maxPrice", p.MaxPrice)
	addFloat("minDiscount", p.MinDiscount)
	addFloat("maxDiscount", p.MaxDiscount)
	addFloat("minRating", p.MinRating)
	if p.Page != nil {
		out = append(out, queryParam{"page", strconv.Itoa(*p.Page)})
	}
	return out
}

// Encode form-encodes the defined filters. Unlike url.Values.Encode the
// declaration order is kept: keyword, minPrice, maxPrice, minDiscount,
// maxDiscount, minRating, page.
func (p SearchParams) Encode() string {
	var b strings.Builder
	for i, qp := range p.params() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(qp.name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(qp.value))
	}
	return b.String()
}

// formatNumber renders v in its shortest decimal form (10, 10.5, 0.25).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
