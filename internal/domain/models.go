package domain

import "time"

// Domain contains core models shared by the client, harvester and publishers.

// Product is a catalog item as returned by the catalog API. It is read-only.
type Product struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Image          string    `json:"image"`
	Price          float64   `json:"price"`
	OriginalPrice  *float64  `json:"originalPrice,omitempty"`
	DiscountAmount float64   `json:"discountAmount"`
	DiscountRate   float64   `json:"discountRate"`
	Sold           int       `json:"sold"`
	Rating         float64   `json:"rating"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Pagination describes a page window over a result set.
// TotalPages is expected to equal ceil(Total/Limit); the server owns that invariant.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
