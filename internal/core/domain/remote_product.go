package domain

import "github.com/shopspring/decimal"

// RemoteProduct is the parsed form of one remote catalog entry.
type RemoteProduct struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	OnSale       bool            `json:"on_sale"`
	Status       string          `json:"status"`
	Description  string          `json:"description"`
	Images       []RemoteImage   `json:"images"`
}

// RemoteImage is one image entry on a remote catalog record.
type RemoteImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Name     string `json:"name"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

// RemoteProductUpdate is a partial catalog update. Only non-nil fields are
// sent; the remote API expects price fields as quoted strings.
type RemoteProductUpdate struct {
	Name         *string          `json:"name,omitempty"`
	SKU          *string          `json:"sku,omitempty"`
	RegularPrice *string          `json:"regular_price,omitempty"`
	SalePrice    *string          `json:"sale_price,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Images       []RemoteImageRef `json:"images,omitempty"`
}

// RemoteImageRef is one image reference inside a catalog update. Either ID
// (external-media strategy) or Src (inline data URI) is set, never both.
type RemoteImageRef struct {
	ID       *int64 `json:"id,omitempty"`
	Src      string `json:"src,omitempty"`
	Name     string `json:"name,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Position int    `json:"position"`
}

// PriceString formats a decimal the way the remote API wants prices.
func PriceString(d decimal.Decimal) string {
	return d.StringFixed(2)
}
