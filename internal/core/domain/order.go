package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is the local party record orders attach to. Email is the match
// key for inbound order mapping.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Street      string    `json:"street,omitempty"`
	Street2     string    `json:"street2,omitempty"`
	City        string    `json:"city,omitempty"`
	Zip         string    `json:"zip,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LineKind distinguishes product lines from the non-line order amounts,
// which are emitted as their own typed lines so totals stay correct.
type LineKind string

const (
	LineProduct  LineKind = "product"
	LineShipping LineKind = "shipping"
	LineFee      LineKind = "fee"
	LineTax      LineKind = "tax"
)

// OrderLine is one line of a local order.
type OrderLine struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Kind    LineKind  `json:"kind"`

	Name            string     `json:"name"`
	SKU             string     `json:"sku,omitempty"`
	ProductMirrorID *uuid.UUID `json:"product_mirror_id,omitempty"`
	RemoteProductID *int64     `json:"remote_product_id,omitempty"`

	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Order is a local order created from an inbound remote delivery.
// (ConnectionID, RemoteOrderKey) is unique; the storage layer enforces it,
// which is what makes duplicate webhook deliveries safe.
type Order struct {
	ID           uuid.UUID `json:"id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	Number       string    `json:"number"` // prefix + remote order number

	RemoteOrderID  int64  `json:"remote_order_id"`
	RemoteOrderKey string `json:"remote_order_key"` // idempotency key

	CustomerID    uuid.UUID       `json:"customer_id"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Total         decimal.Decimal `json:"total"`

	Lines []OrderLine `json:"lines,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ComputeTotal sums all line totals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Total)
	}
	return total
}
