package domain

import "github.com/shopspring/decimal"

// RemoteOrder is the transient parsed form of an inbound order payload.
// Field names follow the remote store's wire format; decimal fields accept
// both JSON numbers and the quoted strings the API actually sends.
type RemoteOrder struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	OrderKey      string          `json:"order_key"`
	Status        string          `json:"status"`
	Currency      string          `json:"currency"`
	DateCreated   string          `json:"date_created"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method_title"`

	Billing       RemoteBilling        `json:"billing"`
	LineItems     []RemoteLineItem     `json:"line_items"`
	ShippingLines []RemoteShippingLine `json:"shipping_lines"`
	FeeLines      []RemoteFeeLine      `json:"fee_lines"`
	TaxLines      []RemoteTaxLine      `json:"tax_lines"`
}

// RemoteBilling carries the billing identity fields used for customer
// matching and creation.
type RemoteBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	State     string `json:"state"`
}

// FullName joins the billing name parts.
func (b RemoteBilling) FullName() string {
	switch {
	case b.FirstName == "":
		return b.LastName
	case b.LastName == "":
		return b.FirstName
	default:
		return b.FirstName + " " + b.LastName
	}
}

type RemoteLineItem struct {
	Name      string          `json:"name"`
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

type RemoteShippingLine struct {
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
}

type RemoteFeeLine struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type RemoteTaxLine struct {
	Label    string          `json:"label"`
	TaxTotal decimal.Decimal `json:"tax_total"`
}
