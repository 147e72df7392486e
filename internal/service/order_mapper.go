package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"
	"woosync/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderMapper translates a parsed inbound order payload into local records.
// Mapping never calls the remote API: every lookup runs against local
// storage, so a delivery can be applied while the remote store is down.
type OrderMapper struct {
	productRepo  ports.ProductRepository
	customerRepo ports.CustomerRepository
	log          zerolog.Logger
}

// NewOrderMapper creates a new OrderMapper.
func NewOrderMapper(productRepo ports.ProductRepository, customerRepo ports.CustomerRepository, log zerolog.Logger) *OrderMapper {
	return &OrderMapper{productRepo: productRepo, customerRepo: customerRepo, log: log}
}

// ResolveCustomer matches the billing email against local customers. A match
// gets its contact fields refreshed; a miss creates a new customer when the
// endpoint allows it. Runs inside the caller's transaction.
func (m *OrderMapper) ResolveCustomer(ctx context.Context, tx pgx.Tx, ep *domain.WebhookEndpoint, billing domain.RemoteBilling) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(billing.Email))
	if email == "" {
		return nil, apperror.Validation("billing email is required")
	}

	customer, err := m.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	if customer != nil {
		applyBilling(customer, billing)
		if err := m.customerRepo.Update(ctx, tx, customer); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		return customer, nil
	}

	if !ep.AutoCreateCustomer {
		return nil, apperror.Validation(fmt.Sprintf("no customer with email %q and auto-create is disabled", email))
	}

	customer = &domain.Customer{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now(),
	}
	applyBilling(customer, billing)
	if err := m.customerRepo.Create(ctx, tx, customer); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return customer, nil
}

func applyBilling(c *domain.Customer, b domain.RemoteBilling) {
	c.Name = b.FullName()
	c.Phone = b.Phone
	c.Street = b.Address1
	c.Street2 = b.Address2
	c.City = b.City
	c.Zip = b.Postcode
	c.CountryCode = b.Country
	c.State = b.State
}

// MapOrder builds the local order from a parsed payload. Product lines are
// resolved SKU first, then remote product ID, then exact name; an unresolved
// line becomes a generic line so the order is never dropped over one unknown
// product. Shipping, fee and tax amounts become their own typed lines so the
// local total matches the remote one.
func (m *OrderMapper) MapOrder(ctx context.Context, ep *domain.WebhookEndpoint, customer *domain.Customer, remote *domain.RemoteOrder) (*domain.Order, error) {
	if remote.OrderKey == "" {
		return nil, apperror.Validation("payload is missing order_key")
	}

	prefix := ep.OrderPrefix
	if prefix == "" {
		prefix = domain.DefaultOrderPrefix
	}

	order := &domain.Order{
		ID:             uuid.New(),
		ConnectionID:   ep.ConnectionID,
		Number:         prefix + remote.Number,
		RemoteOrderID:  remote.ID,
		RemoteOrderKey: remote.OrderKey,
		CustomerID:     customer.ID,
		Currency:       remote.Currency,
		PaymentMethod:  remote.PaymentMethod,
		CreatedAt:      time.Now(),
	}

	for _, item := range remote.LineItems {
		line := domain.OrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Kind:      domain.LineProduct,
			Name:      item.Name,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			Total:     item.Total,
		}
		mirror := m.resolveProduct(ctx, ep.ConnectionID, item)
		if mirror != nil {
			line.ProductMirrorID = &mirror.ID
			remoteID := mirror.RemoteID
			line.RemoteProductID = &remoteID
		} else {
			m.log.Debug().
				Str("sku", item.SKU).
				Str("name", item.Name).
				Msg("order line product not resolved, keeping generic line")
		}
		order.Lines = append(order.Lines, line)
	}

	for _, s := range remote.ShippingLines {
		order.Lines = append(order.Lines, amountLine(order.ID, domain.LineShipping, s.MethodTitle, s.Total))
	}
	for _, f := range remote.FeeLines {
		order.Lines = append(order.Lines, amountLine(order.ID, domain.LineFee, f.Name, f.Total))
	}
	for _, tl := range remote.TaxLines {
		order.Lines = append(order.Lines, amountLine(order.ID, domain.LineTax, tl.Label, tl.TaxTotal))
	}

	order.Total = order.ComputeTotal()
	return order, nil
}

// resolveProduct tries the three match strategies in order. A nil result is
// not an error.
func (m *OrderMapper) resolveProduct(ctx context.Context, connectionID uuid.UUID, item domain.RemoteLineItem) *domain.ProductMirror {
	if item.SKU != "" {
		if mirror, err := m.productRepo.GetBySKU(ctx, connectionID, item.SKU); err == nil && mirror != nil {
			return mirror
		}
	}
	if item.ProductID != 0 {
		if mirror, err := m.productRepo.GetByRemoteID(ctx, connectionID, item.ProductID); err == nil && mirror != nil {
			return mirror
		}
	}
	if item.Name != "" {
		if mirror, err := m.productRepo.GetByName(ctx, connectionID, item.Name); err == nil && mirror != nil {
			return mirror
		}
	}
	return nil
}

func amountLine(orderID uuid.UUID, kind domain.LineKind, name string, total decimal.Decimal) domain.OrderLine {
	return domain.OrderLine{
		ID:        uuid.New(),
		OrderID:   orderID,
		Kind:      kind,
		Name:      name,
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: total,
		Total:     total,
	}
}
