package service

import (
	"context"
	"testing"

	"woosync/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMapper_ProductResolutionPrecedence(t *testing.T) {
	productRepo := newFakeProductRepo()
	mapper := NewOrderMapper(productRepo, newFakeCustomerRepo(), zerolog.Nop())
	ctx := context.Background()
	connID := uuid.New()

	bySKU := &domain.ProductMirror{ID: uuid.New(), ConnectionID: connID, RemoteID: 1, SKU: "WID-1", Name: "Widget SKU"}
	byRemote := &domain.ProductMirror{ID: uuid.New(), ConnectionID: connID, RemoteID: 101, SKU: "OTHER", Name: "Widget Remote"}
	byName := &domain.ProductMirror{ID: uuid.New(), ConnectionID: connID, RemoteID: 3, SKU: "NAMED", Name: "Widget"}
	for _, m := range []*domain.ProductMirror{bySKU, byRemote, byName} {
		require.NoError(t, productRepo.Upsert(ctx, m))
	}

	ep := &domain.WebhookEndpoint{ConnectionID: connID, AutoCreateCustomer: true}
	customer := &domain.Customer{ID: uuid.New()}

	tests := []struct {
		name     string
		item     domain.RemoteLineItem
		wantID   uuid.UUID
		resolved bool
	}{
		{"SKU wins over remote ID and name", domain.RemoteLineItem{SKU: "WID-1", ProductID: 101, Name: "Widget"}, bySKU.ID, true},
		{"remote ID wins over name", domain.RemoteLineItem{ProductID: 101, Name: "Widget"}, byRemote.ID, true},
		{"exact name as last resort", domain.RemoteLineItem{Name: "Widget"}, byName.ID, true},
		{"nothing matches", domain.RemoteLineItem{SKU: "NOPE", ProductID: 999, Name: "Unknown"}, uuid.Nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &domain.RemoteOrder{
				ID:       1,
				Number:   "1",
				OrderKey: "wc_order_x",
				LineItems: []domain.RemoteLineItem{
					tt.item,
				},
			}
			order, err := mapper.MapOrder(ctx, ep, customer, remote)
			require.NoError(t, err)
			require.Len(t, order.Lines, 1)
			if tt.resolved {
				require.NotNil(t, order.Lines[0].ProductMirrorID)
				assert.Equal(t, tt.wantID, *order.Lines[0].ProductMirrorID)
			} else {
				assert.Nil(t, order.Lines[0].ProductMirrorID)
			}
		})
	}
}

func TestOrderMapper_TypedAmountLines(t *testing.T) {
	mapper := NewOrderMapper(newFakeProductRepo(), newFakeCustomerRepo(), zerolog.Nop())
	ep := &domain.WebhookEndpoint{ConnectionID: uuid.New(), OrderPrefix: "WC-"}
	customer := &domain.Customer{ID: uuid.New()}

	remote := &domain.RemoteOrder{
		ID:       7,
		Number:   "7",
		OrderKey: "wc_order_7",
		ShippingLines: []domain.RemoteShippingLine{
			{MethodTitle: "Express", Total: decimal.RequireFromString("12.50")},
		},
		FeeLines: []domain.RemoteFeeLine{
			{Name: "Gift Wrap", Total: decimal.RequireFromString("3.00")},
		},
		TaxLines: []domain.RemoteTaxLine{
			{Label: "VAT", TaxTotal: decimal.RequireFromString("3.10")},
		},
	}

	order, err := mapper.MapOrder(context.Background(), ep, customer, remote)
	require.NoError(t, err)
	require.Len(t, order.Lines, 3)
	assert.Equal(t, domain.LineShipping, order.Lines[0].Kind)
	assert.Equal(t, domain.LineFee, order.Lines[1].Kind)
	assert.Equal(t, domain.LineTax, order.Lines[2].Kind)
	assert.Equal(t, "VAT", order.Lines[2].Name)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("18.60")))
	assert.Equal(t, "WC-7", order.Number)
}

func TestOrderMapper_EmailNormalized(t *testing.T) {
	customerRepo := newFakeCustomerRepo()
	mapper := NewOrderMapper(newFakeProductRepo(), customerRepo, zerolog.Nop())
	ctx := context.Background()
	ep := &domain.WebhookEndpoint{ConnectionID: uuid.New(), AutoCreateCustomer: true}

	customer, err := mapper.ResolveCustomer(ctx, &noopTx{}, ep, domain.RemoteBilling{
		FirstName: "Jane", Email: "  Jane@Example.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", customer.Email)

	// A later delivery with different casing matches the same customer.
	again, err := mapper.ResolveCustomer(ctx, &noopTx{}, ep, domain.RemoteBilling{
		FirstName: "Jane", Email: "JANE@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, again.ID)
}
