package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncDirection(t *testing.T) {
	assert.True(t, SyncPush.CanPush())
	assert.False(t, SyncPush.CanPull())
	assert.True(t, SyncPull.CanPull())
	assert.False(t, SyncPull.CanPush())
	assert.True(t, SyncBoth.CanPush())
	assert.True(t, SyncBoth.CanPull())
}

func TestProductMirror_StateTransitions(t *testing.T) {
	p := &ProductMirror{SyncStatus: SyncPending}

	now := time.Now().UTC()
	p.MarkSynced(now)
	assert.Equal(t, SyncSynced, p.SyncStatus)
	assert.Nil(t, p.LastError)
	require.NotNil(t, p.LastSyncAt)
	assert.Equal(t, now, *p.LastSyncAt)

	p.MarkError("remote store unreachable")
	assert.Equal(t, SyncError, p.SyncStatus)
	require.NotNil(t, p.LastError)
	assert.Equal(t, "remote store unreachable", *p.LastError)

	// A watched-field change after an error re-enters the pipeline.
	p.MarkPending()
	assert.Equal(t, SyncPending, p.SyncStatus)
	assert.Nil(t, p.LastError)
}

func TestProductMirror_WatchedChanges(t *testing.T) {
	base := func() *ProductMirror {
		return &ProductMirror{
			Name:         "Notebook",
			SKU:          "BK-001",
			RegularPrice: decimal.RequireFromString("12.99"),
			SalePrice:    decimal.RequireFromString("9.99"),
			Description:  "A5 dotted",
			OnSale:       true,
			Status:       ProductPublished,
		}
	}

	t.Run("no change", func(t *testing.T) {
		assert.Empty(t, base().WatchedChanges(base()))
	})

	t.Run("unwatched field only", func(t *testing.T) {
		in := base()
		in.SKU = "BK-002" // SKU is not watched
		assert.Empty(t, base().WatchedChanges(in))
	})

	t.Run("price change", func(t *testing.T) {
		in := base()
		in.RegularPrice = decimal.RequireFromString("14.99")
		assert.Equal(t, []string{FieldRegularPrice}, base().WatchedChanges(in))
	})

	t.Run("equal decimals with different exponents", func(t *testing.T) {
		in := base()
		in.RegularPrice = decimal.RequireFromString("12.990")
		assert.Empty(t, base().WatchedChanges(in))
	})

	t.Run("multiple changes", func(t *testing.T) {
		in := base()
		in.Name = "Notebook A5"
		in.OnSale = false
		changed := base().WatchedChanges(in)
		assert.ElementsMatch(t, []string{FieldName, FieldOnSale}, changed)
	})
}

func TestProductImage_Position(t *testing.T) {
	img := &ProductImage{Sequence: 30}
	assert.Equal(t, 3, img.Position())
}

func TestNewEndpointToken(t *testing.T) {
	a, err := NewEndpointToken()
	require.NoError(t, err)
	b, err := NewEndpointToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestOrder_ComputeTotal(t *testing.T) {
	o := &Order{
		Lines: []OrderLine{
			{Kind: LineProduct, Total: decimal.RequireFromString("25.98")},
			{Kind: LineShipping, Total: decimal.RequireFromString("5.00")},
			{Kind: LineTax, Total: decimal.RequireFromString("2.60")},
		},
	}
	assert.True(t, o.ComputeTotal().Equal(decimal.RequireFromString("33.58")))
}

func TestRemoteOrder_Unmarshal(t *testing.T) {
	// Totals arrive as quoted strings, quantity as a number.
	payload := []byte(`{
		"id": 1042,
		"number": "1042",
		"order_key": "wc_order_abc123",
		"currency": "EUR",
		"total": "30.98",
		"payment_method_title": "Card",
		"billing": {"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
		"line_items": [{"name": "Notebook", "product_id": 77, "sku": "BK-001", "quantity": 2, "price": 12.99, "total": "25.98"}],
		"shipping_lines": [{"method_title": "Flat rate", "total": "5.00"}]
	}`)

	var ro RemoteOrder
	require.NoError(t, json.Unmarshal(payload, &ro))

	assert.Equal(t, int64(1042), ro.ID)
	assert.Equal(t, "wc_order_abc123", ro.OrderKey)
	assert.Equal(t, "Ada Lovelace", ro.Billing.FullName())
	require.Len(t, ro.LineItems, 1)
	assert.True(t, ro.LineItems[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, ro.LineItems[0].Total.Equal(decimal.RequireFromString("25.98")))
	require.Len(t, ro.ShippingLines, 1)
	assert.True(t, ro.ShippingLines[0].Total.Equal(decimal.RequireFromString("5.00")))
}
