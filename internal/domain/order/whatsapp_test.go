package order

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/internal/domain/product"
)

func TestCreateWhatsApp(t *testing.T) {
	f := newFixture()
	f.addProduct("pa", "Batik Shirt", "150", 10, product.SizeStock{Size: "L", Stock: 5})
	f.addProduct("pb", "Tote Bag", "45.50", 3)
	svc := newTestService(f, nil)

	res, err := svc.CreateWhatsApp(context.Background(), WhatsAppRequest{
		UserID: "u1",
		Items: []CreateItem{
			{ProductID: "pa", Quantity: 2, Size: "L"},
			{ProductID: "pb", Quantity: 1},
		},
		ShippingAddress: "Jl. Braga 12, Bandung",
		Phone:           "+62 812-3456-7890",
		Notes:           "gift wrap please",
	}, "+62 811-0000-1111")
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, StatusWhatsAppPending, o.Status)
	assert.Equal(t, ChannelWhatsApp, o.Channel)
	assert.Equal(t, "6281234567890", o.WhatsAppPhone)
	assert.True(t, dec("345.50").Equal(o.Total), "total: %s", o.Total)

	// Stock moves exactly like an online checkout.
	assert.Equal(t, 8, f.stock("pa"))
	assert.Equal(t, 2, f.stock("pb"))

	pay := f.payments[o.ID]
	require.NotNil(t, pay)
	assert.Equal(t, payment.MethodWhatsAppManual, pay.Method)
	assert.Equal(t, payment.StatusPending, pay.Status)

	assert.Contains(t, res.Message, "Batik Shirt (size L) x2: 300.00")
	assert.Contains(t, res.Message, "Tote Bag x1: 45.50")
	assert.Contains(t, res.Message, "Total: 345.50")
	assert.Contains(t, res.Message, "Ship to: Jl. Braga 12, Bandung")
	assert.Contains(t, res.Message, "Notes: gift wrap please")
	assert.Contains(t, res.Message, "Order ref: "+o.ID)

	assert.True(t, strings.HasPrefix(res.Link, "https://wa.me/6281100001111?text="), res.Link)
}

func TestCreateWhatsApp_SizeMustExist(t *testing.T) {
	f := newFixture()
	f.addProduct("pa", "Batik Shirt", "150", 10, product.SizeStock{Size: "L", Stock: 5})
	svc := newTestService(f, nil)

	_, err := svc.CreateWhatsApp(context.Background(), WhatsAppRequest{
		UserID: "u1",
		Items:  []CreateItem{{ProductID: "pa", Quantity: 1, Size: "S"}},
		Phone:  "6281234567890",
	}, "6281100001111")

	var snf *SizeNotFoundError
	require.ErrorAs(t, err, &snf)
	assert.Equal(t, 10, f.stock("pa"))
}

func TestCreateWhatsApp_NoGatewaySession(t *testing.T) {
	f := newFixture()
	f.addProduct("pa", "Tote Bag", "45.50", 3)
	gw := &mockGateway{session: &payment.Session{Token: "tok", RedirectURL: "https://pay.example/tok"}}
	svc := newTestService(f, gw)

	res, err := svc.CreateWhatsApp(context.Background(), WhatsAppRequest{
		UserID: "u1",
		Items:  []CreateItem{{ProductID: "pa", Quantity: 1}},
		Phone:  "6281234567890",
	}, "6281100001111")

	require.NoError(t, err)
	assert.Equal(t, 0, gw.calls, "manual orders never open a gateway session")
	assert.Empty(t, f.payments[res.Order.ID].Token)
}

func TestCreateWhatsApp_InsufficientStock(t *testing.T) {
	f := newFixture()
	f.addProduct("pa", "Tote Bag", "45.50", 1)
	svc := newTestService(f, nil)

	_, err := svc.CreateWhatsApp(context.Background(), WhatsAppRequest{
		UserID: "u1",
		Items:  []CreateItem{{ProductID: "pa", Quantity: 2}},
		Phone:  "6281234567890",
	}, "6281100001111")

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Tote Bag", ise.ProductName)
	assert.Empty(t, f.orders)
}
