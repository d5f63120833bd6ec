package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/deal"
	"github.com/kawanestudio/storefront/internal/domain/inventory"
	"github.com/kawanestudio/storefront/internal/domain/notification"
	"github.com/kawanestudio/storefront/internal/domain/order"
	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/internal/domain/product"
	"github.com/kawanestudio/storefront/internal/domain/promo"
	"github.com/kawanestudio/storefront/internal/domain/user"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListBelowThreshold(context.Context, []string) ([]product.Product, error) {
	return nil, nil
}

type mockDealRepo struct {
	active []deal.ProductDeal
}

func (m *mockDealRepo) GetByID(context.Context, int64) (*deal.Deal, error) {
	return nil, deal.ErrNotFound
}

func (m *mockDealRepo) ActiveForProducts(_ context.Context, ids []string, now time.Time) ([]deal.ProductDeal, error) {
	var out []deal.ProductDeal
	for _, pd := range m.active {
		if !pd.Deal.ActiveAt(now) {
			continue
		}
		for _, id := range ids {
			if pd.ProductID == id {
				out = append(out, pd)
			}
		}
	}
	return out, nil
}

func (m *mockDealRepo) ExpireEnded(context.Context, time.Time) (int64, error) { return 0, nil }
func (m *mockDealRepo) ActivateDue(context.Context, time.Time) (int64, error) { return 0, nil }

type mockUserRepo struct{}

func (mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	if id != "u1" {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: "u1"}, nil
}

func (mockUserRepo) GetAddress(_ context.Context, addressID, userID string) (*user.Address, error) {
	if addressID != "a1" || userID != "u1" {
		return nil, user.ErrAddressNotFound
	}
	return &user.Address{ID: "a1", UserID: "u1"}, nil
}

type mockPromoRepo struct{}

func (mockPromoRepo) FindByCode(context.Context, string) (*promo.Rule, error) {
	return nil, promo.ErrInvalidCode
}

type mockStore struct {
	products map[string]*product.Product
	orders   map[string]*order.Order
}

func (m *mockStore) CreateOrder(_ context.Context, o *order.Order, _ *payment.Payment, _ string) error {
	for _, item := range o.Items {
		p := m.products[item.ProductID]
		if p.Stock < item.Quantity {
			return &order.InsufficientStockError{
				ProductID: item.ProductID, Available: p.Stock, Requested: item.Quantity,
			}
		}
	}
	for _, item := range o.Items {
		m.products[item.ProductID].Stock -= item.Quantity
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockStore) GetForUser(_ context.Context, id, userID string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, o *order.Order, next order.Status) error {
	m.orders[o.ID].Status = next
	return nil
}

type mockPaymentRepo struct{}

func (mockPaymentRepo) GetByOrderID(context.Context, string) (*payment.Payment, error) {
	return nil, payment.ErrNotFound
}
func (mockPaymentRepo) AttachSession(context.Context, string, string, string) error { return nil }
func (mockPaymentRepo) UpdateStatus(context.Context, string, payment.Status) error  { return nil }

type mockNoteRepo struct{}

func (mockNoteRepo) Create(context.Context, *notification.Notification) error { return nil }
func (mockNoteRepo) ListForUser(context.Context, string, int) ([]notification.Notification, error) {
	return nil, nil
}

type mockLogRepo struct {
	logs []inventory.Log
}

func (m *mockLogRepo) ListForProduct(context.Context, string, int) ([]inventory.Log, error) {
	return m.logs, nil
}

// --- Helpers ---

type fixture struct {
	products *mockProductRepo
	store    *mockStore
	router   *gin.Engine
}

func newFixture(products map[string]*product.Product, active ...deal.ProductDeal) *fixture {
	gin.SetMode(gin.TestMode)

	productRepo := &mockProductRepo{byID: products}
	dealRepo := &mockDealRepo{active: active}
	store := &mockStore{products: products, orders: map[string]*order.Order{}}
	resolver := deal.NewResolver(productRepo, dealRepo, nil)
	lg := zap.NewNop()

	svc := order.NewService(order.Deps{
		Users:    mockUserRepo{},
		Products: productRepo,
		Deals:    dealRepo,
		Resolver: resolver,
		Promos:   promo.NewRepoValidator(mockPromoRepo{}),
		Store:    store,
		Payments: mockPaymentRepo{},
		Notes:    mockNoteRepo{},
	}, lg)

	h := NewHandler(Config{BusinessPhone: "6281100001111"},
		productRepo, resolver, svc, &mockLogRepo{}, mockNoteRepo{}, lg)

	router := gin.New()
	h.RegisterRoutes(router, nil)

	return &fixture{products: productRepo, store: store, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func testProducts() map[string]*product.Product {
	return map[string]*product.Product{
		"p1": {ID: "p1", Name: "Widget", Price: decimal.NewFromInt(10), Stock: 5},
		"p2": {ID: "p2", Name: "Gadget", Price: decimal.NewFromInt(100), Stock: 3,
			Sizes: []product.SizeStock{{Size: "M", Stock: 3}}},
	}
}

func activeDeal(productID string, id int64, typ deal.Type, value int64) deal.ProductDeal {
	now := time.Now()
	return deal.ProductDeal{
		ProductID: productID,
		Deal: deal.Deal{
			ID: id, Title: "Test Deal", Type: typ, Value: decimal.NewFromInt(value),
			Status: deal.StatusActive, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
		},
	}
}

// --- Tests ---

func TestGetProduct(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodGet, "/api/products/p2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Gadget", res.Name)
	require.Len(t, res.Sizes, 1)
	assert.Equal(t, "M", res.Sizes[0].Size)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodGet, "/api/products/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestGetPricing_WithDeal(t *testing.T) {
	f := newFixture(testProducts(), activeDeal("p2", 7, deal.TypePercentage, 20))

	rec := f.do(t, http.MethodGet, "/api/products/p2/pricing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var q deal.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.True(t, decimal.NewFromInt(80).Equal(q.DiscountedPrice))
	assert.Equal(t, int64(7), q.DealID)
}

func TestBulkPricing_EmptyIDs(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/pricing/bulk", map[string]any{"productIds": []string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/orders", createOrderRequest{
		UserID:    "u1",
		AddressID: "a1",
		Items:     []orderItemRequest{{ProductID: "p1", Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Order   orderResponse   `json:"order"`
		Payment paymentResponse `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, decimal.NewFromInt(20).Equal(res.Order.Total))
	assert.Equal(t, order.StatusPending, res.Order.Status)
	assert.Equal(t, payment.StatusPending, res.Payment.Status)
	assert.Equal(t, 3, f.products.byID["p1"].Stock)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/orders", createOrderRequest{
		UserID:    "u1",
		AddressID: "a1",
		Items:     []orderItemRequest{{ProductID: "p1", Quantity: 99}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"insufficient_stock"`)
}

func TestCreateOrder_AmountMismatch(t *testing.T) {
	f := newFixture(testProducts())
	wrong := decimal.NewFromInt(999)

	rec := f.do(t, http.MethodPost, "/api/orders", createOrderRequest{
		UserID:    "u1",
		AddressID: "a1",
		Items:     []orderItemRequest{{ProductID: "p1", Quantity: 1}},
		Total:     &wrong,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"amount_mismatch"`)
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/orders", createOrderRequest{
		UserID:    "ghost",
		AddressID: "a1",
		Items:     []orderItemRequest{{ProductID: "p1", Quantity: 1}},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus_SameStatusConflict(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/orders", createOrderRequest{
		UserID:    "u1",
		AddressID: "a1",
		Items:     []orderItemRequest{{ProductID: "p1", Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		Order orderResponse `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = f.do(t, http.MethodPatch, "/api/orders/"+res.Order.ID+"/status",
		map[string]string{"status": "PENDING"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_transition"`)
}

func TestCreateWhatsAppOrder(t *testing.T) {
	f := newFixture(testProducts())

	rec := f.do(t, http.MethodPost, "/api/orders/whatsapp", whatsAppOrderRequest{
		UserID: "u1",
		Items:  []orderItemRequest{{ProductID: "p2", Quantity: 1, Size: "M"}},
		Phone:  "+62 812-3456-7890",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Order orderResponse `json:"order"`
		Link  string        `json:"link"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, order.StatusWhatsAppPending, res.Order.Status)
	assert.Contains(t, res.Link, "https://wa.me/6281100001111?text=")
}
