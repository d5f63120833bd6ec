//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

const (
	demoUser    = "demo-user"
	demoAddress = "demo-address"
)

func placeOrder(t *testing.T, items ...orderItemRequest) createOrderResponse {
	t.Helper()

	resp := doPost(t, "/api/orders", createOrderRequest{
		UserID:    demoUser,
		AddressID: demoAddress,
		Items:     items,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[createOrderResponse](t, resp)
}

func TestPlaceOrder_TwoItems(t *testing.T) {
	res := placeOrder(t,
		orderItemRequest{ProductID: "tote-classic", Quantity: 3},
		orderItemRequest{ProductID: "tote-classic-mini", Quantity: 1},
	)

	if res.Order.Total != "50" {
		t.Errorf("total: got %q, want 50", res.Order.Total)
	}
	if res.Order.Status != "PENDING" {
		t.Errorf("status: got %q, want PENDING", res.Order.Status)
	}
	if res.Payment.Status != "PENDING" {
		t.Errorf("payment status: got %q, want PENDING", res.Payment.Status)
	}
	if res.Payment.Amount != "50" {
		t.Errorf("payment amount: got %q, want 50", res.Payment.Amount)
	}
}

func TestPlaceOrder_DealPriceFrozen(t *testing.T) {
	// tote-premium carries a 20% deal: 20 -> 16.
	res := placeOrder(t, orderItemRequest{ProductID: "tote-premium", Quantity: 1})

	if len(res.Order.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(res.Order.Items))
	}
	if res.Order.Items[0].UnitPrice != "16" {
		t.Errorf("unit price: got %q, want 16", res.Order.Items[0].UnitPrice)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		UserID: demoUser, AddressID: demoAddress, Items: []orderItemRequest{},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		UserID: demoUser, AddressID: demoAddress,
		Items: []orderItemRequest{{ProductID: "no-such-product", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		UserID: demoUser, AddressID: demoAddress,
		Items: []orderItemRequest{{ProductID: "flash-mug", Quantity: 9999}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	errRes := decodeJSON[errorResponse](t, resp)
	if errRes.Error.Code != "insufficient_stock" {
		t.Errorf("code: got %q, want insufficient_stock", errRes.Error.Code)
	}
}

func TestPlaceOrder_TotalMismatch(t *testing.T) {
	wrong := "999"
	resp := doPost(t, "/api/orders", createOrderRequest{
		UserID: demoUser, AddressID: demoAddress,
		Items: []orderItemRequest{{ProductID: "tote-classic", Quantity: 1}},
		Total: &wrong,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	before := getProduct(t, "batik-shirt").Stock

	res := placeOrder(t, orderItemRequest{ProductID: "batik-shirt", Quantity: 2, Size: "L"})

	if got := getProduct(t, "batik-shirt").Stock; got != before-2 {
		t.Fatalf("stock after order: got %d, want %d", got, before-2)
	}

	resp := doPost(t, "/api/orders/"+res.Order.ID+"/cancel", map[string]string{"userId": demoUser})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}

	if got := getProduct(t, "batik-shirt").Stock; got != before {
		t.Errorf("stock after cancel: got %d, want %d", got, before)
	}

	// A second cancel is rejected.
	resp2 := doPost(t, "/api/orders/"+res.Order.ID+"/cancel", map[string]string{"userId": demoUser})
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("double cancel: expected 409, got %d", resp2.StatusCode)
	}
}

func TestUpdateStatus_NoOpRejected(t *testing.T) {
	res := placeOrder(t, orderItemRequest{ProductID: "tote-classic", Quantity: 1})

	resp := doJSON(t, http.MethodPatch, "/api/orders/"+res.Order.ID+"/status",
		map[string]string{"status": "PENDING"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	res := placeOrder(t, orderItemRequest{ProductID: "tote-classic", Quantity: 1})

	resp := doGet(t, "/api/orders/"+res.Order.ID+"?userId="+demoUser)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", resp.StatusCode)
	}

	resp2 := doGet(t, "/api/orders/"+res.Order.ID+"?userId=somebody-else")
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("foreign get: expected 404, got %d", resp2.StatusCode)
	}
}

func TestWhatsAppOrder(t *testing.T) {
	resp := doPost(t, "/api/orders/whatsapp", map[string]any{
		"userId": demoUser,
		"items": []orderItemRequest{
			{ProductID: "batik-shirt", Quantity: 1, Size: "M"},
		},
		"shippingAddress": "Jl. Braga 12, Bandung",
		"phone":           "+62 812-3456-7890",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	res := decodeJSON[whatsAppOrderResponse](t, resp)
	if res.Order.Status != "WHATSAPP_PENDING" {
		t.Errorf("status: got %q, want WHATSAPP_PENDING", res.Order.Status)
	}
	if res.Order.Channel != "whatsapp" {
		t.Errorf("channel: got %q, want whatsapp", res.Order.Channel)
	}
	if !strings.HasPrefix(res.Link, "https://wa.me/") {
		t.Errorf("link: got %q, want wa.me prefix", res.Link)
	}
	if !strings.Contains(res.Message, "Batik Shirt") {
		t.Errorf("message missing item name: %q", res.Message)
	}
}

func getProduct(t *testing.T, id string) productResponse {
	t.Helper()

	resp := doGet(t, "/api/products/"+id)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %s: expected 200, got %d", id, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp)
}
