//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[productListResponse](t, resp)
	if len(list.Products) != 5 {
		t.Fatalf("products: got %d, want 5", len(list.Products))
	}
}

func TestGetProduct_WithSizes(t *testing.T) {
	p := getProduct(t, "batik-shirt")

	if p.Name != "Batik Shirt" {
		t.Errorf("name: got %q, want Batik Shirt", p.Name)
	}
	if len(p.Sizes) != 3 {
		t.Errorf("sizes: got %d, want 3", len(p.Sizes))
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/no-such-product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPricing_PercentageDeal(t *testing.T) {
	resp := doGet(t, "/api/products/tote-premium/pricing")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	q := decodeJSON[quoteResponse](t, resp)
	if q.DiscountedPrice != "16" {
		t.Errorf("discounted: got %q, want 16", q.DiscountedPrice)
	}
	if q.DiscountPercentage != 20 {
		t.Errorf("percentage: got %d, want 20", q.DiscountPercentage)
	}
	if q.DealID == 0 {
		t.Error("deal id missing")
	}
}

func TestPricing_FlashSale(t *testing.T) {
	resp := doGet(t, "/api/products/flash-mug/pricing")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	q := decodeJSON[quoteResponse](t, resp)
	if q.DiscountedPrice != "15" {
		t.Errorf("discounted: got %q, want 15", q.DiscountedPrice)
	}
	if !q.IsFlashSale {
		t.Error("expected flash sale flag")
	}
}

func TestPricing_NoDeal(t *testing.T) {
	resp := doGet(t, "/api/products/tote-classic/pricing")
	defer resp.Body.Close()

	q := decodeJSON[quoteResponse](t, resp)
	if q.DiscountedPrice != q.OriginalPrice {
		t.Errorf("no deal: discounted %q != original %q", q.DiscountedPrice, q.OriginalPrice)
	}
}

func TestBulkPricing(t *testing.T) {
	resp := doPost(t, "/api/pricing/bulk", map[string]any{
		"productIds": []string{"tote-classic", "tote-premium", "flash-mug"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[struct {
		Quotes []quoteResponse `json:"quotes"`
	}](t, resp)
	if len(body.Quotes) != 3 {
		t.Fatalf("quotes: got %d, want 3", len(body.Quotes))
	}
}
