package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/product"
)

type sizeStockResponse struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type productResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	SKU            string              `json:"sku,omitempty"`
	Description    string              `json:"description,omitempty"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice *decimal.Decimal    `json:"compareAtPrice,omitempty"`
	Stock          int                 `json:"stock"`
	Category       string              `json:"category,omitempty"`
	Sizes          []sizeStockResponse `json:"sizes,omitempty"`
}

func toProductResponse(p *product.Product) productResponse {
	res := productResponse{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Stock:          p.Stock,
		Category:       p.Category,
	}
	for _, s := range p.Sizes {
		res.Sizes = append(res.Sizes, sizeStockResponse{Size: s.Size, Stock: s.Stock})
	}
	return res
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := make([]productResponse, len(products))
	for i := range products {
		res[i] = toProductResponse(&products[i])
	}
	c.JSON(http.StatusOK, gin.H{"products": res})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *Handler) getPricing(c *gin.Context) {
	q, err := h.resolver.QuoteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type bulkPricingRequest struct {
	ProductIDs []string `json:"productIds" binding:"required,min=1"`
}

func (h *Handler) bulkPricing(c *gin.Context) {
	var req bulkPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	quotes, err := h.resolver.QuoteProducts(c.Request.Context(), req.ProductIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

type inventoryLogResponse struct {
	ID        int64  `json:"id"`
	ProductID string `json:"productId"`
	Change    int    `json:"change"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) listInventoryLogs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, errorJSON("bad_request", "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	logs, err := h.logs.ListForProduct(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := make([]inventoryLogResponse, len(logs))
	for i, l := range logs {
		res[i] = inventoryLogResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Change:    l.Change,
			Note:      l.Note,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"logs": res})
}
