// Package api exposes the storefront over HTTP using gin.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
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

// Handler holds the HTTP-facing dependencies.
type Handler struct {
	products      product.Repository
	resolver      *deal.Resolver
	orders        *order.Service
	logs          inventory.LogRepository
	notes         notification.Repository
	businessPhone string
	lg            *zap.Logger
}

// Config holds handler settings that are not collaborators.
type Config struct {
	// BusinessPhone is the shop's WhatsApp number used in wa.me links.
	BusinessPhone string
}

// NewHandler creates a Handler.
func NewHandler(
	cfg Config,
	products product.Repository,
	resolver *deal.Resolver,
	orders *order.Service,
	logs inventory.LogRepository,
	notes notification.Repository,
	lg *zap.Logger,
) *Handler {
	return &Handler{
		products:      products,
		resolver:      resolver,
		orders:        orders,
		logs:          logs,
		notes:         notes,
		businessPhone: cfg.BusinessPhone,
		lg:            lg,
	}
}

// RegisterRoutes mounts the API under /api. checkoutLimit, when non-nil, is
// applied to the order-creation routes only.
func (h *Handler) RegisterRoutes(r gin.IRouter, checkoutLimit gin.HandlerFunc) {
	api := r.Group("/api")

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/products/:id/pricing", h.getPricing)
	api.GET("/products/:id/inventory", h.listInventoryLogs)
	api.POST("/pricing/bulk", h.bulkPricing)

	orders := api.Group("/orders")
	if checkoutLimit != nil {
		orders.POST("", checkoutLimit, h.createOrder)
		orders.POST("/whatsapp", checkoutLimit, h.createWhatsAppOrder)
	} else {
		orders.POST("", h.createOrder)
		orders.POST("/whatsapp", h.createWhatsAppOrder)
	}
	orders.GET("/:id", h.getOrder)
	orders.POST("/:id/cancel", h.cancelOrder)
	orders.PATCH("/:id/status", h.updateOrderStatus)

	api.GET("/users/:id/notifications", h.listNotifications)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(code, message string) gin.H {
	return gin.H{"error": apiError{Code: code, Message: message}}
}

// respondError maps domain errors onto HTTP statuses with a single
// {code, message} error shape.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		notFoundProduct *order.ProductNotFoundError
		invalidQty      *order.InvalidQuantityError
		insufficient    *order.InsufficientStockError
		sizeNotFound    *order.SizeNotFoundError
		dealExpired     *order.DealExpiredError
		amountMismatch  *order.AmountMismatchError
	)

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, user.ErrAddressNotFound),
		errors.Is(err, deal.ErrNotFound),
		errors.Is(err, payment.ErrNotFound):
		c.JSON(http.StatusNotFound, errorJSON("not_found", err.Error()))

	case errors.As(err, &notFoundProduct):
		c.JSON(http.StatusNotFound, errorJSON("product_not_found", err.Error()))

	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &invalidQty),
		errors.As(err, &sizeNotFound),
		errors.Is(err, order.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, errorJSON("invalid_request", err.Error()))

	case errors.Is(err, promo.ErrInvalidCode),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrExhausted):
		c.JSON(http.StatusUnprocessableEntity, errorJSON("invalid_promo_code", err.Error()))

	case errors.As(err, &amountMismatch):
		c.JSON(http.StatusUnprocessableEntity, errorJSON("amount_mismatch", err.Error()))

	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, errorJSON("insufficient_stock", err.Error()))

	case errors.As(err, &dealExpired):
		c.JSON(http.StatusConflict, errorJSON("deal_expired", err.Error()))

	case errors.Is(err, order.ErrSameStatus),
		errors.Is(err, order.ErrStatusConflict),
		errors.Is(err, order.ErrCancelCompleted),
		errors.Is(err, order.ErrCancelShipped),
		errors.Is(err, order.ErrCancelCancelled):
		c.JSON(http.StatusConflict, errorJSON("invalid_transition", err.Error()))

	default:
		h.lg.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorJSON("internal", "internal server error"))
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorJSON("bad_request", err.Error()))
}
