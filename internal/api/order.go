package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/order"
	"github.com/kawanestudio/storefront/internal/domain/payment"
)

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Size      string `json:"size"`
	DealID    int64  `json:"dealId"`
}

type createOrderRequest struct {
	UserID        string             `json:"userId" binding:"required"`
	AddressID     string             `json:"addressId" binding:"required"`
	Items         []orderItemRequest `json:"items" binding:"required"`
	PromoCode     string             `json:"promoCode"`
	Total         *decimal.Decimal   `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
}

type orderItemResponse struct {
	ProductID          string          `json:"productId"`
	ProductName        string          `json:"productName"`
	Quantity           int             `json:"quantity"`
	Size               string          `json:"size,omitempty"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	DealID             int64           `json:"dealId,omitempty"`
	DealTitle          string          `json:"dealTitle,omitempty"`
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	DiscountPercentage int             `json:"discountPercentage"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	AddressID       string              `json:"addressId,omitempty"`
	Total           decimal.Decimal     `json:"total"`
	Status          order.Status        `json:"status"`
	Channel         order.Channel       `json:"channel"`
	PromoCode       string              `json:"promoCode,omitempty"`
	WhatsAppPhone   string              `json:"whatsappPhone,omitempty"`
	ShippingAddress string              `json:"shippingAddress,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       string              `json:"createdAt,omitempty"`
}

type paymentResponse struct {
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Status      payment.Status  `json:"status"`
	Token       string          `json:"token,omitempty"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	res := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		AddressID:       o.AddressID,
		Total:           o.Total,
		Status:          o.Status,
		Channel:         o.Channel,
		PromoCode:       o.PromoCode,
		WhatsAppPhone:   o.WhatsAppPhone,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Items:           make([]orderItemResponse, len(o.Items)),
	}
	if !o.CreatedAt.IsZero() {
		res.CreatedAt = o.CreatedAt.UTC().Format(time.RFC3339)
	}
	for i, item := range o.Items {
		res.Items[i] = orderItemResponse{
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			Quantity:           item.Quantity,
			Size:               item.Size,
			UnitPrice:          item.UnitPrice,
			OriginalPrice:      item.OriginalPrice,
			DealID:             item.DealID,
			DealTitle:          item.DealTitle,
			DiscountAmount:     item.DiscountAmount,
			DiscountPercentage: item.DiscountPercentage,
		}
	}
	return res
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		Method:      p.Method,
		Amount:      p.Amount,
		Status:      p.Status,
		Token:       p.Token,
		RedirectURL: p.RedirectURL,
	}
}

func toCreateItems(items []orderItemRequest) []order.CreateItem {
	out := make([]order.CreateItem, len(items))
	for i, item := range items {
		out[i] = order.CreateItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			DealID:    item.DealID,
		}
	}
	return out
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.orders.Create(c.Request.Context(), order.CreateRequest{
		UserID:        req.UserID,
		Items:         toCreateItems(req.Items),
		AddressID:     req.AddressID,
		PromoCode:     req.PromoCode,
		DeclaredTotal: req.Total,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":   toOrderResponse(res.Order),
		"payment": toPaymentResponse(res.Payment),
	})
}

func (h *Handler) getOrder(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, errorJSON("bad_request", "userId query parameter is required"))
		return
	}

	o, err := h.orders.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type cancelOrderRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) cancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	o, err := h.orders.Cancel(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status order.Status `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type whatsAppOrderRequest struct {
	UserID          string             `json:"userId" binding:"required"`
	Items           []orderItemRequest `json:"items" binding:"required"`
	ShippingAddress string             `json:"shippingAddress"`
	Phone           string             `json:"phone" binding:"required"`
	Notes           string             `json:"notes"`
}

func (h *Handler) createWhatsAppOrder(c *gin.Context) {
	var req whatsAppOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.orders.CreateWhatsApp(c.Request.Context(), order.WhatsAppRequest{
		UserID:          req.UserID,
		Items:           toCreateItems(req.Items),
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Notes:           req.Notes,
	}, h.businessPhone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":   toOrderResponse(res.Order),
		"message": res.Message,
		"link":    res.Link,
	})
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) listNotifications(c *gin.Context) {
	notes, err := h.notes.ListForUser(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res := make([]notificationResponse, len(notes))
	for i, n := range notes {
		res[i] = notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": res})
}
