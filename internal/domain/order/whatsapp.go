package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/pkg/whatsapp"
)

// WhatsAppRequest holds the input for the manual WhatsApp order path. The
// shipping address is free text: manual orders are often placed for
// destinations the customer never saved.
type WhatsAppRequest struct {
	UserID          string
	Items           []CreateItem
	ShippingAddress string
	Phone           string
	Notes           string
}

// WhatsAppResult bundles the persisted order with the prefilled chat
// message and deep link the storefront shows the customer.
type WhatsAppResult struct {
	Order   *Order
	Message string
	Link    string
}

// CreateWhatsApp places an order fulfilled through a manual WhatsApp
// conversation. It shares cart validation and atomic persistence with
// Create, but records a manual payment method, starts the order in
// WHATSAPP_PENDING, and produces a deep link instead of a gateway session.
// When an item carries a size, the size must exist for the product.
func (s *Service) CreateWhatsApp(ctx context.Context, req WhatsAppRequest, businessPhone string) (*WhatsAppResult, error) {
	items, products, _, err := s.validateCart(ctx, req.UserID, req.Items)
	if err != nil {
		return nil, err
	}

	total := lineTotal(items).Round(2)

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Total:           total,
		Status:          StatusWhatsAppPending,
		Channel:         ChannelWhatsApp,
		WhatsAppPhone:   whatsapp.NormalizePhone(req.Phone),
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           items,
	}
	pay := &payment.Payment{
		ID:      uuid.New().String(),
		OrderID: o.ID,
		Method:  payment.MethodWhatsAppManual,
		Amount:  total,
		Status:  payment.StatusPending,
	}

	if err := s.store.CreateOrder(ctx, o, pay, ""); err != nil {
		return nil, enrichStockError(err, products)
	}

	msg := whatsAppMessage(o)

	s.notifyStaffNewOrder(ctx, o)
	s.checkStock(ctx, o)
	s.publish(ctx, Event{
		Type:    EventCreated,
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
		Total:   o.Total,
		At:      s.now(),
	})

	return &WhatsAppResult{
		Order:   o,
		Message: msg,
		Link:    whatsapp.Link(businessPhone, msg),
	}, nil
}

// whatsAppMessage renders the human-readable order summary sent to the shop:
// itemized lines, total, shipping address and the order reference.
func whatsAppMessage(o *Order) string {
	var b strings.Builder
	b.WriteString("Hello! I would like to place an order:\n\n")
	for _, item := range o.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if item.Size != "" {
			fmt.Fprintf(&b, "- %s (size %s) x%d: %s\n", item.ProductName, item.Size, item.Quantity, line.StringFixed(2))
		} else {
			fmt.Fprintf(&b, "- %s x%d: %s\n", item.ProductName, item.Quantity, line.StringFixed(2))
		}
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", o.Total.StringFixed(2))
	if o.ShippingAddress != "" {
		fmt.Fprintf(&b, "Ship to: %s\n", o.ShippingAddress)
	}
	if o.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", o.Notes)
	}
	fmt.Fprintf(&b, "\nOrder ref: %s", o.ID)
	return b.String()
}
