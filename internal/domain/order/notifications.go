package order

import "fmt"

// statusNotification maps a committed status transition to the customer
// notification it produces. Statuses without an entry (CHECKOUT, internal
// states) produce none.
func statusNotification(s Status, orderID string) (title, body string, ok bool) {
	switch s {
	case StatusPending:
		return "🕐 Order Received",
			fmt.Sprintf("Order %s is awaiting payment.", orderID), true
	case StatusPaid:
		return "✅ Payment Confirmed",
			fmt.Sprintf("Payment for order %s has been received. We are preparing your items.", orderID), true
	case StatusShipped:
		return "📦 Order Shipped",
			fmt.Sprintf("Order %s is on its way. Track your shipment for delivery updates.", orderID), true
	case StatusCompleted:
		return "🎉 Order Completed",
			fmt.Sprintf("Order %s has been delivered. Thank you for shopping with us!", orderID), true
	case StatusCancelled:
		return "❌ Order Cancelled",
			fmt.Sprintf("Order %s has been cancelled and stock has been released.", orderID), true
	case StatusWhatsAppConfirmed:
		return "✅ Order Confirmed",
			fmt.Sprintf("Order %s has been confirmed via WhatsApp.", orderID), true
	default:
		return "", "", false
	}
}
