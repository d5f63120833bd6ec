package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kawanestudio/storefront/internal/domain/deal"
	"github.com/kawanestudio/storefront/internal/domain/inventory"
	"github.com/kawanestudio/storefront/internal/domain/notification"
	"github.com/kawanestudio/storefront/internal/domain/payment"
	"github.com/kawanestudio/storefront/internal/domain/product"
	"github.com/kawanestudio/storefront/internal/domain/promo"
	"github.com/kawanestudio/storefront/internal/domain/user"
)

// CreateItem is one requested cart line. DealID, when non-zero, asserts the
// deal the cart price was based on; it is re-validated at commit time.
type CreateItem struct {
	ProductID string
	Quantity  int
	Size      string
	DealID    int64
}

// CreateRequest holds the input for placing an order through the gateway
// checkout. DeclaredTotal, when set, is checked against the computed total
// and rejected on mismatch; it is never trusted as the amount to charge.
type CreateRequest struct {
	UserID        string
	Items         []CreateItem
	AddressID     string
	PromoCode     string
	DeclaredTotal *decimal.Decimal
	PaymentMethod string
}

// CreateResult holds the output of a successfully placed order.
type CreateResult struct {
	Order   *Order
	Payment *payment.Payment
	Quotes  []deal.Quote
}

// Service encapsulates the order lifecycle: creation, status transitions and
// cancellation. Post-commit side effects (gateway session, notifications,
// low-stock monitoring, events) are best-effort and never fail the call.
type Service struct {
	users    user.Repository
	products product.Repository
	deals    deal.Repository
	resolver *deal.Resolver
	promos   promo.Validator
	store    Store
	payments payment.Repository
	gateway  payment.Gateway
	notes    notification.Repository
	monitor  *inventory.Monitor
	events   EventPublisher
	lg       *zap.Logger
	now      func() time.Time
}

// Deps bundles the service's collaborators. gateway, monitor and events may
// be nil; the corresponding post-commit step is then skipped.
type Deps struct {
	Users    user.Repository
	Products product.Repository
	Deals    deal.Repository
	Resolver *deal.Resolver
	Promos   promo.Validator
	Store    Store
	Payments payment.Repository
	Gateway  payment.Gateway
	Notes    notification.Repository
	Monitor  *inventory.Monitor
	Events   EventPublisher
}

// NewService creates an order Service.
func NewService(d Deps, lg *zap.Logger) *Service {
	return &Service{
		users:    d.Users,
		products: d.Products,
		deals:    d.Deals,
		resolver: d.Resolver,
		promos:   d.Promos,
		store:    d.Store,
		payments: d.Payments,
		gateway:  d.Gateway,
		notes:    d.Notes,
		monitor:  d.Monitor,
		events:   d.Events,
		lg:       lg,
		now:      time.Now,
	}
}

// Create validates the cart, freezes per-item pricing, and persists the
// order atomically with its stock decrements, inventory logs and payment
// row. All preconditions are checked before any write; a failed guard inside
// the transaction rolls everything back.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	items, products, quotes, err := s.validateCart(ctx, req.UserID, req.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetAddress(ctx, req.AddressID, req.UserID); err != nil {
		return nil, err
	}

	total := lineTotal(items)

	promoCode := ""
	if req.PromoCode != "" {
		rule, err := s.promos.Validate(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		reduction, err := promo.Apply(rule, total)
		if err != nil {
			return nil, err
		}
		total = total.Sub(reduction)
		if total.IsNegative() {
			total = decimal.Zero
		}
		promoCode = rule.Code
	}
	total = total.Round(2)

	// The client may assert the total it showed the customer; any
	// disagreement with the authoritative computed value fails loudly.
	if req.DeclaredTotal != nil && !req.DeclaredTotal.Equal(total) {
		return nil, &AmountMismatchError{Declared: *req.DeclaredTotal, Computed: total}
	}

	method := req.PaymentMethod
	if method == "" {
		method = payment.MethodGateway
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		AddressID: req.AddressID,
		Total:     total,
		Status:    StatusPending,
		Channel:   ChannelOnline,
		PromoCode: promoCode,
		Items:     items,
	}
	pay := &payment.Payment{
		ID:      uuid.New().String(),
		OrderID: o.ID,
		Method:  method,
		Amount:  total,
		Status:  payment.StatusPending,
	}

	if err := s.store.CreateOrder(ctx, o, pay, promoCode); err != nil {
		return nil, enrichStockError(err, products)
	}

	s.afterCreate(ctx, o, pay)

	return &CreateResult{Order: o, Payment: pay, Quotes: quotes}, nil
}

// validateCart checks the user, quantities, product existence, per-size
// stock and deal freshness, and returns the frozen order items alongside the
// fetched products and quotes. Read-only.
func (s *Service) validateCart(ctx context.Context, userID string, reqItems []CreateItem) ([]Item, map[string]*product.Product, []deal.Quote, error) {
	if len(reqItems) == 0 {
		return nil, nil, nil, ErrEmptyItems
	}

	ids := make([]string, len(reqItems))
	for i, item := range reqItems {
		if item.Quantity <= 0 {
			return nil, nil, nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, nil, nil, err
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "get products")
	}
	products := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		products[fetched[i].ID] = &fetched[i]
	}
	for _, item := range reqItems {
		if _, ok := products[item.ProductID]; !ok {
			return nil, nil, nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
	}

	// One batched pricing lookup for the whole cart.
	quotes, err := s.resolver.QuoteProducts(ctx, ids)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "resolve prices")
	}
	quoteByID := make(map[string]*deal.Quote, len(quotes))
	for i := range quotes {
		quoteByID[quotes[i].ProductID] = &quotes[i]
	}

	items := make([]Item, len(reqItems))
	for i, item := range reqItems {
		p := products[item.ProductID]
		q := quoteByID[item.ProductID]

		// A deal can expire between cart-add and checkout; the cart's
		// asserted deal must still back the resolved price.
		if item.DealID != 0 && q.DealID != item.DealID {
			return nil, nil, nil, &DealExpiredError{ProductID: item.ProductID, DealID: item.DealID}
		}

		if item.Size != "" {
			if _, ok := p.SizeStockFor(item.Size); !ok {
				return nil, nil, nil, &SizeNotFoundError{ProductID: item.ProductID, Size: item.Size}
			}
		}
		if available := p.Available(item.Size); available < item.Quantity {
			return nil, nil, nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Size:        item.Size,
				Available:   available,
				Requested:   item.Quantity,
			}
		}

		items[i] = Item{
			ProductID:          p.ID,
			ProductName:        p.Name,
			Quantity:           item.Quantity,
			Size:               item.Size,
			UnitPrice:          q.DiscountedPrice,
			OriginalPrice:      q.OriginalPrice,
			DealID:             q.DealID,
			DealTitle:          q.DealTitle,
			DiscountAmount:     q.DiscountAmount,
			DiscountPercentage: q.DiscountPercentage,
		}
	}

	return items, products, quotes, nil
}

// UpdateStatus transitions an order to the given status. Transitioning to
// CANCELLED restores stock; every other target is a plain status update. A
// no-op transition is rejected, and losing a race against a concurrent
// transition surfaces as ErrStatusConflict.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrInvalidStatus, "%q", next)
	}

	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return nil, ErrSameStatus
	}

	prev := o.Status
	if err := s.store.UpdateStatus(ctx, o, next); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = next

	s.afterStatusChange(ctx, o, prev)

	return o, nil
}

// Cancel is the customer-initiated cancellation: ownership-scoped and
// rejected for orders already cancelled, completed or shipped.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusCancelled:
		return nil, ErrCancelCancelled
	case StatusCompleted:
		return nil, ErrCancelCompleted
	case StatusShipped:
		return nil, ErrCancelShipped
	}

	prev := o.Status
	if err := s.store.UpdateStatus(ctx, o, StatusCancelled); err != nil {
		return nil, errors.Wrap(err, "cancel order")
	}
	o.Status = StatusCancelled

	s.afterStatusChange(ctx, o, prev)

	return o, nil
}

// Get returns an order scoped to its owner.
func (s *Service) Get(ctx context.Context, orderID, userID string) (*Order, error) {
	return s.store.GetForUser(ctx, orderID, userID)
}

// afterCreate runs the best-effort post-commit sequence for a new gateway
// order: payment session, low-stock monitoring, staff notification, event.
func (s *Service) afterCreate(ctx context.Context, o *Order, pay *payment.Payment) {
	if s.gateway != nil && pay.Method == payment.MethodGateway {
		session, err := s.gateway.CreateSession(ctx, o.ID, pay.Amount)
		if err != nil {
			s.lg.Warn("gateway session failed", zap.String("order_id", o.ID), zap.Error(err))
		} else {
			pay.Token = session.Token
			pay.RedirectURL = session.RedirectURL
			if err := s.payments.AttachSession(ctx, o.ID, session.Token, session.RedirectURL); err != nil {
				s.lg.Warn("attach payment session failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}
	}

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
}

// afterStatusChange notifies the customer and publishes an event after a
// committed transition. Cancellation also re-checks stock levels since the
// restore may clear an earlier low-stock state.
func (s *Service) afterStatusChange(ctx context.Context, o *Order, prev Status) {
	if title, body, ok := statusNotification(o.Status, o.ID); ok {
		n := &notification.Notification{UserID: o.UserID, Title: title, Body: body}
		if err := s.notes.Create(ctx, n); err != nil {
			s.lg.Warn("status notification failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	typ := EventStatusChanged
	if o.Status == StatusCancelled {
		typ = EventCancelled
	}
	s.publish(ctx, Event{
		Type:    typ,
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
		Total:   o.Total,
		At:      s.now(),
	})

	s.lg.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(o.Status)))
}

func (s *Service) notifyStaffNewOrder(ctx context.Context, o *Order) {
	n := &notification.Notification{
		Title: "🛒 New order",
		Body:  fmt.Sprintf("Order %s placed for %s", o.ID, o.Total.StringFixed(2)),
	}
	if err := s.notes.Create(ctx, n); err != nil {
		s.lg.Warn("staff notification failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) checkStock(ctx context.Context, o *Order) {
	if s.monitor == nil {
		return
	}
	ids := make([]string, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}
	s.monitor.CheckProducts(ctx, ids)
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.lg.Warn("event publish failed", zap.String("order_id", e.OrderID), zap.Error(err))
	}
}

// lineTotal sums quantity-weighted unit prices.
func lineTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(item.UnitPrice.Mul(qty))
	}
	return total
}

// enrichStockError fills product names into guard failures surfaced by the
// store, which only knows ids.
func enrichStockError(err error, products map[string]*product.Product) error {
	var ise *InsufficientStockError
	if errors.As(err, &ise) && ise.ProductName == "" {
		if p, ok := products[ise.ProductID]; ok {
			ise.ProductName = p.Name
		}
	}
	return err
}
