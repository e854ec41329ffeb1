package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/netstore-backend/internal/cart"
	"github.com/angelmondragon/netstore-backend/internal/discounts"
	"github.com/angelmondragon/netstore-backend/internal/shippingmethods"
	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/db/models"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/metrics"
	"github.com/angelmondragon/netstore-backend/pkg/outbox"
	"github.com/angelmondragon/netstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/netstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order placement and the order lifecycle.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (pagination.Page[OrderDTO], error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, input CancelInput) (*OrderDTO, error)
	AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[OrderDTO], error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
}

// ServiceParams carries the collaborators of the orders service.
type ServiceParams struct {
	Repo      Repository
	Carts     cart.CartRepository
	Discounts *discounts.Repository
	Tx        txRunner
	Outbox    outbox.Emitter
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	carts     cart.CartRepository
	discounts *discounts.Repository
	tx        txRunner
	outbox    outbox.Emitter
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService validates the collaborators. Metrics and Logger are optional.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      p.Repo,
		carts:     p.Carts,
		discounts: p.Discounts,
		tx:        p.Tx,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
		logg:      p.Logger,
		now:       now,
	}, nil
}

var errCartEmpty = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")

// Place converts the user's cart into an order. Every step runs in one
// transaction; a failure anywhere leaves cart, stock and discount usage as
// they were.
//
// Stock and discount caps are checked against rows read without locks, and the
// order number comes from counting the day's orders. Concurrent placements can
// therefore oversell or collide on the number; a collision surfaces as a
// conflict and the client retries.
func (s *service) Place(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ShippingAddressID == uuid.Nil || input.PaymentMethodID == uuid.Nil || input.ShippingMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address, payment method and shipping method are required")
	}
	billingID := input.ShippingAddressID
	if input.BillingAddressID != nil && *input.BillingAddressID != uuid.Nil {
		billingID = *input.BillingAddressID
	}

	started := time.Now()
	now := s.now()
	var placed *models.ShopOrder

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		discountRepo := s.discounts.WithTx(tx)

		shoppingCart, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCartEmpty
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(shoppingCart.Items) == 0 {
			return errCartEmpty
		}

		for _, addressID := range uniqueIDs(input.ShippingAddressID, billingID) {
			ok, err := orders.AddressBelongsTo(ctx, userID, addressID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check address")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
					WithDetails(map[string]any{"address_id": addressID})
			}
		}
		if _, err := orders.FindPaymentMethod(ctx, userID, input.PaymentMethodID); err != nil {
			return notFoundOr(err, "payment method not found")
		}
		method, err := orders.FindShippingMethod(ctx, input.ShippingMethodID)
		if err != nil {
			return notFoundOr(err, "shipping method not found")
		}
		if !method.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping method is not available")
		}

		lines, subtotal, weight, err := priceCart(shoppingCart.Items)
		if err != nil {
			return err
		}

		var discount *models.Discount
		discountAmount := decimal.Zero
		if input.DiscountCode != nil && strings.TrimSpace(*input.DiscountCode) != "" {
			discount, err = discountRepo.FindByCode(ctx, *input.DiscountCode)
			if err != nil {
				return notFoundOr(err, "discount code not found")
			}
			if err := discounts.CheckUsable(*discount, subtotal, now); err != nil {
				return err
			}
			discountAmount = discounts.Amount(*discount, subtotal)
		}

		shippingFee := shippingmethods.Fee(*method, weight)
		total := subtotal.Sub(discountAmount).Add(shippingFee)

		number, err := nextOrderNumber(ctx, orders, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order number")
		}

		order := &models.ShopOrder{
			OrderNumber:       number,
			UserID:            userID,
			ShippingAddressID: input.ShippingAddressID,
			BillingAddressID:  billingID,
			PaymentMethodID:   input.PaymentMethodID,
			ShippingMethodID:  method.ID,
			Subtotal:          subtotal,
			DiscountAmount:    discountAmount,
			ShippingFee:       shippingFee,
			TotalAmount:       total,
			Status:            enums.OrderStatusPending,
			Note:              trimmed(input.Note),
			CreatedAt:         now,
		}
		if discount != nil {
			order.DiscountID = &discount.ID
			order.DiscountCode = &discount.Code
		}
		if err := orders.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, retry the request").
					WithDetails(map[string]any{"order_number": number})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := orders.CreateItems(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		for _, line := range lines {
			if err := orders.DecrementStock(ctx, line.ProductItemID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}
		if discount != nil {
			if err := discountRepo.IncrementUsage(ctx, discount.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment discount usage")
			}
		}

		if err := orders.AppendHistory(ctx, &models.OrderStatusEntry{
			OrderID:   order.ID,
			ToStatus:  enums.OrderStatusPending,
			ChangedBy: &userID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status history")
		}

		if err := carts.ClearLines(ctx, shoppingCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		order.Items = lines
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(userID, enums.RoleCustomer),
			Data:          orderCreatedPayload(order, now),
			OccurredAt:    now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
		}

		placed = order
		return nil
	})

	s.observePlacement(ctx, err, time.Since(started))
	if err != nil {
		return nil, err
	}
	s.metrics.AddRevenue(placed.TotalAmount.InexactFloat64())
	s.metrics.IncStatus(string(enums.OrderStatusPending))

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     placed.ID.String(),
			"order_number": placed.OrderNumber,
			"total_amount": placed.TotalAmount.String(),
		})
		s.logg.Info(logCtx, "order placed")
	}
	return s.detail(ctx, placed.ID)
}

// priceCart checks every line against current stock and active flags and
// snapshots the price. All failing lines are reported together.
func priceCart(items []models.CartItem) ([]models.OrderItem, decimal.Decimal, decimal.Decimal, error) {
	subtotal := decimal.Zero
	weight := decimal.Zero
	lines := make([]models.OrderItem, 0, len(items))
	var problems []map[string]any

	for _, item := range items {
		pi := item.ProductItem
		status := cart.LineStatus(pi, item.Quantity)
		if status != enums.CartItemStatusOK {
			problem := map[string]any{
				"product_item_id": item.ProductItemID,
				"requested":       item.Quantity,
				"status":          status,
			}
			if pi != nil {
				problem["sku"] = pi.SKU
				problem["available"] = pi.StockQuantity
			}
			problems = append(problems, problem)
			continue
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := pi.Price.Mul(qty)
		subtotal = subtotal.Add(lineTotal)
		weight = weight.Add(pi.WeightKg.Mul(qty))

		name := pi.Product.Name
		if pi.Name != nil && strings.TrimSpace(*pi.Name) != "" {
			name = name + " - " + strings.TrimSpace(*pi.Name)
		}
		lines = append(lines, models.OrderItem{
			ProductItemID: pi.ID,
			ProductID:     pi.ProductID,
			ProductName:   name,
			SKU:           pi.SKU,
			UnitPrice:     pi.Price,
			Quantity:      item.Quantity,
			LineTotal:     lineTotal,
		})
	}
	if len(problems) > 0 {
		return nil, decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "some cart items cannot be ordered").
			WithDetails(map[string]any{"items": problems})
	}
	return lines, subtotal.Round(2), weight, nil
}

// nextOrderNumber is ORD + YYYYMMDD + the day's order count plus one, zero padded.
func nextOrderNumber(ctx context.Context, orders Repository, now time.Time) (string, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := orders.CountOrdersBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(day, count+1), nil
}

// FormatOrderNumber renders the human-facing order number for the given day and sequence.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD%s%04d", day.Format("20060102"), seq)
}

func (s *service) observePlacement(ctx context.Context, err error, took time.Duration) {
	if err == nil {
		s.metrics.ObservePlacement(metrics.OutcomePlaced, took)
		return
	}
	outcome := metrics.OutcomeFailed
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeConflict, pkgerrors.CodeStateConflict:
			outcome = metrics.OutcomeRejected
		}
	}
	s.metrics.ObservePlacement(outcome, took)
	if outcome == metrics.OutcomeFailed && s.logg != nil {
		s.logg.Error(ctx, "order placement failed", err)
	}
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (pagination.Page[OrderDTO], error) {
	if userID == uuid.Nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.list(ctx, params, ListFilters{UserID: &userID, Status: status})
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[OrderDTO], error) {
	return s.list(ctx, params, filters)
}

func (s *service) list(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[OrderDTO], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *filters.Status)
	}
	rows, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dto := FromModel(row)
		dto.Items = nil
		dtos = append(dtos, dto)
	}
	return pagination.NewPage(dtos, total, params), nil
}

// GetMine hides other users' orders behind a not-found.
func (s *service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	return s.detail(ctx, orderID)
}

func (s *service) detail(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	dto := FromModel(*order)
	return &dto, nil
}

// Cancel lets a customer withdraw an order that is still pending. Stock and
// discount usage are given back.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, input CancelInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		order, err := orders.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}
		return s.transition(ctx, tx, order, enums.OrderStatusCancelled, trimmed(input.Reason),
			Actor{UserID: userID, Role: enums.RoleCustomer}, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatus(string(enums.OrderStatusCancelled))
	return s.detail(ctx, orderID)
}

// UpdateStatus applies an admin transition along the allowed status graph.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}
	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, input.Status).
				WithDetails(map[string]any{"from": order.Status, "to": input.Status})
		}
		return s.transition(ctx, tx, order, input.Status, trimmed(input.Note), actor, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatus(string(input.Status))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"status":   input.Status,
		})
		s.logg.Info(logCtx, "order status updated")
	}
	return s.detail(ctx, orderID)
}

// transition moves order to next inside tx, records history and emits the
// matching events. Cancellation releases stock and discount usage.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.ShopOrder, next enums.OrderStatus, note *string, actor Actor, now time.Time) error {
	orders := s.repo.WithTx(tx)
	from := order.Status

	ok, err := orders.TransitionStatus(ctx, order.ID, from, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	changedBy := actor.UserID
	if err := orders.AppendHistory(ctx, &models.OrderStatusEntry{
		OrderID:    order.ID,
		FromStatus: &from,
		ToStatus:   next,
		Note:       note,
		ChangedBy:  &changedBy,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status history")
	}

	if next == enums.OrderStatusCancelled {
		for _, item := range order.Items {
			if err := orders.RestoreStock(ctx, item.ProductItemID, item.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		if order.DiscountID != nil {
			if err := s.discounts.WithTx(tx).DecrementUsage(ctx, *order.DiscountID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release discount usage")
			}
		}
	}

	events := []outbox.DomainEvent{{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         buildActor(actor.UserID, actor.Role),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			FromStatus:  from,
			ToStatus:    next,
			ChangedBy:   &changedBy,
			Note:        note,
			ChangedAt:   now,
		},
		OccurredAt: now,
	}}
	if next == enums.OrderStatusCancelled {
		reason := ""
		if note != nil {
			reason = *note
		}
		events = append(events, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor.UserID, actor.Role),
			Data: payloads.OrderCanceledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				TotalAmount: order.TotalAmount,
				CanceledBy:  actor.UserID,
				Reason:      reason,
				CanceledAt:  now,
			},
			OccurredAt: now,
		})
	}
	for _, event := range events {
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit "+string(event.EventType))
		}
	}
	return nil
}

func orderCreatedPayload(order *models.ShopOrder, now time.Time) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID:     item.ProductID,
			ProductItemID: item.ProductItemID,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     item.LineTotal,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		UserID:           order.UserID,
		Subtotal:         order.Subtotal,
		DiscountAmount:   order.DiscountAmount,
		ShippingFee:      order.ShippingFee,
		TotalAmount:      order.TotalAmount,
		DiscountCode:     order.DiscountCode,
		ShippingMethodID: order.ShippingMethodID,
		Items:            lines,
		CreatedAt:        now,
	}
}

func buildActor(userID uuid.UUID, role enums.Role) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: string(role)}
}

func uniqueIDs(ids ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
