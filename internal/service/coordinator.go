package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guadalajara-pos/api/internal/codec"
	"github.com/guadalajara-pos/api/internal/docstore"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/model"
	"github.com/guadalajara-pos/api/internal/pricing"
)

// Identity exposes the authenticated user, used to stamp ownership on
// submitted orders. The coordinator never authenticates anyone itself.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// StatusLookup reports the last snapshot-confirmed status of an order.
// Satisfied by *LifecycleStore.
type StatusLookup interface {
	OrderStatus(id string) (string, bool)
}

// Draft is a locally composed order before submission. SurchargePrice is
// the operator-entered string from the capture form.
type Draft struct {
	Lines          []model.OrderLine
	SurchargePrice string
	OrderType      string
	Client         model.ClientFields
}

// Coordinator translates local edits into remote partial mutations. It
// never mutates local state: results appear in the lifecycle store only
// once the remote store's next snapshot confirms them. No operation
// retries; failures surface to the caller as typed errors.
type Coordinator struct {
	writer   docstore.Writer
	orders   StatusLookup
	identity Identity
	now      func() time.Time
}

func NewCoordinator(writer docstore.Writer, orders StatusLookup, identity Identity) *Coordinator {
	return &Coordinator{
		writer:   writer,
		orders:   orders,
		identity: identity,
		now:      time.Now,
	}
}

// Submit writes a new pending order and returns its remote id. The total
// is always recomputed here; any caller-supplied total is ignored.
func (c *Coordinator) Submit(ctx context.Context, d Draft) (string, error) {
	lines := pricing.BillableLines(d.Lines)
	surcharge := pricing.ParseSurcharge(d.SurchargePrice)
	if sl, ok := pricing.SurchargeLine(surcharge); ok {
		lines = append(lines, sl)
	}
	if len(lines) == 0 {
		return "", ErrEmptyOrder
	}

	owner, _ := c.identity.CurrentUserID(ctx)
	order := model.Order{
		Lines:         lines,
		TotalPrice:    pricing.Total(d.Lines, surcharge),
		OrderType:     d.OrderType,
		ClientName:    d.Client.Name,
		ClientPhone:   d.Client.Phone,
		ClientAddress: d.Client.Address,
		OwnerID:       owner,
	}

	data, err := codec.EncodeNewOrder(order, c.now())
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	id, err := c.writer.AddDocument(ctx, enum.CollectionOrders, data)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	return id, nil
}

// UpdateLines replaces an order's lines and client fields via a partial
// remote update. Allowed only while the order is known as pending; the
// total is recomputed over the quantity-filtered lines.
func (c *Coordinator) UpdateLines(ctx context.Context, orderID string, lines []model.OrderLine, client model.ClientFields) error {
	if orderID == "" {
		return ErrNotFound
	}
	status, ok := c.orders.OrderStatus(orderID)
	if !ok {
		return ErrNotFound
	}
	if status != enum.OrderStatusPending {
		return ErrOrderNotPending
	}

	billable := pricing.BillableLines(lines)
	partial, err := codec.EncodeLineUpdate(billable, pricing.Subtotal(lines), client, c.now())
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	if err := c.writer.UpdateDocument(ctx, enum.CollectionOrders, orderID, partial); err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return ErrNotFound
		}
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	return nil
}

// Complete performs the one-way pending → completed transition. It does
// not pre-check remote state: repeating the call writes the same fields
// again, which is a remote no-op, so completion is idempotent.
func (c *Coordinator) Complete(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrNotFound
	}
	partial, err := codec.EncodeCompletion(c.now())
	if err != nil {
		return fmt.Errorf("encode completion: %w", err)
	}
	if err := c.writer.UpdateDocument(ctx, enum.CollectionOrders, orderID, partial); err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return ErrNotFound
		}
		return fmt.Errorf("complete order %s: %w", orderID, err)
	}
	return nil
}
