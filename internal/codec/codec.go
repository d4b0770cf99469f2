// Package codec translates between the core model and the stored wire
// format. The shared collections predate this service, so the stored
// field names are the legacy ones: order dates live in "timestamp",
// quantities in "portions", unit prices in "price", and menu entries use
// the Spanish "Nombre"/"Precio". Nothing outside this package knows
// those names.
package codec

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guadalajara-pos/api/internal/docstore"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/model"
)

// Legacy wire values for the order type enum.
const (
	wireDineIn   = "Restaurante"
	wireDelivery = "Domicilio"
	wireTakeaway = "Para llevar"
)

type orderDoc struct {
	Timestamp     string    `json:"timestamp"`
	OrderType     string    `json:"orderType"`
	ClientName    string    `json:"clientName"`
	ClientPhone   string    `json:"clientPhone"`
	ClientAddress string    `json:"clientAddress"`
	Items         []itemDoc `json:"items"`
	TotalPrice    float64   `json:"totalPrice"`
	Status        string    `json:"status"`
	Platform      string    `json:"platform"`
	UserID        string    `json:"userId"`
}

type itemDoc struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Portions int     `json:"portions"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

type menuDoc struct {
	Name  string  `json:"Nombre"`
	Price float64 `json:"Precio"`
}

// SafeDecimal converts a wire float to a decimal, clamping non-finite
// values to zero so they contribute nothing to downstream arithmetic.
func SafeDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// --- Decoding ---

// DecodeOrder parses one stored order document.
func DecodeOrder(doc docstore.Document) (model.Order, error) {
	var d orderDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return model.Order{}, fmt.Errorf("decode order %s: %w", doc.ID, err)
	}

	createdAt, err := time.Parse(time.RFC3339, d.Timestamp)
	if err != nil {
		return model.Order{}, fmt.Errorf("decode order %s: bad timestamp %q: %w", doc.ID, d.Timestamp, err)
	}

	lines := make([]model.OrderLine, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Portions < 0 {
			return model.Order{}, fmt.Errorf("decode order %s: negative portions", doc.ID)
		}
		lines = append(lines, model.OrderLine{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Portions,
			UnitPrice: SafeDecimal(it.Price),
		})
	}

	return model.Order{
		ID:            doc.ID,
		CreatedAt:     createdAt,
		Lines:         lines,
		TotalPrice:    SafeDecimal(d.TotalPrice),
		Status:        d.Status,
		OrderType:     orderTypeFromWire(d.OrderType),
		ClientName:    d.ClientName,
		ClientPhone:   d.ClientPhone,
		ClientAddress: d.ClientAddress,
		OwnerID:       d.UserID,
	}, nil
}

// DecodeOrders converts a snapshot, dropping documents that fail to
// decode. The rest of the snapshot still applies.
func DecodeOrders(docs []docstore.Document) []model.Order {
	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := DecodeOrder(doc)
		if err != nil {
			log.Printf("WARN: dropping undecodable order document: %v", err)
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

// DecodeMenuEntry parses one stored catalog document.
func DecodeMenuEntry(doc docstore.Document) (model.MenuEntry, error) {
	var d menuDoc
	if err := json.Unmarshal(doc.Data, &d); err != nil {
		return model.MenuEntry{}, fmt.Errorf("decode menu entry %s: %w", doc.ID, err)
	}
	if d.Name == "" {
		return model.MenuEntry{}, fmt.Errorf("decode menu entry %s: missing Nombre", doc.ID)
	}
	price := SafeDecimal(d.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}
	return model.MenuEntry{ID: doc.ID, Name: d.Name, UnitPrice: price}, nil
}

// DecodeMenu converts a catalog snapshot with per-document drop.
func DecodeMenu(docs []docstore.Document) []model.MenuEntry {
	entries := make([]model.MenuEntry, 0, len(docs))
	for _, doc := range docs {
		e, err := DecodeMenuEntry(doc)
		if err != nil {
			log.Printf("WARN: dropping undecodable menu document: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// --- Encoding ---

// EncodeNewOrder serializes a draft for AddDocument. Every persisted line
// gets a fresh wire id, matching how the legacy clients write items.
func EncodeNewOrder(o model.Order, now time.Time) ([]byte, error) {
	d := orderDoc{
		Timestamp:     now.UTC().Format(time.RFC3339),
		OrderType:     orderTypeToWire(o.OrderType),
		ClientName:    o.ClientName,
		ClientPhone:   o.ClientPhone,
		ClientAddress: o.ClientAddress,
		Items:         encodeItems(o.Lines),
		TotalPrice:    o.TotalPrice.InexactFloat64(),
		Status:        enum.OrderStatusPending,
		Platform:      enum.Platform,
		UserID:        o.OwnerID,
	}
	return json.Marshal(d)
}

// EncodeLineUpdate builds the partial document for an order edit: items,
// recomputed total, client fields, and the update timestamp. No other
// stored fields are named, so the merge leaves them intact.
func EncodeLineUpdate(lines []model.OrderLine, total decimal.Decimal, client model.ClientFields, now time.Time) ([]byte, error) {
	return json.Marshal(map[string]any{
		"items":         encodeItems(lines),
		"totalPrice":    total.InexactFloat64(),
		"clientName":    client.Name,
		"clientPhone":   client.Phone,
		"clientAddress": client.Address,
		"updatedAt":     now.UTC().Format(time.RFC3339),
	})
}

// EncodeCompletion builds the partial document for the one-way
// pending → completed transition.
func EncodeCompletion(now time.Time) ([]byte, error) {
	return json.Marshal(map[string]any{
		"status":      enum.OrderStatusCompleted,
		"completedAt": now.UTC().Format(time.RFC3339),
	})
}

// EncodeMenuEntry serializes a catalog entry (seeding path).
func EncodeMenuEntry(e model.MenuEntry) ([]byte, error) {
	return json.Marshal(menuDoc{Name: e.Name, Price: e.UnitPrice.InexactFloat64()})
}

func encodeItems(lines []model.OrderLine) []itemDoc {
	items := make([]itemDoc, 0, len(lines))
	for _, l := range lines {
		items = append(items, itemDoc{
			ID:       uuid.NewString(),
			Name:     l.Name,
			Portions: l.Quantity,
			Price:    l.UnitPrice.InexactFloat64(),
			Total:    l.LineTotal().InexactFloat64(),
		})
	}
	return items
}

func orderTypeFromWire(s string) string {
	switch s {
	case wireDineIn:
		return enum.OrderTypeDineIn
	case wireDelivery:
		return enum.OrderTypeDelivery
	case wireTakeaway:
		return enum.OrderTypeTakeaway
	}
	return s
}

func orderTypeToWire(s string) string {
	switch s {
	case enum.OrderTypeDineIn:
		return wireDineIn
	case enum.OrderTypeDelivery:
		return wireDelivery
	case enum.OrderTypeTakeaway:
		return wireTakeaway
	}
	return s
}
