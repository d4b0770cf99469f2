// Package model holds the core domain types shared by the sync engine,
// the pricing engine, and the presentation layer. All money values are
// decimals; conversion from wire floats happens in the codec.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuEntry is a single catalog item. Name is unique within a catalog.
// Entries injected client-side (day specials) carry a synthesized ID.
type MenuEntry struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// OrderLine is one billed position of an order. Lines with Quantity == 0
// are never persisted.
type OrderLine struct {
	ID        string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal is Quantity × UnitPrice.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the authoritative remote record as this engine sees it.
// ID is empty until the remote store accepts the order; id assignment is
// the draft → pending transition marker. Status only ever moves forward.
type Order struct {
	ID            string
	CreatedAt     time.Time
	Lines         []OrderLine
	TotalPrice    decimal.Decimal
	Status        string
	OrderType     string
	ClientName    string
	ClientPhone   string
	ClientAddress string
	OwnerID       string
}

// ClientFields groups the editable customer attributes of an order.
type ClientFields struct {
	Name    string
	Phone   string
	Address string
}
