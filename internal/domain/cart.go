package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxItemQuantity is the per-line quantity cap. Adds that would push a
	// line past this are rejected outright rather than clamped, so the
	// caller can tell the user exactly what happened.
	MaxItemQuantity = 10

	// CartRetention is how long a persisted cart stays valid after its last
	// mutation. Older carts are treated as absent and cleared on load.
	CartRetention = 7 * 24 * time.Hour
)

// ItemKind identifies which catalog an item reference belongs to. Cigar and
// accessory IDs are small integers that both start at 1, so references are
// always namespaced by kind.
type ItemKind string

const (
	KindCigar     ItemKind = "cigar"
	KindAccessory ItemKind = "accessory"
)

// ItemRef is a catalog-namespaced item reference of the form "cigar:3" or
// "accessory:1". It is the cart and wishlist line key.
type ItemRef string

func NewItemRef(kind ItemKind, id int64) ItemRef {
	return ItemRef(fmt.Sprintf("%s:%d", kind, id))
}

// Parse splits the reference into kind and catalog ID.
func (r ItemRef) Parse() (ItemKind, int64, error) {
	kind, rawID, ok := strings.Cut(string(r), ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed item ref %q", r)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("malformed item ref %q", r)
	}
	switch ItemKind(kind) {
	case KindCigar, KindAccessory:
		return ItemKind(kind), id, nil
	}
	return "", 0, fmt.Errorf("unknown catalog in item ref %q", r)
}

// CartLine is one row in the cart: a catalog entry plus a quantity. Price is
// denominated in the base currency and immutable once added. Rating, origin
// and strength only exist for some catalogs and stay nil otherwise.
type CartLine struct {
	Ref         ItemRef  `bson:"ref" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Price       float64  `bson:"price" json:"price"`
	Quantity    int      `bson:"quantity" json:"quantity"`
	Category    string   `bson:"category" json:"category"`
	Description string   `bson:"description" json:"description"`
	Image       string   `bson:"image" json:"image"`
	Rating      *float64 `bson:"rating,omitempty" json:"rating,omitempty"`
	Origin      *string  `bson:"origin,omitempty" json:"origin,omitempty"`
	Strength    *string  `bson:"strength,omitempty" json:"strength,omitempty"`
}

// CartState is the persisted unit: lines in insertion order plus totals
// derived from them. TotalPrice is expressed in Currency, the display
// currency active when the totals were computed.
type CartState struct {
	SessionID   string     `bson:"session_id" json:"-"`
	Items       []CartLine `bson:"items" json:"items"`
	TotalItems  int        `bson:"total_items" json:"totalItems"`
	TotalPrice  float64    `bson:"total_price" json:"totalPrice"`
	Currency    string     `bson:"currency" json:"currency"`
	LastUpdated time.Time  `bson:"last_updated" json:"lastUpdated"`
}

// Clone copies the state deeply enough for independent mutation: the items
// slice is fresh, the immutable per-line pointer fields stay shared.
func (s *CartState) Clone() *CartState {
	c := *s
	c.Items = append([]CartLine(nil), s.Items...)
	return &c
}

// Line returns the line with the given ref and its index, or nil and -1.
func (s *CartState) Line(ref ItemRef) (*CartLine, int) {
	for i := range s.Items {
		if s.Items[i].Ref == ref {
			return &s.Items[i], i
		}
	}
	return nil, -1
}

// Expired reports whether the state is older than the retention window.
func (s *CartState) Expired(now time.Time) bool {
	return now.Sub(s.LastUpdated) > CartRetention
}
