package domain

// WishlistItem has the shape of a catalog entry without quantity semantics.
type WishlistItem struct {
	Ref         ItemRef `bson:"ref" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Category    string  `bson:"category" json:"category"`
	Description string  `bson:"description" json:"description"`
	Image       string  `bson:"image" json:"image"`
}

// Wishlist is an independently persisted list of items. Unlike the cart it
// has no quantity, no cap and no retention window.
type Wishlist struct {
	SessionID string         `bson:"session_id" json:"-"`
	Items     []WishlistItem `bson:"items" json:"items"`
}

// Contains reports whether the wishlist already holds the given reference.
func (w *Wishlist) Contains(ref ItemRef) bool {
	for _, it := range w.Items {
		if it.Ref == ref {
			return true
		}
	}
	return false
}
