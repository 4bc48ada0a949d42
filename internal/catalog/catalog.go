package catalog

import (
	"errors"

	"github.com/emberleaf/storefront/internal/domain"
)

var ErrNotFound = errors.New("catalog item not found")

// Sort orders accepted by the list operations.
const (
	SortDefault   = "default"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

// DefaultPerPage fills the storefront's 3x3 listing grid.
const DefaultPerPage = 9

// Cigar is a catalog entry from the cigar listing. Price is in the base
// currency.
type Cigar struct {
	ID          int64          `json:"-"`
	Ref         domain.ItemRef `json:"id"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Category    string         `json:"category"`
	Origin      string         `json:"origin"`
	Strength    string         `json:"strength"`
	Length      float64        `json:"length"`
	RingGauge   int            `json:"ringGauge"`
	Rating      *float64       `json:"rating,omitempty"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
}

// CartLine builds the cart representation of the cigar with quantity unset.
func (c *Cigar) CartLine() domain.CartLine {
	origin, strength := c.Origin, c.Strength
	return domain.CartLine{
		Ref:         c.Ref,
		Name:        c.Name,
		Price:       c.Price,
		Category:    c.Category,
		Description: c.Description,
		Image:       c.Image,
		Rating:      c.Rating,
		Origin:      &origin,
		Strength:    &strength,
	}
}

// Accessory is a catalog entry from the accessories listing.
type Accessory struct {
	ID          int64          `json:"-"`
	Ref         domain.ItemRef `json:"id"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
}

func (a *Accessory) CartLine() domain.CartLine {
	return domain.CartLine{
		Ref:         a.Ref,
		Name:        a.Name,
		Price:       a.Price,
		Category:    a.Category,
		Description: a.Description,
		Image:       a.Image,
	}
}

// CigarFilter narrows and orders the cigar listing. Zero values mean "all".
type CigarFilter struct {
	Search   string
	Category string
	Origin   string
	Strength string
	Sort     string
	Page     int
	PerPage  int
}

// AccessoryFilter narrows and orders the accessories listing.
type AccessoryFilter struct {
	Category string
	Sort     string
	Page     int
	PerPage  int
}

// CigarPage is one page of the filtered cigar listing.
type CigarPage struct {
	Items      []Cigar `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

// AccessoryPage is one page of the filtered accessories listing.
type AccessoryPage struct {
	Items      []Accessory `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalPages int         `json:"totalPages"`
}
