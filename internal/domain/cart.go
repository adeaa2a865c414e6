package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Cart is the single aggregate behind both cart mutation and checkout:
// checkout state (addresses, methods) lives on the cart itself.
type Cart struct {
	ID              string
	CustomerID      *string
	ChannelID       string
	IsActive        bool
	Currency        string
	CouponCode      *string
	Email           *string
	BillingAddress  *Address
	ShippingAddress *Address
	ShippingMethod  *string
	PaymentMethod   *string
	Totals          Totals
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []CartItem
}

// IsGuest reports whether the cart is owned by a guest token rather
// than a customer. Ownership never changes in place; the merge engine
// moves items to a different cart instead.
func (c Cart) IsGuest() bool { return c.CustomerID == nil }

// HasStockableItems reports whether any line requires physical shipment.
func (c Cart) HasStockableItems() bool {
	for _, it := range c.Items {
		if it.IsStockable {
			return true
		}
	}
	return false
}

// ItemCount is the sum of line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

type CartItem struct {
	ID             string
	CartID         string
	ProductID      string
	ItemType       string
	Quantity       int
	Options        map[string]string
	UnitPriceCents int64
	TotalCents     int64
	IsStockable    bool
	CreatedAt      time.Time
}

// MergeKey canonicalizes (product, item type, options) so duplicate
// lines collapse by quantity addition instead of duplicating rows.
func (i CartItem) MergeKey() string {
	return i.ProductID + "|" + i.ItemType + "|" + CanonicalOptions(i.Options)
}

// CanonicalOptions renders an options map as JSON with sorted keys so
// equal selections always produce the same key.
func CanonicalOptions(options map[string]string) string {
	if len(options) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(options))
	for _, k := range keys {
		ordered[k] = options[k]
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Totals are derived values; this core never sets them directly, the
// pricing calculator does.
type Totals struct {
	SubtotalCents   int64
	DiscountCents   int64
	TaxCents        int64
	GrandTotalCents int64
}

type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// IsEmpty reports whether no meaningful field is set.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// ShippingRate is a candidate shipping method quote for a cart.
type ShippingRate struct {
	MethodCode  string
	Carrier     string
	Description string
	AmountCents int64
	Currency    string
}
