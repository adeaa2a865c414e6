package domain

import "time"

// CartView is the read model returned to callers after every
// cart-affecting operation. Once a cart exists it is never nil, even
// when logically empty.
type CartView struct {
	ID              string         `json:"id"`
	IsGuest         bool           `json:"isGuest"`
	GuestToken      string         `json:"cartToken,omitempty"`
	ChannelID       string         `json:"channelId"`
	Currency        string         `json:"currency"`
	Items           []CartItemView `json:"items"`
	ItemCount       int            `json:"itemCount"`
	CouponCode      string         `json:"couponCode,omitempty"`
	SubtotalCents   int64          `json:"subtotalCents"`
	DiscountCents   int64          `json:"discountCents"`
	TaxCents        int64          `json:"taxCents"`
	GrandTotalCents int64          `json:"grandTotalCents"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type CartItemView struct {
	ID             string            `json:"id"`
	ProductID      string            `json:"productId"`
	ItemType       string            `json:"itemType"`
	Quantity       int               `json:"quantity"`
	Options        map[string]string `json:"options,omitempty"`
	UnitPriceCents int64             `json:"unitPriceCents"`
	TotalCents     int64             `json:"totalCents"`
	IsStockable    bool              `json:"isStockable"`
}

// NewCartView projects a cart into its read model. guestToken is only
// echoed on operations that minted or resolved one.
func NewCartView(cart Cart, guestToken string) *CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemView{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ItemType:       it.ItemType,
			Quantity:       it.Quantity,
			Options:        it.Options,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     it.TotalCents,
			IsStockable:    it.IsStockable,
		})
	}
	coupon := ""
	if cart.CouponCode != nil {
		coupon = *cart.CouponCode
	}
	return &CartView{
		ID:              cart.ID,
		IsGuest:         cart.IsGuest(),
		GuestToken:      guestToken,
		ChannelID:       cart.ChannelID,
		Currency:        cart.Currency,
		Items:           items,
		ItemCount:       cart.ItemCount(),
		CouponCode:      coupon,
		SubtotalCents:   cart.Totals.SubtotalCents,
		DiscountCents:   cart.Totals.DiscountCents,
		TaxCents:        cart.Totals.TaxCents,
		GrandTotalCents: cart.Totals.GrandTotalCents,
		CreatedAt:       cart.CreatedAt,
		UpdatedAt:       cart.UpdatedAt,
	}
}
