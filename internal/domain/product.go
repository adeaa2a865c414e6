package domain

import "time"

// Item types understood by the cart merge key.
const (
	ItemTypeSimple       = "simple"
	ItemTypeConfigurable = "configurable"
	ItemTypeDownloadable = "downloadable"
)

type Product struct {
	ID          string
	SKU         string
	Name        string
	PriceCents  int64
	Currency    string
	ItemType    string
	IsActive    bool
	IsStockable bool
	CreatedAt   time.Time
}
