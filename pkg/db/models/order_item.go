package models

import "github.com/google/uuid"

// OrderItem is one product line of an order, owned by a single seller.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SellerID       uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Prepared       bool      `gorm:"column:prepared;not null"`
}

// TotalCents is the line total before commission.
func (i OrderItem) TotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
