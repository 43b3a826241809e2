package models

import "time"

type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    string     `gorm:"uniqueIndex;not null"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem holds one (cart, product) pair; adds for an existing product
// merge into the row instead of inserting a second one.
type CartItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CartID    uint    `gorm:"index;uniqueIndex:idx_cart_product;not null" json:"-"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Selected  bool    `gorm:"default:true" json:"selected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
