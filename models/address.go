package models

import "time"

// Address is an entry in the user's address book. Orders copy the receiver
// fields out of it at creation time, they never reference it.
type Address struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"index;not null" json:"-"`
	ReceiverName  string    `gorm:"size:100;not null" json:"receiver_name"`
	ReceiverPhone string    `gorm:"size:30;not null" json:"receiver_phone"`
	Province      string    `gorm:"size:100" json:"province"`
	City          string    `gorm:"size:100" json:"city"`
	District      string    `gorm:"size:100" json:"district"`
	DetailAddress string    `gorm:"size:500;not null" json:"detail_address"`
	PostalCode    string    `gorm:"size:20" json:"postal_code"`
	IsDefault     bool      `gorm:"default:false" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
