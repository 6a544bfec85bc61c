package model

import "time"

// Investment is a purchased instance of a Product. ProductName and
// DailyReturn are snapshots taken at purchase time so the record survives
// catalog edits. LastCollectionDate is the watermark up to which daily
// income has been credited; it never passes ExpiryDate.
type Investment struct {
	ID                 int64     `json:"id"`
	UserID             int       `json:"user_id"`
	ProductID          int       `json:"product_id"`
	ProductName        string    `json:"product_name"`
	Amount             int64     `json:"amount"`
	DailyReturn        int64     `json:"daily_return"`
	PurchaseDate       time.Time `json:"purchase_date"`
	ExpiryDate         time.Time `json:"expiry_date"`
	LastCollectionDate time.Time `json:"last_collection_date"`
	CreatedAt          time.Time `json:"created_at"`
}

// Active reports whether the investment still accrues at the given time.
func (i *Investment) Active(now time.Time) bool {
	return now.Before(i.ExpiryDate)
}

// BuyProductRequest is used to purchase a product
type BuyProductRequest struct {
	ProductID int `json:"product_id" binding:"required"`
}
