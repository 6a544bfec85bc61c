package model

import "time"

const (
	CategoryStarter    = "Starter"
	CategoryPro        = "Pro"
	CategoryEnterprise = "Enterprise"
)

// Product is an immutable catalog entry owned by the admin. Price and
// daily income are in paise.
type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	DailyIncome  int64     `json:"daily_income"`
	ValidityDays int       `json:"validity_days"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateProductRequest is used by admins to add a catalog entry
type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Price        int64  `json:"price" binding:"required,gt=0"`
	DailyIncome  int64  `json:"daily_income" binding:"required,gt=0"`
	ValidityDays int    `json:"validity_days" binding:"required,gt=0"`
	Image        string `json:"image"`
	Category     string `json:"category" binding:"required,oneof=Starter Pro Enterprise"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name,omitempty"` // Pointers to allow partial updates
	Price        *int64  `json:"price,omitempty" binding:"omitempty,gt=0"`
	DailyIncome  *int64  `json:"daily_income,omitempty" binding:"omitempty,gt=0"`
	ValidityDays *int    `json:"validity_days,omitempty" binding:"omitempty,gt=0"`
	Image        *string `json:"image,omitempty"`
	Category     *string `json:"category,omitempty" binding:"omitempty,oneof=Starter Pro Enterprise"`
}
