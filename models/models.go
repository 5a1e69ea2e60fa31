package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a marketplace client. Admins are users with IsAdmin set.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Phone     string         `json:"phone"`
	IsAdmin   bool           `json:"is_admin" gorm:"default:false"`
	IsBlocked bool           `json:"is_blocked" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Kitchen is a tenant: one storefront on the marketplace with an assigned cook.
type Kitchen struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name" gorm:"not null"`
	CookID    uint           `json:"cook_id"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Cook prepares orders for a kitchen and earns into a cook wallet.
type Cook struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name" gorm:"not null"`
	Email     string         `json:"email" gorm:"uniqueIndex"`
	KitchenID uint           `json:"kitchen_id" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
