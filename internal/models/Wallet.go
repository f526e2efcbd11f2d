package models

import (
	"gorm.io/gorm"
)

// Wallet holds a passenger's prepaid balance.
// Balance arithmetic is naive add/subtract, there is no ledger.
type Wallet struct {
	gorm.Model
	UserID  uint    `json:"user_id" gorm:"uniqueIndex"`
	Balance float64 `json:"balance" gorm:"default:0"`
}
