package models

import "gorm.io/gorm"

// Paysan is the farmer-side profile, materialized on first access rather
// than at registration.
type Paysan struct {
	gorm.Model

	UserID      uint   `gorm:"uniqueIndex;not null"`
	Region      string `gorm:"size:100"`
	TypeCulture string `gorm:"size:150"`
	Superficie  float64 // hectares
	Experience  int     // years of farming

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
