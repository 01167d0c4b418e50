package models

import "gorm.io/gorm"

type Expert struct {
	gorm.Model

	UserID      uint   `gorm:"uniqueIndex;not null"`
	Domaine     string `gorm:"size:200"`
	Experience  int
	Description string

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
