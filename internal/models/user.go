package models

import "gorm.io/gorm"

const (
	RolePaysan = "paysan"
	RoleExpert = "expert"
)

type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	FirstName    string
	LastName     string
	Role         string `gorm:"not null;default:paysan"`
	Phone        string
	Avatar       string
	PasswordHash string `gorm:"not null"`
	IsStaff      bool   `gorm:"not null;default:false"`

	// Relationships
	PaysanProfile       *Paysan        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ExpertProfile       *Expert        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	PaysanConsultations []Consultation `gorm:"foreignKey:PaysanID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ExpertConsultations []Consultation `gorm:"foreignKey:ExpertID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	SentMessages        []Message      `gorm:"foreignKey:SenderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ReceivedMessages    []Message      `gorm:"foreignKey:ReceiverID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
