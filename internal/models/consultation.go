package models

import "gorm.io/gorm"

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Consultation is a farmer's request for advice. The farmer is fixed at
// creation; the expert slot stays empty until an expert takes the request.
type Consultation struct {
	gorm.Model

	PaysanID    uint   `gorm:"not null;index"`
	ExpertID    *uint  `gorm:"index"`
	Sujet       string `gorm:"size:200;not null"`
	Description string `gorm:"not null"`
	Status      string `gorm:"size:20;not null;default:pending"`

	Paysan User  `gorm:"foreignKey:PaysanID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Expert *User `gorm:"foreignKey:ExpertID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
