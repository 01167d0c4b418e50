package models

import "gorm.io/gorm"

// Message is immutable once created; sender and receiver are always the two
// parties of the referenced consultation.
type Message struct {
	gorm.Model

	SenderID       uint   `gorm:"not null;index"`
	ReceiverID     uint   `gorm:"not null;index"`
	ConsultationID uint   `gorm:"not null;index"`
	Content        string `gorm:"not null"`

	Sender       User         `gorm:"foreignKey:SenderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Receiver     User         `gorm:"foreignKey:ReceiverID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Consultation Consultation `gorm:"foreignKey:ConsultationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
