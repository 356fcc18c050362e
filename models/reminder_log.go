// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderLog records every outreach message sent (or attempted) for a notice.
type ReminderLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NoticeID     uuid.UUID `gorm:"type:uuid;index;not null" json:"notice_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	Channel      string    `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	SentBy       string    `gorm:"type:varchar(100)" json:"sent_by"`
	SentAt       time.Time `json:"sent_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&Client{},
		&Policy{},
		&PolicyNotice{},
		&NoticeNote{},
		&ReminderLog{},
	}
}
