package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoticeStatus is the lifecycle state of a payment notice.
type NoticeStatus string

const (
	StatusAvisar  NoticeStatus = "avisar"  // needs outreach
	StatusAvisado NoticeStatus = "avisado" // client notified, awaiting payment
	StatusPagado  NoticeStatus = "pagado"  // payment recorded for this cycle
)

func (s NoticeStatus) Valid() bool {
	switch s {
	case StatusAvisar, StatusAvisado, StatusPagado:
		return true
	}
	return false
}

// PolicyNotice is one payment-due event of a policy.
type PolicyNotice struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PolicyID         uuid.UUID    `gorm:"type:uuid;index;not null" json:"policy_id"`
	DueDate          Date         `gorm:"type:date;index;not null" json:"due_date"`
	Status           NoticeStatus `gorm:"type:varchar(10);index;not null;default:'avisar'" json:"status"`
	PaidInstallments int          `gorm:"not null;default:0" json:"paid_installments"`
	NotifiedBy       string       `gorm:"type:varchar(100)" json:"notified_by,omitempty"`

	// PreviousNoticeID links a rollover notice to the paid notice that
	// created it.
	PreviousNoticeID *uuid.UUID `gorm:"type:uuid;index" json:"previous_notice_id,omitempty"`

	Policy *Policy      `gorm:"foreignKey:PolicyID" json:"policy,omitempty"`
	Notes  []NoticeNote `gorm:"foreignKey:NoticeID;constraint:OnDelete:CASCADE" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *PolicyNotice) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}

// NoticeNote is an append-only staff annotation on a notice.
type NoticeNote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NoticeID  uuid.UUID `gorm:"type:uuid;index;not null" json:"notice_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Note      string    `gorm:"type:text;not null" json:"note"`
	CreatedAt time.Time `json:"created_at"`

	Author     *User  `gorm:"foreignKey:UserID" json:"-"`
	AuthorName string `gorm:"-" json:"author_name"`
}

func (n *NoticeNote) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}

// AfterFind fills AuthorName from the preloaded author.
func (n *NoticeNote) AfterFind(tx *gorm.DB) (err error) {
	if n.Author != nil {
		n.AuthorName = n.Author.ResolvedDisplayName()
	}
	return
}
