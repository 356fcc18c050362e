package services

import (
	"context"

	"polizas-backend/models"

	"github.com/google/uuid"
)

// NoticeStore is the persistence boundary of the notice lifecycle. Reads of
// a single notice or of the display list return the notice with its policy,
// client, company and notes (with authors) attached.
type NoticeStore interface {
	GetNotice(ctx context.Context, id uuid.UUID) (models.PolicyNotice, error)
	CreateNotice(ctx context.Context, n *models.PolicyNotice) error
	UpdateNoticeStatus(ctx context.Context, id uuid.UUID, status models.NoticeStatus, notifiedBy string) error
	// MarkPaid sets status pagado and the installment count unless the
	// notice is already pagado. It reports whether the row changed.
	MarkPaid(ctx context.Context, id uuid.UUID, installments int) (bool, error)
	DeleteNotice(ctx context.Context, id uuid.UUID) error

	// FindSuccessor returns the notice created by rolling over paidID, or nil.
	FindSuccessor(ctx context.Context, paidID uuid.UUID) (*models.PolicyNotice, error)
	// FindNextPending returns the earliest avisar notice of the policy due
	// strictly after the given date, or nil.
	FindNextPending(ctx context.Context, policyID uuid.UUID, after models.Date) (*models.PolicyNotice, error)

	// ListVisible returns avisado and pagado notices plus avisar notices due
	// on or before horizon, ascending by due date.
	ListVisible(ctx context.Context, horizon models.Date) ([]models.PolicyNotice, error)
	// ResetPaidDueOnOrBefore moves pagado notices due on or before limit back
	// to avisar and returns them.
	ResetPaidDueOnOrBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error)
	// DeletePaidDueBefore removes pagado notices due strictly before limit
	// and returns them.
	DeletePaidDueBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error)

	CreateNote(ctx context.Context, note *models.NoticeNote) error
}
