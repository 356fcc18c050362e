package services

import (
	"context"
	"errors"

	"polizas-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormNoticeStore struct {
	db *gorm.DB
}

func NewGormNoticeStore(db *gorm.DB) *GormNoticeStore {
	return &GormNoticeStore{db: db}
}

func (s *GormNoticeStore) withDetails(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Policy.Client").
		Preload("Policy.Company").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Notes.Author")
}

func (s *GormNoticeStore) GetNotice(ctx context.Context, id uuid.UUID) (models.PolicyNotice, error) {
	var notice models.PolicyNotice
	if err := s.withDetails(ctx).First(&notice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PolicyNotice{}, ErrNoticeNotFound
		}
		return models.PolicyNotice{}, err
	}
	return notice, nil
}

func (s *GormNoticeStore) CreateNotice(ctx context.Context, n *models.PolicyNotice) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

func (s *GormNoticeStore) UpdateNoticeStatus(ctx context.Context, id uuid.UUID, status models.NoticeStatus, notifiedBy string) error {
	result := s.db.WithContext(ctx).Model(&models.PolicyNotice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"notified_by": notifiedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoticeNotFound
	}
	return nil
}

func (s *GormNoticeStore) MarkPaid(ctx context.Context, id uuid.UUID, installments int) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.PolicyNotice{}).
		Where("id = ? AND status <> ?", id, models.StatusPagado).
		Updates(map[string]interface{}{
			"status":            models.StatusPagado,
			"paid_installments": installments,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormNoticeStore) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.PolicyNotice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoticeNotFound
	}
	return nil
}

func (s *GormNoticeStore) FindSuccessor(ctx context.Context, paidID uuid.UUID) (*models.PolicyNotice, error) {
	return s.first(s.db.WithContext(ctx).
		Where("previous_notice_id = ?", paidID).
		Order("due_date ASC"))
}

func (s *GormNoticeStore) FindNextPending(ctx context.Context, policyID uuid.UUID, after models.Date) (*models.PolicyNotice, error) {
	return s.first(s.db.WithContext(ctx).
		Where("policy_id = ? AND due_date > ? AND status = ?", policyID, after, models.StatusAvisar).
		Order("due_date ASC"))
}

func (s *GormNoticeStore) first(query *gorm.DB) (*models.PolicyNotice, error) {
	var notice models.PolicyNotice
	if err := query.First(&notice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notice, nil
}

func (s *GormNoticeStore) ListVisible(ctx context.Context, horizon models.Date) ([]models.PolicyNotice, error) {
	var notices []models.PolicyNotice
	err := s.withDetails(ctx).
		Where("status IN ? OR (status = ? AND due_date <= ?)",
			[]models.NoticeStatus{models.StatusAvisado, models.StatusPagado},
			models.StatusAvisar, horizon).
		Order("due_date ASC").
		Find(&notices).Error
	return notices, err
}

func (s *GormNoticeStore) ResetPaidDueOnOrBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error) {
	var notices []models.PolicyNotice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND due_date <= ?", models.StatusPagado, limit).
			Order("due_date ASC").
			Find(&notices).Error; err != nil {
			return err
		}
		if len(notices) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(notices))
		for _, n := range notices {
			ids = append(ids, n.ID)
		}
		return tx.Model(&models.PolicyNotice{}).
			Where("id IN ?", ids).
			Update("status", models.StatusAvisar).Error
	})
	if err != nil {
		return nil, err
	}
	for i := range notices {
		notices[i].Status = models.StatusAvisar
	}
	return notices, nil
}

func (s *GormNoticeStore) DeletePaidDueBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error) {
	var deleted []models.PolicyNotice
	err := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("status = ? AND due_date < ?", models.StatusPagado, limit).
		Delete(&deleted).Error
	return deleted, err
}

func (s *GormNoticeStore) CreateNote(ctx context.Context, note *models.NoticeNote) error {
	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(note).Error; err != nil {
		return err
	}
	return db.Preload("Author").First(note, "id = ?", note.ID).Error
}
