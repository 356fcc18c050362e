package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"polizas-backend/models"

	"github.com/google/uuid"
)

// MemoryNoticeStore keeps notices, their policies and note authors in
// memory. It backs the lifecycle tests and the HTTP tests.
type MemoryNoticeStore struct {
	mu       sync.Mutex
	notices  map[uuid.UUID]models.PolicyNotice
	notes    map[uuid.UUID][]models.NoticeNote
	policies map[uuid.UUID]models.Policy
	users    map[uuid.UUID]models.User
}

func NewMemoryNoticeStore() *MemoryNoticeStore {
	return &MemoryNoticeStore{
		notices:  map[uuid.UUID]models.PolicyNotice{},
		notes:    map[uuid.UUID][]models.NoticeNote{},
		policies: map[uuid.UUID]models.Policy{},
		users:    map[uuid.UUID]models.User{},
	}
}

// AddPolicy registers a policy (with its client and company) so that
// notices referencing it come back with nested data.
func (s *MemoryNoticeStore) AddPolicy(p models.Policy) models.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.policies[p.ID] = p
	return p
}

func (s *MemoryNoticeStore) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	return u
}

// All returns every stored notice ascending by due date, without details.
func (s *MemoryNoticeStore) All() []models.PolicyNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PolicyNotice, 0, len(s.notices))
	for _, n := range s.notices {
		out = append(out, n)
	}
	sortByDueDate(out)
	return out
}

func (s *MemoryNoticeStore) GetNotice(ctx context.Context, id uuid.UUID) (models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return models.PolicyNotice{}, ErrNoticeNotFound
	}
	return s.detailed(n), nil
}

func (s *MemoryNoticeStore) CreateNotice(ctx context.Context, n *models.PolicyNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if _, exists := s.notices[n.ID]; exists {
		return ErrDuplicate
	}
	now := time.Now()
	n.CreatedAt, n.UpdatedAt = now, now
	stored := *n
	stored.Policy = nil
	stored.Notes = nil
	s.notices[n.ID] = stored
	return nil
}

func (s *MemoryNoticeStore) UpdateNoticeStatus(ctx context.Context, id uuid.UUID, status models.NoticeStatus, notifiedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return ErrNoticeNotFound
	}
	n.Status = status
	n.NotifiedBy = notifiedBy
	n.UpdatedAt = time.Now()
	s.notices[id] = n
	return nil
}

func (s *MemoryNoticeStore) MarkPaid(ctx context.Context, id uuid.UUID, installments int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok || n.Status == models.StatusPagado {
		return false, nil
	}
	n.Status = models.StatusPagado
	n.PaidInstallments = installments
	n.UpdatedAt = time.Now()
	s.notices[id] = n
	return true, nil
}

func (s *MemoryNoticeStore) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return ErrNoticeNotFound
	}
	delete(s.notices, id)
	delete(s.notes, id)
	return nil
}

func (s *MemoryNoticeStore) FindSuccessor(ctx context.Context, paidID uuid.UUID) (*models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstWhere(func(n models.PolicyNotice) bool {
		return n.PreviousNoticeID != nil && *n.PreviousNoticeID == paidID
	}), nil
}

func (s *MemoryNoticeStore) FindNextPending(ctx context.Context, policyID uuid.UUID, after models.Date) (*models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstWhere(func(n models.PolicyNotice) bool {
		return n.PolicyID == policyID && n.DueDate.After(after) && n.Status == models.StatusAvisar
	}), nil
}

func (s *MemoryNoticeStore) ListVisible(ctx context.Context, horizon models.Date) ([]models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(n models.PolicyNotice) bool {
		switch n.Status {
		case models.StatusAvisado, models.StatusPagado:
			return true
		case models.StatusAvisar:
			return !n.DueDate.After(horizon)
		}
		return false
	})
	for i := range out {
		out[i] = s.detailed(out[i])
	}
	return out, nil
}

func (s *MemoryNoticeStore) ResetPaidDueOnOrBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(n models.PolicyNotice) bool {
		return n.Status == models.StatusPagado && !n.DueDate.After(limit)
	})
	for i := range out {
		out[i].Status = models.StatusAvisar
		s.notices[out[i].ID] = out[i]
	}
	return out, nil
}

func (s *MemoryNoticeStore) DeletePaidDueBefore(ctx context.Context, limit models.Date) ([]models.PolicyNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.filter(func(n models.PolicyNotice) bool {
		return n.Status == models.StatusPagado && n.DueDate.Before(limit)
	})
	for _, n := range out {
		delete(s.notices, n.ID)
		delete(s.notes, n.ID)
	}
	return out, nil
}

func (s *MemoryNoticeStore) CreateNote(ctx context.Context, note *models.NoticeNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[note.NoticeID]; !ok {
		return ErrNoticeNotFound
	}
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	if u, ok := s.users[note.UserID]; ok {
		author := u
		note.Author = &author
		note.AuthorName = u.ResolvedDisplayName()
	}
	s.notes[note.NoticeID] = append(s.notes[note.NoticeID], *note)
	return nil
}

// detailed attaches policy and notes. Callers hold s.mu.
func (s *MemoryNoticeStore) detailed(n models.PolicyNotice) models.PolicyNotice {
	if p, ok := s.policies[n.PolicyID]; ok {
		policy := p
		n.Policy = &policy
	}
	n.Notes = append([]models.NoticeNote(nil), s.notes[n.ID]...)
	return n
}

func (s *MemoryNoticeStore) filter(keep func(models.PolicyNotice) bool) []models.PolicyNotice {
	var out []models.PolicyNotice
	for _, n := range s.notices {
		if keep(n) {
			out = append(out, n)
		}
	}
	sortByDueDate(out)
	return out
}

func (s *MemoryNoticeStore) firstWhere(keep func(models.PolicyNotice) bool) *models.PolicyNotice {
	matches := s.filter(keep)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func sortByDueDate(notices []models.PolicyNotice) {
	sort.SliceStable(notices, func(i, j int) bool {
		if notices[i].DueDate.Equal(notices[j].DueDate) {
			return notices[i].CreatedAt.Before(notices[j].CreatedAt)
		}
		return notices[i].DueDate.Before(notices[j].DueDate)
	})
}
