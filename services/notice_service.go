// services/notice_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"polizas-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultWindowDays is the look-ahead and grace window of the notice rules.
const DefaultWindowDays = 15

const (
	StepDeleteSuccessor = "delete_successor"
	StepCreateNext      = "create_next_notice"
	StepPurgeStale      = "purge_stale"
)

// Urgency buckets a notice by days left until its due date.
const (
	UrgencyOverdue = "vencido"
	UrgencyUrgent  = "urgente"
	UrgencySoon    = "proximo"
	UrgencyOnTime  = "en_plazo"
)

// SecondaryResult is the outcome of a non-critical step that runs after
// the primary change has been stored. A failed secondary step never fails
// the operation; callers decide whether to retry it.
type SecondaryResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Err error `json:"-"`
}

func secondaryOK(step string) *SecondaryResult {
	return &SecondaryResult{Step: step, OK: true}
}

func secondaryFailed(step string, err error) *SecondaryResult {
	return &SecondaryResult{Step: step, Error: err.Error(), Err: err}
}

type StatusResult struct {
	Notice    models.PolicyNotice  `json:"notice"`
	Deleted   *models.PolicyNotice `json:"deleted_successor,omitempty"`
	Secondary *SecondaryResult     `json:"secondary,omitempty"`
}

type PaymentResult struct {
	Notice    models.PolicyNotice  `json:"notice"`
	Next      *models.PolicyNotice `json:"next_notice,omitempty"`
	Secondary *SecondaryResult     `json:"secondary"`
}

// NoticeView is a notice as shown on the board.
type NoticeView struct {
	models.PolicyNotice
	DaysUntilDue int    `json:"days_until_due"`
	Urgency      string `json:"urgency"`
}

type DisplayResult struct {
	Notices   []NoticeView          `json:"notices"`
	Purged    []models.PolicyNotice `json:"purged"`
	Secondary *SecondaryResult      `json:"secondary"`
}

type NoticeService struct {
	store  NoticeStore
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
	window int
}

type NoticeOption func(*NoticeService)

// WithClock replaces the wall clock used for every due-date rule.
func WithClock(now func() time.Time) NoticeOption {
	return func(s *NoticeService) { s.now = now }
}

// WithLocation sets the time zone in which "today" is computed.
func WithLocation(loc *time.Location) NoticeOption {
	return func(s *NoticeService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithWindowDays(days int) NoticeOption {
	return func(s *NoticeService) {
		if days > 0 {
			s.window = days
		}
	}
}

func NewNoticeService(store NoticeStore, logger *zap.Logger, opts ...NoticeOption) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NoticeService{
		store:  store,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
		window: DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NoticeService) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// WindowDays is the look-ahead, in days, used for display and housekeeping.
func (s *NoticeService) WindowDays() int {
	return s.window
}

// CanTransition reports whether UpdateNoticeStatus may move a notice from
// one status to another. Re-applying the current status is allowed. A
// notice becomes pagado only through RecordPayment.
func CanTransition(from, to models.NoticeStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.StatusAvisar:
		return to == models.StatusAvisado
	case models.StatusAvisado:
		// pagado is reached only through RecordPayment
		return to == models.StatusAvisar
	case models.StatusPagado:
		return to == models.StatusAvisado
	}
	return false
}

// UpdateNoticeStatus moves a notice along the state machine and records who
// notified the client. Reverting a paid notice to avisado also deletes the
// notice that its payment rolled over into.
func (s *NoticeService) UpdateNoticeStatus(ctx context.Context, actor *Identity, noticeID uuid.UUID, target models.NoticeStatus) (StatusResult, error) {
	if actor == nil {
		return StatusResult{}, ErrNotAuthenticated
	}
	if !target.Valid() {
		return StatusResult{}, ErrInvalidStatus
	}

	current, err := s.getNotice(ctx, noticeID, "Error al obtener el aviso actual")
	if err != nil {
		return StatusResult{}, err
	}
	if !CanTransition(current.Status, target) {
		return StatusResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	notifiedBy := current.NotifiedBy
	switch target {
	case models.StatusAvisado:
		if current.Status != models.StatusPagado || notifiedBy == "" {
			notifiedBy = actor.DisplayName
		}
	case models.StatusAvisar:
		notifiedBy = ""
	}

	if err := s.store.UpdateNoticeStatus(ctx, noticeID, target, notifiedBy); err != nil {
		if errors.Is(err, ErrNoticeNotFound) {
			return StatusResult{}, err
		}
		return StatusResult{}, storeError("Error al actualizar el estado del aviso", err)
	}

	result := StatusResult{}
	if current.Status == models.StatusPagado && target == models.StatusAvisado {
		result.Deleted, result.Secondary = s.deleteSuccessor(ctx, current)
	}

	current.Status = target
	current.NotifiedBy = notifiedBy
	result.Notice = current

	s.logger.Info("notice status updated",
		zap.String("notice_id", noticeID.String()),
		zap.String("status", string(target)),
		zap.String("actor", actor.DisplayName))
	return result, nil
}

// deleteSuccessor removes the avisar notice created when paid was paid. The
// successor link is tried first; notices created before the link existed
// fall back to the earliest later avisar notice of the same policy.
func (s *NoticeService) deleteSuccessor(ctx context.Context, paid models.PolicyNotice) (*models.PolicyNotice, *SecondaryResult) {
	successor, err := s.store.FindSuccessor(ctx, paid.ID)
	if err == nil && (successor == nil || successor.Status != models.StatusAvisar) {
		successor, err = s.store.FindNextPending(ctx, paid.PolicyID, paid.DueDate)
	}
	if err != nil {
		s.logger.Warn("successor lookup failed", zap.String("notice_id", paid.ID.String()), zap.Error(err))
		return nil, secondaryFailed(StepDeleteSuccessor, err)
	}
	if successor == nil {
		return nil, secondaryOK(StepDeleteSuccessor)
	}
	if err := s.store.DeleteNotice(ctx, successor.ID); err != nil {
		s.logger.Warn("successor delete failed",
			zap.String("notice_id", paid.ID.String()),
			zap.String("successor_id", successor.ID.String()),
			zap.Error(err))
		return nil, secondaryFailed(StepDeleteSuccessor, err)
	}
	return successor, secondaryOK(StepDeleteSuccessor)
}

// RecordPayment marks the notice pagado for the given number of monthly
// installments and schedules the next notice that many months later. The
// payment stands even when the next notice cannot be created; the failure
// is reported in the result's Secondary field.
func (s *NoticeService) RecordPayment(ctx context.Context, actor *Identity, noticeID uuid.UUID, installments int) (PaymentResult, error) {
	if actor == nil {
		return PaymentResult{}, ErrNotAuthenticated
	}
	if installments < 1 {
		return PaymentResult{}, ErrInvalidInstallments
	}

	notice, err := s.getNotice(ctx, noticeID, "Error al obtener el aviso")
	if err != nil {
		return PaymentResult{}, err
	}

	applied, err := s.store.MarkPaid(ctx, noticeID, installments)
	if err != nil {
		return PaymentResult{}, storeError("Error al actualizar el estado del pago", err)
	}
	if !applied {
		return PaymentResult{}, ErrNoticeAlreadyPaid
	}
	notice.Status = models.StatusPagado
	notice.PaidInstallments = installments

	next, secondary := s.scheduleNext(ctx, notice, installments)

	s.logger.Info("payment recorded",
		zap.String("notice_id", noticeID.String()),
		zap.Int("installments", installments),
		zap.String("actor", actor.DisplayName),
		zap.Bool("next_scheduled", next != nil))
	return PaymentResult{Notice: notice, Next: next, Secondary: secondary}, nil
}

// RetryRollover creates the next notice of a paid notice whose rollover
// failed. If a successor already exists it is returned unchanged.
func (s *NoticeService) RetryRollover(ctx context.Context, actor *Identity, noticeID uuid.UUID) (models.PolicyNotice, error) {
	if actor == nil {
		return models.PolicyNotice{}, ErrNotAuthenticated
	}
	notice, err := s.getNotice(ctx, noticeID, "Error al obtener el aviso")
	if err != nil {
		return models.PolicyNotice{}, err
	}
	if notice.Status != models.StatusPagado {
		return models.PolicyNotice{}, ErrNoticeNotPaid
	}

	existing, err := s.store.FindSuccessor(ctx, noticeID)
	if err != nil {
		return models.PolicyNotice{}, storeError("Error al buscar el próximo aviso", err)
	}
	if existing != nil {
		return *existing, nil
	}

	installments := notice.PaidInstallments
	if installments < 1 {
		installments = 1
	}
	next, secondary := s.scheduleNext(ctx, notice, installments)
	if next == nil {
		return models.PolicyNotice{}, storeError("Error al crear el próximo aviso", secondary.Err)
	}
	return *next, nil
}

func (s *NoticeService) scheduleNext(ctx context.Context, paid models.PolicyNotice, installments int) (*models.PolicyNotice, *SecondaryResult) {
	previous := paid.ID
	next := &models.PolicyNotice{
		PolicyID:         paid.PolicyID,
		DueDate:          paid.DueDate.AddMonths(installments),
		Status:           models.StatusAvisar,
		PaidInstallments: 0,
		PreviousNoticeID: &previous,
	}
	if err := s.store.CreateNotice(ctx, next); err != nil {
		s.logger.Warn("error creating next notice",
			zap.String("notice_id", paid.ID.String()),
			zap.String("due_date", next.DueDate.String()),
			zap.Error(err))
		return nil, secondaryFailed(StepCreateNext, err)
	}
	return next, secondaryOK(StepCreateNext)
}

// ReimburseUpcoming moves every pagado notice due within the window (or
// already past due) back to avisar.
func (s *NoticeService) ReimburseUpcoming(ctx context.Context) ([]models.PolicyNotice, error) {
	limit := s.Today().AddDays(s.window)
	reset, err := s.store.ResetPaidDueOnOrBefore(ctx, limit)
	if err != nil {
		s.logger.Error("error resetting notices", zap.Error(err))
		return nil, storeError("Error al resetear avisos", err)
	}
	if len(reset) > 0 {
		s.logger.Info("paid notices reset", zap.Int("count", len(reset)), zap.String("limit", limit.String()))
	}
	return reset, nil
}

// PurgeStale deletes pagado notices whose due date is more than the window
// in the past. A notice exactly window days old is kept.
func (s *NoticeService) PurgeStale(ctx context.Context) ([]models.PolicyNotice, error) {
	limit := s.Today().AddDays(-s.window)
	deleted, err := s.store.DeletePaidDueBefore(ctx, limit)
	if err != nil {
		s.logger.Error("error deleting expired paid notices", zap.Error(err))
		return nil, storeError("Error al eliminar avisos pagados vencidos", err)
	}
	if len(deleted) > 0 {
		s.logger.Info("expired paid notices deleted", zap.Int("count", len(deleted)), zap.String("limit", limit.String()))
	}
	return deleted, nil
}

// ListNoticesForDisplay returns the board: every avisado and pagado notice
// plus avisar notices due within the window, ascending by due date. Stale
// paid notices are purged afterwards and left out of the result. query, if
// set, keeps notices whose client, company, branch or plate contains it.
func (s *NoticeService) ListNoticesForDisplay(ctx context.Context, query string) (DisplayResult, error) {
	today := s.Today()
	notices, err := s.store.ListVisible(ctx, today.AddDays(s.window))
	if err != nil {
		s.logger.Error("error fetching notices", zap.Error(err))
		return DisplayResult{}, storeError("Error al obtener los avisos", err)
	}

	result := DisplayResult{Notices: []NoticeView{}}
	purged, err := s.PurgeStale(ctx)
	if err != nil {
		result.Secondary = secondaryFailed(StepPurgeStale, err)
	} else {
		result.Secondary = secondaryOK(StepPurgeStale)
		result.Purged = purged
	}

	gone := make(map[uuid.UUID]struct{}, len(purged))
	for _, n := range purged {
		gone[n.ID] = struct{}{}
	}
	for _, n := range FilterNotices(notices, query) {
		if _, ok := gone[n.ID]; ok {
			continue
		}
		days := today.DaysUntil(n.DueDate)
		result.Notices = append(result.Notices, NoticeView{
			PolicyNotice: n,
			DaysUntilDue: days,
			Urgency:      UrgencyFor(days),
		})
	}
	return result, nil
}

// FilterNotices keeps notices whose client name, company name, branch or
// vehicle plate contains query, case-insensitively.
func FilterNotices(notices []models.PolicyNotice, query string) []models.PolicyNotice {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return notices
	}
	out := make([]models.PolicyNotice, 0, len(notices))
	for _, n := range notices {
		if n.Policy == nil {
			continue
		}
		fields := []string{string(n.Policy.Branch), n.Policy.VehiclePlate}
		if n.Policy.Client != nil {
			fields = append(fields, n.Policy.Client.FullName)
		}
		if n.Policy.Company != nil {
			fields = append(fields, n.Policy.Company.Name)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func UrgencyFor(daysUntilDue int) string {
	switch {
	case daysUntilDue < 0:
		return UrgencyOverdue
	case daysUntilDue <= 7:
		return UrgencyUrgent
	case daysUntilDue <= 15:
		return UrgencySoon
	default:
		return UrgencyOnTime
	}
}

// AddNote appends a note to a notice on behalf of actor.
func (s *NoticeService) AddNote(ctx context.Context, actor *Identity, noticeID uuid.UUID, text string) (models.NoticeNote, error) {
	if actor == nil {
		return models.NoticeNote{}, ErrNotAuthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NoticeNote{}, ErrEmptyNote
	}
	if _, err := s.getNotice(ctx, noticeID, "Error al obtener el aviso"); err != nil {
		return models.NoticeNote{}, err
	}

	note := models.NoticeNote{
		NoticeID:  noticeID,
		UserID:    actor.UserID,
		Note:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateNote(ctx, &note); err != nil {
		s.logger.Error("error adding note", zap.String("notice_id", noticeID.String()), zap.Error(err))
		return models.NoticeNote{}, storeError("Error al agregar la nota", err)
	}
	note.AuthorName = actor.DisplayName
	return note, nil
}

// GetNotice returns one notice with its details.
func (s *NoticeService) GetNotice(ctx context.Context, noticeID uuid.UUID) (models.PolicyNotice, error) {
	return s.getNotice(ctx, noticeID, "Error al obtener el aviso")
}

func (s *NoticeService) getNotice(ctx context.Context, id uuid.UUID, failure string) (models.PolicyNotice, error) {
	notice, err := s.store.GetNotice(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoticeNotFound) {
			return models.PolicyNotice{}, ErrNoticeNotFound
		}
		return models.PolicyNotice{}, storeError(failure, err)
	}
	return notice, nil
}
