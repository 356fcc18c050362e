package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const housekeepingTimeout = time.Minute

// HousekeepingScheduler runs the notice housekeeping passes on a cron
// schedule. PurgeStale always runs; ReimburseUpcoming only when enabled.
type HousekeepingScheduler struct {
	cron      *cron.Cron
	notices   *NoticeService
	reimburse bool
	logger    *zap.Logger
}

func NewHousekeepingScheduler(notices *NoticeService, schedule string, reimburse bool, loc *time.Location, logger *zap.Logger) (*HousekeepingScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	h := &HousekeepingScheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		notices:   notices,
		reimburse: reimburse,
		logger:    logger,
	}
	if _, err := h.cron.AddFunc(schedule, h.Run); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HousekeepingScheduler) Start() {
	h.cron.Start()
	h.logger.Info("housekeeping scheduler started", zap.Bool("reimburse", h.reimburse))
}

// Stop halts the schedule and waits for a running pass to finish.
func (h *HousekeepingScheduler) Stop() {
	<-h.cron.Stop().Done()
}

// Run performs one housekeeping pass.
func (h *HousekeepingScheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), housekeepingTimeout)
	defer cancel()

	// purge first so that stale paid notices are not reset to avisar
	if purged, err := h.notices.PurgeStale(ctx); err == nil {
		h.logger.Info("housekeeping purge done", zap.Int("purged", len(purged)))
	}
	if h.reimburse {
		if reset, err := h.notices.ReimburseUpcoming(ctx); err == nil {
			h.logger.Info("housekeeping reimburse done", zap.Int("reset", len(reset)))
		}
	}
}
