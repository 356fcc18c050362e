package services

import (
	"testing"
	"time"

	"polizas-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHousekeepingScheduler_InvalidSpec(t *testing.T) {
	svc := NewNoticeService(NewMemoryNoticeStore(), nil)
	_, err := NewHousekeepingScheduler(svc, "every day", false, nil, nil)
	assert.Error(t, err)
}

func TestHousekeepingRun(t *testing.T) {
	tests := []struct {
		name       string
		reimburse  bool
		wantUpcome models.NoticeStatus
	}{
		{"purge only", false, models.StatusPagado},
		{"purge and reimburse", true, models.StatusAvisar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNoticeFixture(t, models.NewDate(2024, time.March, 20))
			f.addNotice(t, models.NewDate(2024, time.February, 1), models.StatusPagado)
			upcoming := f.addNotice(t, models.NewDate(2024, time.March, 25), models.StatusPagado)

			h, err := NewHousekeepingScheduler(f.svc, "0 6 * * *", tt.reimburse, time.UTC, nil)
			require.NoError(t, err)
			h.Run()

			all := f.store.All()
			require.Len(t, all, 1)
			assert.Equal(t, upcoming.ID, all[0].ID)
			assert.Equal(t, tt.wantUpcome, all[0].Status)
		})
	}
}

func TestHousekeepingStartStop(t *testing.T) {
	h, err := NewHousekeepingScheduler(NewNoticeService(NewMemoryNoticeStore(), nil), "@every 1h", false, time.UTC, nil)
	require.NoError(t, err)
	h.Start()
	h.Stop()
}
