package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddMonths(t *testing.T) {
	tests := []struct {
		start  Date
		months int
		want   string
	}{
		{NewDate(2024, time.March, 10), 2, "2024-05-10"},
		{NewDate(2024, time.January, 31), 1, "2024-02-29"},
		{NewDate(2023, time.January, 31), 1, "2023-02-28"},
		{NewDate(2024, time.August, 31), 1, "2024-09-30"},
		{NewDate(2024, time.November, 15), 3, "2025-02-15"},
		{NewDate(2024, time.March, 31), 12, "2025-03-31"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.start.AddMonths(tt.months).String())
		})
	}
}

func TestDateDaysUntil(t *testing.T) {
	today := NewDate(2024, time.March, 1)
	assert.Equal(t, 9, today.DaysUntil(NewDate(2024, time.March, 10)))
	assert.Equal(t, -10, today.DaysUntil(NewDate(2024, time.February, 20)))
	assert.Equal(t, 0, today.DaysUntil(today))
	assert.Equal(t, "2024-02-15", today.AddDays(-15).String())
}

func TestDateOfKeepsLocalDay(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	late := time.Date(2024, time.March, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-01", DateOf(late).String())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Due Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-10"}`), &payload))
	assert.Equal(t, NewDate(2024, time.March, 10), payload.Due)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-03-10"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-03-10T00:00:00Z"}`), &payload))
	assert.Equal(t, "2024-03-10", payload.Due.String())

	require.NoError(t, json.Unmarshal([]byte(`{"due":""}`), &payload))
	assert.True(t, payload.Due.IsZero())

	out, err = json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"10/03/2024"}`), &payload))
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-10", d.String())

	require.NoError(t, d.Scan([]byte("2024-04-01")))
	assert.Equal(t, "2024-04-01", d.String())

	require.NoError(t, d.Scan("2024-05-02"))
	assert.Equal(t, "2024-05-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2024, time.March, 10).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", v)
}

func TestDisplayNameFor(t *testing.T) {
	assert.Equal(t, "Ana", DisplayNameFor(" Ana ", "ana@example.com"))
	assert.Equal(t, "ana.lopez", DisplayNameFor("", "ana.lopez@example.com"))
	assert.Equal(t, "Usuario", DisplayNameFor("", ""))
}

func TestStatusAndBranchValid(t *testing.T) {
	assert.True(t, StatusAvisado.Valid())
	assert.False(t, NoticeStatus("cobrado").Valid())
	assert.True(t, BranchCombinadoFamiliar.Valid())
	assert.False(t, Branch("Vida").Valid())
}
