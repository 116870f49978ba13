package booking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-api/internal/model"
	"advisory-api/internal/service"
)

type stubBooker struct {
	got []service.AppointmentInput
	err error
}

func (s *stubBooker) CreateAppointment(_ context.Context, in service.AppointmentInput) (*model.Appointment, error) {
	s.got = append(s.got, in)
	if s.err != nil {
		return nil, s.err
	}
	return &model.Appointment{ID: "a1", BusinessID: in.BusinessID}, nil
}

var day = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFlowHappyPath(t *testing.T) {
	b := &stubBooker{}
	var refreshed *model.Appointment
	f := NewFlow([]string{"plan", "budget"}, b, time.UTC, func(a *model.Appointment) { refreshed = a })

	require.NoError(t, f.Toggle(0))
	require.NoError(t, f.Toggle(1))
	require.NoError(t, f.Proceed())
	assert.Equal(t, StateForm, f.State())

	require.NoError(t, f.Submit(context.Background(), Request{BusinessID: "biz", Day: day, Slot: "10:00", Type: model.MeetingOnsite}))
	assert.Equal(t, StateConfirmed, f.State())
	require.NotNil(t, refreshed)
	assert.Equal(t, "a1", refreshed.ID)
	require.Len(t, b.got, 1)
	assert.Equal(t, "2025-01-01T10:00:00Z", b.got[0].Date)
	assert.Equal(t, "onsite", b.got[0].Type)
}

func TestFlowWarning(t *testing.T) {
	f := NewFlow([]string{"plan", "budget"}, &stubBooker{}, nil, nil)
	require.NoError(t, f.Toggle(0))
	require.NoError(t, f.Proceed())
	assert.Equal(t, StateWarning, f.State())
	assert.Equal(t, []string{"budget"}, f.Unchecked())

	require.NoError(t, f.Cancel())
	assert.Equal(t, StateChecklist, f.State())
	// toggling twice restores the item
	require.NoError(t, f.Toggle(0))
	require.NoError(t, f.Toggle(0))
	assert.True(t, f.Items()[0].Checked)

	require.NoError(t, f.Proceed())
	require.NoError(t, f.Continue())
	assert.Equal(t, StateForm, f.State())
}

func TestFlowSubmitFailureStaysOnForm(t *testing.T) {
	b := &stubBooker{err: errors.New("boom")}
	f := NewFlow(nil, b, time.UTC, nil)
	require.NoError(t, f.Proceed())

	err := f.Submit(context.Background(), Request{BusinessID: "biz", Day: day, Slot: "09:00"})
	require.Error(t, err)
	assert.Equal(t, StateForm, f.State())
	assert.Contains(t, f.Alert, "Failed to book appointment")

	err = f.Submit(context.Background(), Request{BusinessID: "biz", Day: day, Slot: "17:00"})
	assert.ErrorIs(t, err, ErrBadSlot)
	assert.Equal(t, StateForm, f.State())
}

func TestFlowRejectsOutOfOrder(t *testing.T) {
	f := NewFlow([]string{"plan"}, &stubBooker{}, nil, nil)
	assert.ErrorIs(t, f.Continue(), ErrWrongState)
	assert.ErrorIs(t, f.Cancel(), ErrWrongState)
	assert.ErrorIs(t, f.Submit(context.Background(), Request{}), ErrWrongState)
	assert.Error(t, f.Toggle(5))
}

func TestSlotTime(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skip("no tzdata")
	}
	at, err := SlotTime(day, "16:00", helsinki)
	require.NoError(t, err)
	assert.Equal(t, 16, at.Hour())
	assert.Equal(t, "2025-01-01T14:00:00Z", at.UTC().Format(time.RFC3339))
}

func TestLoadChecklist(t *testing.T) {
	def, err := LoadChecklist("")
	require.NoError(t, err)
	assert.Equal(t, DefaultChecklist, def)

	path := filepath.Join(t.TempDir(), "checklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - Pitch deck\n  - \"\"\n  - Cap table\n"), 0o600))
	got, err := LoadChecklist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pitch deck", "Cap table"}, got)

	_, err = ParseChecklist([]byte("items: []"))
	assert.Error(t, err)
	_, err = ParseChecklist([]byte("items: [unclosed"))
	assert.Error(t, err)
}
