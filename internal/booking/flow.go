// Package booking drives the client side of booking an advisor meeting: a
// preparation checklist, an optional warning when it is incomplete, the
// booking form and the confirmation. The checklist is advisory; nothing on
// the server enforces it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advisory-api/internal/model"
	"advisory-api/internal/service"
)

type State string

const (
	StateChecklist State = "checklist"
	StateWarning   State = "warning"
	StateForm      State = "form"
	StateConfirmed State = "confirmed"
)

var ErrWrongState = errors.New("action not allowed in this state")

// Booker creates appointments. Both the service and the HTTP client satisfy it.
type Booker interface {
	CreateAppointment(ctx context.Context, in service.AppointmentInput) (*model.Appointment, error)
}

type Item struct {
	Label   string
	Checked bool
}

type Request struct {
	BusinessID string
	Day        time.Time
	Slot       string
	Type       model.MeetingType
	Notes      string
}

type Flow struct {
	state    State
	items    []Item
	booker   Booker
	loc      *time.Location
	onBooked func(*model.Appointment)

	// Alert holds the last submit failure shown to the user.
	Alert  string
	Booked *model.Appointment
}

func NewFlow(labels []string, b Booker, loc *time.Location, onBooked func(*model.Appointment)) *Flow {
	items := make([]Item, len(labels))
	for i, l := range labels {
		items[i] = Item{Label: l}
	}
	return &Flow{state: StateChecklist, items: items, booker: b, loc: loc, onBooked: onBooked}
}

func (f *Flow) State() State { return f.state }

func (f *Flow) Items() []Item { return append([]Item(nil), f.items...) }

func (f *Flow) Unchecked() []string {
	var out []string
	for _, it := range f.items {
		if !it.Checked {
			out = append(out, it.Label)
		}
	}
	return out
}

// Toggle flips item i.
func (f *Flow) Toggle(i int) error {
	if f.state != StateChecklist {
		return ErrWrongState
	}
	if i < 0 || i >= len(f.items) {
		return fmt.Errorf("no checklist item %d", i)
	}
	f.items[i].Checked = !f.items[i].Checked
	return nil
}

// Proceed opens the form, or the warning when items are still unchecked.
func (f *Flow) Proceed() error {
	if f.state != StateChecklist {
		return ErrWrongState
	}
	if len(f.Unchecked()) > 0 {
		f.state = StateWarning
		return nil
	}
	f.state = StateForm
	return nil
}

// Continue accepts the incomplete checklist.
func (f *Flow) Continue() error {
	if f.state != StateWarning {
		return ErrWrongState
	}
	f.state = StateForm
	return nil
}

// Cancel returns from the warning to the checklist.
func (f *Flow) Cancel() error {
	if f.state != StateWarning {
		return ErrWrongState
	}
	f.state = StateChecklist
	return nil
}

// Submit books the appointment. On failure the flow stays on the form with
// Alert set.
func (f *Flow) Submit(ctx context.Context, r Request) error {
	if f.state != StateForm {
		return ErrWrongState
	}
	at, err := SlotTime(r.Day, r.Slot, f.loc)
	if err != nil {
		f.Alert = err.Error()
		return err
	}
	a, err := f.booker.CreateAppointment(ctx, service.AppointmentInput{
		BusinessID: r.BusinessID,
		Date:       at.Format(time.RFC3339),
		Notes:      r.Notes,
		Type:       string(r.Type),
	})
	if err != nil {
		f.Alert = "Failed to book appointment: " + service.Message(err)
		return err
	}
	f.Alert = ""
	f.Booked = a
	f.state = StateConfirmed
	if f.onBooked != nil {
		f.onBooked(a)
	}
	return nil
}
