package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"advisory-api/internal/booking"
	"advisory-api/internal/client"
	"advisory-api/internal/model"
)

var bookOpts struct {
	api       string
	token     string
	business  string
	day       string
	slot      string
	meeting   string
	notes     string
	checklist string
	checked   []int
	proceed   bool
	tz        string
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book an advisor meeting against a running API",
	RunE:  runBook,
}

func init() {
	f := bookCmd.Flags()
	f.StringVar(&bookOpts.api, "api", "http://localhost:8080", "API base URL")
	f.StringVar(&bookOpts.token, "token", "", "session token")
	f.StringVar(&bookOpts.business, "business", "", "business id")
	f.StringVar(&bookOpts.day, "day", "", "meeting day (YYYY-MM-DD)")
	f.StringVar(&bookOpts.slot, "slot", "", "start time, one of "+strings.Join(booking.Slots, ", "))
	f.StringVar(&bookOpts.meeting, "type", "remote", "remote or onsite")
	f.StringVar(&bookOpts.notes, "notes", "", "notes for the advisor")
	f.StringVar(&bookOpts.checklist, "checklist", "", "YAML checklist file")
	f.IntSliceVar(&bookOpts.checked, "checked", nil, "indexes of prepared checklist items")
	f.BoolVar(&bookOpts.proceed, "continue", false, "book even when the checklist is incomplete")
	f.StringVar(&bookOpts.tz, "tz", "UTC", "time zone of the slot")
	_ = bookCmd.MarkFlagRequired("business")
	_ = bookCmd.MarkFlagRequired("day")
	_ = bookCmd.MarkFlagRequired("slot")
}

func runBook(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	items, err := booking.LoadChecklist(bookOpts.checklist)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(bookOpts.tz)
	if err != nil {
		return err
	}
	day, err := time.ParseInLocation("2006-01-02", bookOpts.day, loc)
	if err != nil {
		return fmt.Errorf("bad --day: %w", err)
	}

	ctx := cmd.Context()
	api := client.New(bookOpts.api, bookOpts.token)
	if missing, err := api.MissingFields(ctx); err == nil && len(missing) > 0 {
		fmt.Fprintf(out, "Profile incomplete: %s\n", strings.Join(missing, ", "))
	}
	flow := booking.NewFlow(items, api, loc, func(a *model.Appointment) {
		fmt.Fprintf(out, "booked %s on %s\n", a.ID, a.Date.In(loc).Format("2006-01-02 15:04"))
		// refresh the business's list the way the dashboard does after a booking
		list, err := api.ListAppointments(ctx, a.BusinessID)
		if err != nil {
			fmt.Fprintf(out, "could not refresh appointments: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Appointments for %s:\n", a.BusinessID)
		for _, l := range list {
			fmt.Fprintf(out, "  %s  %-6s %s\n", l.Date.In(loc).Format("2006-01-02 15:04"), l.Type, l.Status)
		}
	})
	for _, i := range bookOpts.checked {
		if err := flow.Toggle(i); err != nil {
			return err
		}
	}
	if err := flow.Proceed(); err != nil {
		return err
	}
	if flow.State() == booking.StateWarning {
		fmt.Fprintln(out, "Not yet prepared:")
		for _, l := range flow.Unchecked() {
			fmt.Fprintln(out, "  -", l)
		}
		if !bookOpts.proceed {
			_ = flow.Cancel()
			return errors.New("checklist incomplete; rerun with --continue to book anyway")
		}
		if err := flow.Continue(); err != nil {
			return err
		}
	}
	err = flow.Submit(ctx, booking.Request{
		BusinessID: bookOpts.business,
		Day:        day,
		Slot:       bookOpts.slot,
		Type:       model.MeetingType(bookOpts.meeting),
		Notes:      bookOpts.notes,
	})
	if err != nil {
		return errors.New(flow.Alert)
	}
	return nil
}
