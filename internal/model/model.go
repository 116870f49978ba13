package model

import (
	"errors"
	"fmt"
	"time"
)

type MeetingType string

const (
	MeetingRemote MeetingType = "remote"
	MeetingOnsite MeetingType = "onsite"
)

func (t MeetingType) Valid() bool {
	return t == MeetingRemote || t == MeetingOnsite
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Username       string     `json:"username,omitempty"`
	Email          string     `json:"email,omitempty"`
	DOB            string     `json:"dob,omitempty"`
	Number         string     `json:"number,omitempty"`
	Hometown       string     `json:"hometown,omitempty"`
	OAuthProvider  string     `json:"oauthProvider,omitempty"`
	OAuthID        string     `json:"oauthId,omitempty"`
	Businesses     []Business `json:"business"`
	AppointmentIDs []string   `json:"appointments"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// PrimaryBusiness is the first business linked to the user, nil when none.
func (u *User) PrimaryBusiness() *Business {
	if len(u.Businesses) == 0 {
		return nil
	}
	return &u.Businesses[0]
}

// ProfileUpdate holds the reconciliation fields; nil means untouched.
type ProfileUpdate struct {
	DOB      *string
	Number   *string
	Hometown *string
}

func (p ProfileUpdate) Empty() bool {
	return p.DOB == nil && p.Number == nil && p.Hometown == nil
}

type Business struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ManagerIDs  []string  `json:"managers"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Appointment struct {
	ID         string      `json:"id"`
	BusinessID string      `json:"business"`
	UserID     string      `json:"user"`
	Date       time.Time   `json:"date"`
	Notes      string      `json:"notes,omitempty"`
	Type       MeetingType `json:"type"`
	Status     Status      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

var ErrInvalidAppointment = errors.New("invalid appointment")

// Validate enforces required references and the closed enumerations.
// Every store calls it before writing.
func (a *Appointment) Validate() error {
	switch {
	case a.BusinessID == "":
		return fmt.Errorf("%w: business required", ErrInvalidAppointment)
	case a.UserID == "":
		return fmt.Errorf("%w: user required", ErrInvalidAppointment)
	case a.Date.IsZero():
		return fmt.Errorf("%w: date required", ErrInvalidAppointment)
	case !a.Type.Valid():
		return fmt.Errorf("%w: type %q", ErrInvalidAppointment, a.Type)
	case !a.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidAppointment, a.Status)
	}
	return nil
}

// Advisor is a staff account that can see the client dashboard.
type Advisor struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ClientSummary is one row of the advisor dashboard.
type ClientSummary struct {
	User             User       `json:"user"`
	AppointmentCount int        `json:"appointmentCount"`
	NextAppointment  *time.Time `json:"nextAppointment,omitempty"`
}
