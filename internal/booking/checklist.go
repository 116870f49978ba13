package booking

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultChecklist is the set of documents to prepare before a meeting.
var DefaultChecklist = []string{
	"Business plan or concept description",
	"Financial projections or budget",
	"Current financial statements (if existing business)",
	"List of competitors and market research",
	"Questions about specific regulations or permits",
	"Previous business registrations or documentation",
}

type checklistFile struct {
	Items []string `yaml:"items"`
}

// ParseChecklist reads a YAML document of the form `items: [...]`.
func ParseChecklist(b []byte) ([]string, error) {
	var f checklistFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse checklist: %w", err)
	}
	var out []string
	for _, it := range f.Items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("checklist has no items")
	}
	return out, nil
}

// LoadChecklist returns DefaultChecklist when path is empty.
func LoadChecklist(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultChecklist...), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseChecklist(b)
}

// Slots are the bookable one-hour start times.
var Slots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

var ErrBadSlot = errors.New("not a bookable slot")

// SlotTime combines a calendar day with a slot label in loc.
func SlotTime(day time.Time, slot string, loc *time.Location) (time.Time, error) {
	ok := false
	for _, s := range Slots {
		if s == slot {
			ok = true
			break
		}
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadSlot, slot)
	}
	if loc == nil {
		loc = time.UTC
	}
	hm, _ := time.Parse("15:04", slot)
	y, m, d := day.Date()
	return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, loc), nil
}
