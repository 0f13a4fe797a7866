package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	apperrors "staywithme/internal/platform/errors"
)

const (
	MinIntervalMinutes     = 2
	MaxIntervalMinutes     = 120
	DefaultIntervalMinutes = 30
)

// Profile is the single per-installation record used to compose alerts.
type Profile struct {
	Name                   string
	MedicalInfo            string
	Notes                  string
	AlertTemplate          string
	CheckInIntervalMinutes int
	UpdatedAt              time.Time
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	return ValidateInterval(p.CheckInIntervalMinutes)
}

func ValidateInterval(minutes int) error {
	if minutes < MinIntervalMinutes || minutes > MaxIntervalMinutes {
		return fmt.Errorf("%w: check-in interval must be between %d and %d minutes, got %d",
			apperrors.ErrConfiguration, MinIntervalMinutes, MaxIntervalMinutes, minutes)
	}
	return nil
}

type Contact struct {
	ID        string
	Name      string
	Phone     string
	Priority  int
	Active    bool
	CreatedAt time.Time
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: contact name is required", apperrors.ErrInvalidInput)
	}
	if NormalizePhone(c.Phone) == "" {
		return fmt.Errorf("%w: contact phone %q is not a phone number", apperrors.ErrInvalidInput, c.Phone)
	}
	if c.Priority < 1 {
		return fmt.Errorf("%w: contact priority must be positive", apperrors.ErrInvalidInput)
	}
	return nil
}

// NormalizePhone keeps a leading plus and the digits, dropping separators.
// It returns "" when fewer than three digits remain or other characters appear.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return ""
		}
	}
	if digits < 3 {
		return ""
	}
	return b.String()
}

// SortByPriority orders contacts lowest priority value first, ties by name.
func SortByPriority(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].Priority == contacts[j].Priority {
			return contacts[i].Name < contacts[j].Name
		}
		return contacts[i].Priority < contacts[j].Priority
	})
}
