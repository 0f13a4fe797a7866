package dto

import "time"

type ProfileInput struct {
	Name                   string
	MedicalInfo            string
	Notes                  string
	AlertTemplate          string
	CheckInIntervalMinutes int
}

type ProfileOutput struct {
	Name                   string
	MedicalInfo            string
	Notes                  string
	AlertTemplate          string
	CheckInIntervalMinutes int
	UpdatedAt              time.Time
}

type AddContactInput struct {
	Name  string
	Phone string
}

type ContactOutput struct {
	ID       string
	Name     string
	Phone    string
	Priority int
	Active   bool
}
