package domain

import "strings"

const (
	DefaultUserName        = "StayWithMe user"
	NamePlaceholder        = "[Your Name]"
	MedicalInfoPlaceholder = "[Medical Info text here]"
	mapLinkPrefix          = "https://maps.google.com/?q="
	closingLine            = "Please check on them immediately."
	defaultTemplatePrefix  = "EMERGENCY: This is an automated alert from "
	defaultTemplateSuffix  = "'s safety app. Their timer has expired and they are unresponsive."
)

// MessageContext is everything an emergency message may mention.
type MessageContext struct {
	Name          string
	MedicalInfo   string
	AlertTemplate string
	Location      string
	Substances    string
	Notes         string
}

// ComposeEmergencyMessage builds the text sent to every contact at level 4.
func ComposeEmergencyMessage(in MessageContext) string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultUserName
	}
	medical := strings.TrimSpace(in.MedicalInfo)

	message := strings.TrimSpace(in.AlertTemplate)
	if message == "" {
		message = defaultTemplatePrefix + name + defaultTemplateSuffix
	}
	message = strings.ReplaceAll(message, NamePlaceholder, name)
	message = strings.ReplaceAll(message, MedicalInfoPlaceholder, medical)

	var b strings.Builder
	b.WriteString(message)
	if medical != "" && !strings.Contains(message, medical) {
		b.WriteString("\n\nMedical Information: ")
		b.WriteString(medical)
	}
	if substances := strings.TrimSpace(in.Substances); substances != "" {
		b.WriteString("\n\nSubstances: ")
		b.WriteString(substances)
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		b.WriteString("\n\nNotes: ")
		b.WriteString(notes)
	}
	if link := MapLink(in.Location); link != "" {
		b.WriteString("\n\nLast known location: ")
		b.WriteString(link)
	}
	b.WriteString("\n\n")
	b.WriteString(closingLine)
	return b.String()
}

// MapLink turns a "lat,lon" string into a map URL, or "" when absent.
func MapLink(location string) string {
	location = strings.ReplaceAll(strings.TrimSpace(location), " ", "")
	if location == "" {
		return ""
	}
	return mapLinkPrefix + location
}
