package domain

import "time"

// Format enumerates the document formats a delivery can request.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatMOBI Format = "mobi"
	FormatEPUB Format = "epub"
)

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatMOBI, FormatEPUB:
		return true
	}
	return false
}

// Extension returns the attachment file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type used for the email attachment.
func (f Format) ContentType() string {
	switch f {
	case FormatMOBI:
		return "application/x-mobipocket-ebook"
	case FormatEPUB:
		return "application/epub+zip"
	default:
		return "application/pdf"
	}
}

// DeliveryStatus is the outcome of one attempted delivery run.
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "Sent"
	StatusFailed DeliveryStatus = "Failed"
)

// Settings holds a user's delivery preferences. One per user, created
// lazily with defaults on first access. DeliveryHour is in 24-hour
// format, constrained to 5-12.
type Settings struct {
	OwnerID      int64
	Email        string
	Active       bool
	DeliveryHour int
	Format       Format
	UpdatedAt    time.Time
}

const (
	MinDeliveryHour = 5
	MaxDeliveryHour = 12

	DefaultDeliveryHour = 8
)

// DefaultSettings are the lazily-created preferences for a user that
// has never touched the settings page.
func DefaultSettings(ownerID int64) Settings {
	return Settings{
		OwnerID:      ownerID,
		Active:       true,
		DeliveryHour: DefaultDeliveryHour,
		Format:       FormatPDF,
	}
}

// DeliveryRecord is one append-only audit entry for an attempted
// delivery, scheduled or manual, success or failure.
type DeliveryRecord struct {
	ID            int64
	OwnerID       int64
	Date          time.Time
	Status        DeliveryStatus
	ArticlesCount int
	Format        Format
}

// Feed is a user-owned RSS feed source.
type Feed struct {
	ID      int64
	OwnerID int64
	URL     string
}

// Topic is a user-stated topic of interest, unique per owner
// case-insensitively.
type Topic struct {
	ID      int64
	OwnerID int64
	Name    string
}

// User is the subscriber a newspaper is assembled for.
type User struct {
	ID       int64
	Username string
	Email    string
}
