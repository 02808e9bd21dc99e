package workflow

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// TimestampLayout is the ISO-8601 form of dates sent to the backend.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// BuildRequest converts a record to its wire form. Unset dates are omitted.
func BuildRequest(r registration.Record) ports.RegistrationRequest {
	return ports.RegistrationRequest{
		SerialNumber:      strings.TrimSpace(r.SerialNumber),
		ModelDescription:  r.ModelDescription,
		ShopName:          r.ShopName,
		DateOfPurchase:    formatTimestamp(r.DateOfPurchase),
		FirstName:         strings.TrimSpace(r.FirstName),
		LastName:          strings.TrimSpace(r.LastName),
		Email:             strings.TrimSpace(r.Email),
		Country:           r.Country,
		PreferredLanguage: r.PreferredLanguage,
		Gender:            r.Gender,
		DateOfBirth:       formatTimestamp(r.DateOfBirth),
		NewsOptIn:         r.NewsOptIn,
		Consent:           r.Consent,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
