package testutil

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
)

// Known bike served by mocks.BikeRegistry in workflow tests.
const (
	SparkSerial = "STM34D30L24110132N"
	SparkModel  = "Bike Spark RC World Cup (TW) IGPG/L"
	SparkShop   = "BMN SPORTECH"
)

// RecordBuilder builds registration records that pass schema validation
// unless a test overrides a field.
type RecordBuilder struct {
	record registration.Record
}

// NewRecordBuilder creates a builder seeded with a complete, valid record.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		record: registration.Record{
			SerialNumber:      SparkSerial,
			ModelDescription:  SparkModel,
			ShopName:          SparkShop,
			DateOfPurchase:    date(2024, time.March, 15),
			FirstName:         "Jane",
			LastName:          "Doe",
			Email:             "jane@example.com",
			Country:           "CH",
			PreferredLanguage: "en",
			Gender:            "female",
			DateOfBirth:       date(1990, time.May, 20),
			Consent:           true,
		},
	}
}

// WithSerial sets the serial number.
func (b *RecordBuilder) WithSerial(serial string) *RecordBuilder {
	b.record.SerialNumber = serial
	return b
}

// WithPurchaseDate sets the purchase date; a zero time clears it.
func (b *RecordBuilder) WithPurchaseDate(t time.Time) *RecordBuilder {
	b.record.DateOfPurchase = t
	return b
}

// WithName sets first and last name.
func (b *RecordBuilder) WithName(first, last string) *RecordBuilder {
	b.record.FirstName = first
	b.record.LastName = last
	return b
}

// WithEmail sets the email address.
func (b *RecordBuilder) WithEmail(email string) *RecordBuilder {
	b.record.Email = email
	return b
}

// WithCountry sets the country code.
func (b *RecordBuilder) WithCountry(country string) *RecordBuilder {
	b.record.Country = country
	return b
}

// WithConsent sets the privacy consent flag.
func (b *RecordBuilder) WithConsent(consent bool) *RecordBuilder {
	b.record.Consent = consent
	return b
}

// WithNewsOptIn sets the newsletter flag.
func (b *RecordBuilder) WithNewsOptIn(optIn bool) *RecordBuilder {
	b.record.NewsOptIn = optIn
	return b
}

// Build returns the constructed record.
func (b *RecordBuilder) Build() registration.Record {
	return b.record
}

// recordFile mirrors the submit input file, where dates are plain strings.
type recordFile struct {
	SerialNumber      string `yaml:"serialNumber"`
	DateOfPurchase    string `yaml:"dateOfPurchase,omitempty"`
	FirstName         string `yaml:"firstName"`
	LastName          string `yaml:"lastName"`
	Email             string `yaml:"email"`
	Country           string `yaml:"country"`
	PreferredLanguage string `yaml:"preferredLanguage"`
	Gender            string `yaml:"gender"`
	DateOfBirth       string `yaml:"dateOfBirth,omitempty"`
	NewsOptIn         bool   `yaml:"newsOptIn"`
	Consent           bool   `yaml:"consent"`
}

// ToYAML renders the record as a submit input file. Verified bike fields
// are omitted because the backend supplies them.
func (b *RecordBuilder) ToYAML() string {
	r := b.record
	out, err := yaml.Marshal(recordFile{
		SerialNumber:      r.SerialNumber,
		DateOfPurchase:    r.Text(registration.FieldDateOfPurchase),
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Country:           r.Country,
		PreferredLanguage: r.PreferredLanguage,
		Gender:            r.Gender,
		DateOfBirth:       r.Text(registration.FieldDateOfBirth),
		NewsOptIn:         r.NewsOptIn,
		Consent:           r.Consent,
	})
	if err != nil {
		panic(err)
	}
	return string(out)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
