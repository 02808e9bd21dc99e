package registration

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultMinPurchaseDate is the earliest accepted date of purchase.
var DefaultMinPurchaseDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Schema validates registration records. It is pure given its clock:
// validating the same record twice yields identical errors.
type Schema struct {
	validate    *validator.Validate
	minPurchase time.Time
	now         func() time.Time
}

// SchemaOption configures a Schema.
type SchemaOption func(*Schema)

// WithMinPurchaseDate sets the earliest accepted date of purchase.
func WithMinPurchaseDate(t time.Time) SchemaOption {
	return func(s *Schema) {
		if !t.IsZero() {
			s.minPurchase = t
		}
	}
}

// WithClock overrides the time source used for "not in the future" rules.
// Today is the calendar date of the clock's time in its own location, so a
// local clock accepts the local date even when UTC is still on the day before.
func WithClock(now func() time.Time) SchemaOption {
	return func(s *Schema) {
		s.now = now
	}
}

// NewSchema creates a schema with the registration rules registered.
func NewSchema(opts ...SchemaOption) *Schema {
	s := &Schema{
		minPurchase: DefaultMinPurchaseDate,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Bool()
	})
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return IsCountry(fl.Field().String())
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return IsLanguage(fl.Field().String())
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return IsGender(fl.Field().String())
	})
	_ = v.RegisterValidation("mindate", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && !calendarDay(t).Before(calendarDay(s.minPurchase))
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && !calendarDay(t).After(calendarDay(s.now()))
	})
	s.validate = v

	return s
}

// MinPurchaseDate returns the earliest accepted date of purchase.
func (s *Schema) MinPurchaseDate() time.Time {
	return s.minPurchase
}

// Validate checks the whole record and returns the first failing rule per field.
func (s *Schema) Validate(r Record) ValidationErrors {
	out := make(ValidationErrors)

	err := s.validate.Struct(r)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable on programmer error (invalid input type).
		out[FieldSerialNumber] = err.Error()
		return out
	}
	for _, fe := range verrs {
		f := Field(fe.Field())
		if _, exists := out[f]; exists {
			continue
		}
		out[f] = s.message(f, fe.Tag())
	}
	return out
}

// ValidateFields checks the record and keeps only errors for the given fields.
func (s *Schema) ValidateFields(r Record, fields ...Field) ValidationErrors {
	return s.Validate(r).For(fields...)
}

func (s *Schema) message(f Field, tag string) string {
	label := f.String()
	if spec, ok := SpecFor(f); ok {
		label = spec.Label
	}

	switch tag {
	case "required", "notblank":
		switch f {
		case FieldCountry, FieldPreferredLanguage, FieldGender:
			return "Please select your " + strings.ToLower(label)
		}
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "country", "language", "gender":
		return "Please select a valid " + strings.ToLower(label)
	case "mindate":
		return label + " cannot be before " + s.minPurchase.Format(DateLayout)
	case "notfuture":
		return label + " cannot be in the future"
	case "accepted":
		return "You must accept the privacy policy"
	default:
		return label + " is invalid"
	}
}

// calendarDay drops the time of day, keeping the date as seen in t's location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
