package registration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for date fields.
const DateLayout = "2006-01-02"

// Record is the single registration record shared by all workflow steps.
// A zero time.Time means the date has not been entered.
type Record struct {
	SerialNumber      string    `json:"serialNumber" yaml:"serialNumber"`
	ModelDescription  string    `json:"modelDescription" yaml:"modelDescription"`
	ShopName          string    `json:"shopName" yaml:"shopName"`
	DateOfPurchase    time.Time `json:"dateOfPurchase" yaml:"dateOfPurchase" validate:"required,mindate,notfuture"`
	FirstName         string    `json:"firstName" yaml:"firstName" validate:"notblank"`
	LastName          string    `json:"lastName" yaml:"lastName" validate:"notblank"`
	Email             string    `json:"email" yaml:"email" validate:"required,email"`
	Country           string    `json:"country" yaml:"country" validate:"required,country"`
	PreferredLanguage string    `json:"preferredLanguage" yaml:"preferredLanguage" validate:"required,language"`
	Gender            string    `json:"gender" yaml:"gender" validate:"required,gender"`
	DateOfBirth       time.Time `json:"dateOfBirth" yaml:"dateOfBirth" validate:"required,notfuture"`
	NewsOptIn         bool      `json:"newsOptIn" yaml:"newsOptIn"`
	Consent           bool      `json:"consent" yaml:"consent" validate:"accepted"`
}

// Get returns the current value of a field.
func (r Record) Get(f Field) (any, error) {
	switch f {
	case FieldSerialNumber:
		return r.SerialNumber, nil
	case FieldModelDescription:
		return r.ModelDescription, nil
	case FieldShopName:
		return r.ShopName, nil
	case FieldDateOfPurchase:
		return r.DateOfPurchase, nil
	case FieldFirstName:
		return r.FirstName, nil
	case FieldLastName:
		return r.LastName, nil
	case FieldEmail:
		return r.Email, nil
	case FieldCountry:
		return r.Country, nil
	case FieldPreferredLanguage:
		return r.PreferredLanguage, nil
	case FieldGender:
		return r.Gender, nil
	case FieldDateOfBirth:
		return r.DateOfBirth, nil
	case FieldNewsOptIn:
		return r.NewsOptIn, nil
	case FieldConsent:
		return r.Consent, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Text returns the display form of a field value. Unset dates render empty.
func (r Record) Text(f Field) string {
	v, err := r.Get(f)
	if err != nil {
		return ""
	}
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(DateLayout)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	}
	return fmt.Sprint(v)
}

// Set assigns a field value. Strings are accepted for every field and are
// parsed for date and flag fields; an empty string clears a date.
func (r *Record) Set(f Field, value any) error {
	switch f {
	case FieldSerialNumber, FieldModelDescription, FieldShopName,
		FieldFirstName, FieldLastName, FieldEmail,
		FieldCountry, FieldPreferredLanguage, FieldGender:
		s, err := asString(f, value)
		if err != nil {
			return err
		}
		*r.stringField(f) = s
		return nil

	case FieldDateOfPurchase, FieldDateOfBirth:
		t, err := asDate(f, value)
		if err != nil {
			return err
		}
		if f == FieldDateOfPurchase {
			r.DateOfPurchase = t
		} else {
			r.DateOfBirth = t
		}
		return nil

	case FieldNewsOptIn, FieldConsent:
		b, err := asBool(f, value)
		if err != nil {
			return err
		}
		if f == FieldNewsOptIn {
			r.NewsOptIn = b
		} else {
			r.Consent = b
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, f)
}

func (r *Record) stringField(f Field) *string {
	switch f {
	case FieldSerialNumber:
		return &r.SerialNumber
	case FieldModelDescription:
		return &r.ModelDescription
	case FieldShopName:
		return &r.ShopName
	case FieldFirstName:
		return &r.FirstName
	case FieldLastName:
		return &r.LastName
	case FieldEmail:
		return &r.Email
	case FieldCountry:
		return &r.Country
	case FieldPreferredLanguage:
		return &r.PreferredLanguage
	default:
		return &r.Gender
	}
}

// ApplyBike merges verified bike details into the record, leaving every
// other field untouched.
func (r *Record) ApplyBike(serial, model, shop string) {
	r.SerialNumber = serial
	r.ModelDescription = model
	r.ShopName = shop
}

// ParseDate parses a calendar date in DateLayout. Blank input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expected date as %s", ErrInvalidValue, DateLayout)
	}
	return t, nil
}

func asString(f Field, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%w: %s expects text, got %T", ErrInvalidValue, f, value)
}

func asDate(f Field, value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	case string:
		t, err := ParseDate(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", f, err)
		}
		return t, nil
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s expects a date, got %T", ErrInvalidValue, f, value)
}

func asBool(f Field, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s expects true or false", ErrInvalidValue, f)
		}
		return b, nil
	}
	return false, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, f, value)
}
