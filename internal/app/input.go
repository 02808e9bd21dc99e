package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bikereg/internal/domain/config"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
)

// RecordInput is the user-entered part of a registration, as read from a
// submit input file. Model and shop are supplied by verification.
type RecordInput struct {
	SerialNumber      string `yaml:"serialNumber" json:"serialNumber"`
	DateOfPurchase    string `yaml:"dateOfPurchase" json:"dateOfPurchase"`
	FirstName         string `yaml:"firstName" json:"firstName"`
	LastName          string `yaml:"lastName" json:"lastName"`
	Email             string `yaml:"email" json:"email"`
	Country           string `yaml:"country" json:"country"`
	PreferredLanguage string `yaml:"preferredLanguage" json:"preferredLanguage"`
	Gender            string `yaml:"gender" json:"gender"`
	DateOfBirth       string `yaml:"dateOfBirth" json:"dateOfBirth"`
	NewsOptIn         bool   `yaml:"newsOptIn" json:"newsOptIn"`
	Consent           bool   `yaml:"consent" json:"consent"`
}

type fieldValue struct {
	field registration.Field
	value any
}

func (in RecordInput) bikeValues() []fieldValue {
	return []fieldValue{
		{registration.FieldDateOfPurchase, in.DateOfPurchase},
	}
}

func (in RecordInput) personalValues() []fieldValue {
	return []fieldValue{
		{registration.FieldFirstName, in.FirstName},
		{registration.FieldLastName, in.LastName},
		{registration.FieldEmail, in.Email},
		{registration.FieldCountry, in.Country},
		{registration.FieldPreferredLanguage, in.PreferredLanguage},
		{registration.FieldGender, in.Gender},
		{registration.FieldDateOfBirth, in.DateOfBirth},
		{registration.FieldNewsOptIn, in.NewsOptIn},
		{registration.FieldConsent, in.Consent},
	}
}

// Record converts the input into a registration record, normalizing choice
// values the same way the interactive form does.
func (in RecordInput) Record() (registration.Record, error) {
	values := []fieldValue{{registration.FieldSerialNumber, in.SerialNumber}}
	values = append(values, in.bikeValues()...)
	values = append(values, in.personalValues()...)

	var r registration.Record
	for _, v := range values {
		value := v.value
		if s, ok := value.(string); ok {
			if spec, _ := registration.SpecFor(v.field); spec.Kind == registration.KindChoice {
				value = registration.NormalizeChoice(v.field, s)
			}
		}
		if err := r.Set(v.field, value); err != nil {
			return registration.Record{}, fmt.Errorf("%s: %w", v.field, err)
		}
	}
	return r, nil
}

// ParseInput decodes a record input file. Files ending in .json are read as
// JSON, everything else as YAML. Unknown keys are rejected.
func ParseInput(path string, data []byte) (RecordInput, error) {
	var in RecordInput

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return RecordInput{}, config.NewConfigParseError(path, err).
				WithSuggestion("Use the registration field names, e.g. {\"serialNumber\": \"...\", \"consent\": true}.")
		}
		return in, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return RecordInput{}, config.NewYAMLParseError(path, err)
	}
	return in, nil
}
