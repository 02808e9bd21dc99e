// Package registration holds the bike registration record shared by every
// workflow step and the schema that decides whether it is valid.
package registration

// Field names a single value of the registration record. The string value is
// the JSON key used on the wire and in validation messages.
type Field string

// Record fields.
const (
	FieldSerialNumber      Field = "serialNumber"
	FieldModelDescription  Field = "modelDescription"
	FieldShopName          Field = "shopName"
	FieldDateOfPurchase    Field = "dateOfPurchase"
	FieldFirstName         Field = "firstName"
	FieldLastName          Field = "lastName"
	FieldEmail             Field = "email"
	FieldCountry           Field = "country"
	FieldPreferredLanguage Field = "preferredLanguage"
	FieldGender            Field = "gender"
	FieldDateOfBirth       Field = "dateOfBirth"
	FieldNewsOptIn         Field = "newsOptIn"
	FieldConsent           Field = "consent"
)

// Kind describes how a field's value is entered and stored.
type Kind int

const (
	// KindText is free text.
	KindText Kind = iota
	// KindChoice is a selection from a fixed option set.
	KindChoice
	// KindDate is a calendar date.
	KindDate
	// KindFlag is a boolean checkbox.
	KindFlag
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChoice:
		return "choice"
	case KindDate:
		return "date"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Spec describes a field for presentation layers.
type Spec struct {
	Field       Field
	Label       string
	Kind        Kind
	Required    bool
	ReadOnly    bool // Populated by verification, never edited by the user
	Placeholder string
}

var specs = map[Field]Spec{
	FieldSerialNumber:      {Field: FieldSerialNumber, Label: "Serial Number", Kind: KindText, Placeholder: "Bike serial number"},
	FieldModelDescription:  {Field: FieldModelDescription, Label: "Model Description", Kind: KindText, ReadOnly: true},
	FieldShopName:          {Field: FieldShopName, Label: "Shop Name", Kind: KindText, ReadOnly: true},
	FieldDateOfPurchase:    {Field: FieldDateOfPurchase, Label: "Date of Purchase", Kind: KindDate, Required: true, Placeholder: DateLayout},
	FieldFirstName:         {Field: FieldFirstName, Label: "First Name", Kind: KindText, Required: true, Placeholder: "John"},
	FieldLastName:          {Field: FieldLastName, Label: "Last Name", Kind: KindText, Required: true, Placeholder: "Doe"},
	FieldEmail:             {Field: FieldEmail, Label: "Email", Kind: KindText, Required: true, Placeholder: "john@example.com"},
	FieldCountry:           {Field: FieldCountry, Label: "Country", Kind: KindChoice, Required: true},
	FieldPreferredLanguage: {Field: FieldPreferredLanguage, Label: "Preferred Language", Kind: KindChoice, Required: true},
	FieldGender:            {Field: FieldGender, Label: "Gender", Kind: KindChoice, Required: true},
	FieldDateOfBirth:       {Field: FieldDateOfBirth, Label: "Date of Birth", Kind: KindDate, Required: true, Placeholder: DateLayout},
	FieldNewsOptIn:         {Field: FieldNewsOptIn, Label: "I agree to receive News and Updates.", Kind: KindFlag},
	FieldConsent:           {Field: FieldConsent, Label: "I have read and accept the privacy policy.", Kind: KindFlag, Required: true},
}

// AllFields returns every record field in display order.
func AllFields() []Field {
	return []Field{
		FieldSerialNumber,
		FieldModelDescription,
		FieldShopName,
		FieldDateOfPurchase,
		FieldFirstName,
		FieldLastName,
		FieldEmail,
		FieldCountry,
		FieldPreferredLanguage,
		FieldGender,
		FieldDateOfBirth,
		FieldNewsOptIn,
		FieldConsent,
	}
}

// SpecFor returns the presentation spec of a field.
func SpecFor(f Field) (Spec, bool) {
	s, ok := specs[f]
	return s, ok
}

// Valid reports whether f is a known record field.
func (f Field) Valid() bool {
	_, ok := specs[f]
	return ok
}

// String implements fmt.Stringer.
func (f Field) String() string {
	return string(f)
}
