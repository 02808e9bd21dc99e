package registration

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

var countryCodes = []string{
	"AT", "BE", "CH", "DE", "DK", "ES", "FI", "FR", "GB",
	"IE", "IT", "LU", "NL", "NO", "PT", "SE", "TW", "US",
}

var countryNames = map[string]string{
	"AT": "Austria",
	"BE": "Belgium",
	"CH": "Switzerland",
	"DE": "Germany",
	"DK": "Denmark",
	"ES": "Spain",
	"FI": "Finland",
	"FR": "France",
	"GB": "United Kingdom",
	"IE": "Ireland",
	"IT": "Italy",
	"LU": "Luxembourg",
	"NL": "Netherlands",
	"NO": "Norway",
	"PT": "Portugal",
	"SE": "Sweden",
	"TW": "Taiwan",
	"US": "United States",
}

var languageTags = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Italian,
	language.Spanish,
	language.Dutch,
	language.Portuguese,
	language.Swedish,
	language.TraditionalChinese,
}

var languageNames = map[string]string{
	"en":      "english",
	"de":      "german",
	"fr":      "french",
	"it":      "italian",
	"es":      "spanish",
	"nl":      "dutch",
	"pt":      "portuguese",
	"sv":      "swedish",
	"zh-Hant": "traditional chinese",
}

var genders = []string{"female", "male", "diverse", "unspecified"}

var languageMatcher = language.NewMatcher(languageTags)

// CountryOptions returns the selectable countries, keyed by ISO 3166 code.
func CountryOptions() []Option {
	out := make([]Option, 0, len(countryCodes))
	for _, code := range countryCodes {
		out = append(out, Option{Value: code, Label: countryNames[code]})
	}
	return out
}

// LanguageOptions returns the selectable languages, keyed by BCP 47 tag.
func LanguageOptions() []Option {
	caser := cases.Title(language.English)
	out := make([]Option, 0, len(languageTags))
	for _, tag := range languageTags {
		value := tag.String()
		out = append(out, Option{Value: value, Label: caser.String(languageNames[value])})
	}
	return out
}

// GenderOptions returns the selectable genders.
func GenderOptions() []Option {
	caser := cases.Title(language.English)
	out := make([]Option, 0, len(genders))
	for _, g := range genders {
		out = append(out, Option{Value: g, Label: caser.String(g)})
	}
	return out
}

// OptionsFor returns the option set of a choice field, or nil.
func OptionsFor(f Field) []Option {
	switch f {
	case FieldCountry:
		return CountryOptions()
	case FieldPreferredLanguage:
		return LanguageOptions()
	case FieldGender:
		return GenderOptions()
	}
	return nil
}

// IsCountry reports whether code is a selectable country.
func IsCountry(code string) bool {
	_, ok := countryNames[code]
	return ok
}

// IsLanguage reports whether s parses as a BCP 47 tag that exactly matches
// a selectable language.
func IsLanguage(s string) bool {
	tag, err := language.Parse(s)
	if err != nil {
		return false
	}
	_, _, conf := languageMatcher.Match(tag)
	if conf != language.Exact {
		return false
	}
	_, ok := languageNames[tag.String()]
	return ok
}

// IsGender reports whether g is a selectable gender.
func IsGender(g string) bool {
	for _, v := range genders {
		if v == g {
			return true
		}
	}
	return false
}

// NormalizeChoice maps user input to the canonical option value of a choice
// field, matching values and labels case-insensitively. Unknown input is
// returned unchanged so validation can reject it.
func NormalizeChoice(f Field, input string) string {
	in := strings.TrimSpace(input)
	for _, opt := range OptionsFor(f) {
		if strings.EqualFold(opt.Value, in) || strings.EqualFold(opt.Label, in) {
			return opt.Value
		}
	}
	return in
}
