package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/felixgeelhaar/bikereg/internal/validation"
)

// SearchPaths are tried in order when no explicit path is given.
var SearchPaths = []string{
	"bikereg.yaml",
	"bikereg.yml",
	"bikereg.toml",
	"bikereg.ini",
	"~/.config/bikereg/bikereg.yaml",
}

// Loader resolves Settings from a file and the environment.
type Loader struct {
	fs      ports.FileSystem
	getenv  func(string) string
	version string
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithGetenv replaces the environment lookup.
func WithGetenv(getenv func(string) string) LoaderOption {
	return func(l *Loader) {
		l.getenv = getenv
	}
}

// WithVersion sets the version reported in the default user agent.
func WithVersion(version string) LoaderOption {
	return func(l *Loader) {
		l.version = version
	}
}

// NewLoader creates a Loader reading through fs.
func NewLoader(fs ports.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:     fs,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads settings from path, or from the first existing search path
// when path is empty. A missing search path is not an error: defaults and
// environment overrides still apply.
func (l *Loader) Load(path string) (Settings, string, error) {
	settings := DefaultSettings(l.version)

	source, err := l.locate(path)
	if err != nil {
		return Settings{}, "", err
	}

	if source != "" {
		values, err := l.decode(source)
		if err != nil {
			return Settings{}, "", err
		}
		if err := apply(&settings, source, values); err != nil {
			return Settings{}, "", err
		}
	}

	if err := l.applyEnv(&settings); err != nil {
		return Settings{}, "", err
	}

	if err := Validate(settings); err != nil {
		return Settings{}, "", err
	}

	return settings, source, nil
}

func (l *Loader) locate(path string) (string, error) {
	if path != "" {
		if !l.fs.Exists(path) {
			return "", NewConfigNotFoundError(path)
		}
		return path, nil
	}
	for _, candidate := range SearchPaths {
		if l.fs.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// decode parses the file into section -> key -> value.
func (l *Loader) decode(path string) (map[string]map[string]interface{}, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, NewYAMLParseError(path, err)
		}
		return raw, nil

	case ".toml":
		var raw map[string]map[string]interface{}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, NewConfigParseError(path, err)
		}
		return raw, nil

	case ".ini":
		file, err := ini.Load(data)
		if err != nil {
			return nil, NewConfigParseError(path, err)
		}
		raw := make(map[string]map[string]interface{})
		for _, section := range file.Sections() {
			if section.Name() == ini.DefaultSection {
				if len(section.Keys()) > 0 {
					return nil, NewUnknownKeyError(path, section.Keys()[0].Name())
				}
				continue
			}
			values := make(map[string]interface{})
			for _, key := range section.Keys() {
				values[key.Name()] = key.Value()
			}
			raw[section.Name()] = values
		}
		return raw, nil

	default:
		return nil, NewUnsupportedFormatError(path)
	}
}

// apply copies decoded values over the defaults. Unknown keys are rejected.
func apply(settings *Settings, path string, raw map[string]map[string]interface{}) error {
	keys := make([]string, 0)
	for section, values := range raw {
		for key := range values {
			keys = append(keys, section+"."+key)
		}
	}
	sort.Strings(keys)

	errs := NewErrorList()
	for _, key := range keys {
		section, name, _ := strings.Cut(key, ".")
		value := raw[section][name]

		switch key {
		case keyBackendURL:
			settings.Backend.BaseURL = stringValue(value)
		case keyBackendUserAgent:
			settings.Backend.UserAgent = stringValue(value)
		case keyBackendTimeout:
			d, err := durationValue(value)
			if err != nil {
				errs.AddValidation(key, err.Error(), "Use a duration such as 10s or a number of seconds.")
				continue
			}
			settings.Backend.Timeout = d
		case keyMinPurchaseDate:
			t, err := dateValue(value)
			if err != nil {
				errs.AddValidation(key, err.Error(), "Use the YYYY-MM-DD format.")
				continue
			}
			settings.Schema.MinPurchaseDate = t
		case keyLogLevel:
			level, err := ports.ParseLevel(stringValue(value))
			if err != nil {
				errs.AddValidation(key, err.Error(), "Use debug, info, warn or error.")
				continue
			}
			settings.Log.Level = level
		case keyLogJSON:
			b, err := strconv.ParseBool(stringValue(value))
			if err != nil {
				errs.AddValidation(key, "must be true or false", "")
				continue
			}
			settings.Log.JSON = b
		default:
			errs.Add(NewUnknownKeyError(path, key))
		}
	}
	return errs.AsError()
}

func (l *Loader) applyEnv(settings *Settings) error {
	if v := strings.TrimSpace(l.getenv(EnvBackendURL)); v != "" {
		settings.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(l.getenv(EnvLogLevel)); v != "" {
		level, err := ports.ParseLevel(v)
		if err != nil {
			return NewValidationFailedError(EnvLogLevel, err.Error()).
				WithSuggestion("Use debug, info, warn or error.")
		}
		settings.Log.Level = level
	}
	return nil
}

// Validate checks resolved settings and reports every problem found.
func Validate(settings Settings) error {
	errs := NewErrorList()

	switch err := validation.ValidateURL(settings.Backend.BaseURL); {
	case errors.Is(err, validation.ErrEmptyInput):
		errs.AddValidation(keyBackendURL, "is required", "Set backend.base_url or "+EnvBackendURL+".")
	case err != nil:
		errs.Add(NewUserError(ErrCodeValidationFailed, fmt.Sprintf("%s: %q is not an http(s) URL", keyBackendURL, settings.Backend.BaseURL)).
			WithContext(keyBackendURL).
			WithSuggestion("Use a URL such as https://bikes.example.com/api.").
			WithUnderlying(err))
	}

	if settings.Backend.Timeout <= 0 {
		errs.AddValidation(keyBackendTimeout, "must be positive", "")
	}

	if settings.Schema.MinPurchaseDate.IsZero() {
		errs.AddValidation(keyMinPurchaseDate, "is required", "")
	}

	return errs.AsError()
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// durationValue accepts Go durations or a bare number of seconds.
func durationValue(v interface{}) (time.Duration, error) {
	switch val := v.(type) {
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	}

	s := stringValue(v)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// dateValue accepts YAML timestamps, TOML local dates and plain strings.
func dateValue(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC), nil
	case toml.LocalDate:
		return time.Date(val.Year, time.Month(val.Month), val.Day, 0, 0, 0, 0, time.UTC), nil
	}

	s := stringValue(v)
	t, err := registration.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
