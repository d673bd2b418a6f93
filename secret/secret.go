// Package secret contains secrets to use in the application.
//
// Its purpose is to deal with sensitive configuration, like database passwords,
// that must never end up in a log line or a status page.
package secret

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidValue = errors.New("invalid secret value")

const mask = "******"

func New(secret string) Secret {
	return Secret{secret: &secret}
}

// Secret masks its value in every textual representation.
type Secret struct {
	// secret is a pointer, so the zero value and fmt's %#v do not print the value.
	secret *string
}

// Secret returns the actual value of the Secret.
func (s Secret) Secret() string {
	if s.secret == nil {
		return ""
	}

	return *s.secret
}

func (s Secret) String() string {
	return mask
}

func (s Secret) GoString() string {
	return mask
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String()) //nolint:wrapcheck // export the underlying error
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var des string
	if err := json.Unmarshal(data, &des); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	s.secret = &des

	return nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is used by viper/mapstructure to decode config values.
func (s *Secret) UnmarshalText(data []byte) error {
	text := string(data)
	s.secret = &text

	return nil
}

func (s *Secret) Scan(value any) error {
	var str string

	switch v := value.(type) {
	case nil:
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("%w: can not scan %T", ErrInvalidValue, value)
	}

	s.secret = &str

	return nil
}

func (s Secret) Value() (driver.Value, error) {
	return s.Secret(), nil
}
