package identity

import (
	"errors"
	"strings"
)

// Kind distinguishes the two identity channels an OTP can be bound to.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// ErrEmptyKey is returned when neither an email nor a phone value is supplied.
var ErrEmptyKey = errors.New("identity key is empty")

// Key is a tagged email-or-phone identity. It is constructed at the HTTP
// boundary so the rest of the core never dispatches on string shape.
type Key struct {
	Kind  Kind
	Value string
}

// Parse classifies a raw key the way clients submit it: anything containing
// an "@" is an email, everything else is a phone number. Emails are lowercased
// to match the uniqueness rules on the users table.
func Parse(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}, ErrEmptyKey
	}
	if strings.Contains(raw, "@") {
		return Key{Kind: KindEmail, Value: strings.ToLower(raw)}, nil
	}
	return Key{Kind: KindPhone, Value: raw}, nil
}

// Email returns an email-kind key.
func Email(addr string) Key {
	return Key{Kind: KindEmail, Value: strings.ToLower(strings.TrimSpace(addr))}
}

// Phone returns a phone-kind key.
func Phone(number string) Key {
	return Key{Kind: KindPhone, Value: strings.TrimSpace(number)}
}

// IsEmail reports whether the key is an email address.
func (k Key) IsEmail() bool { return k.Kind == KindEmail }

func (k Key) String() string { return k.Value }
