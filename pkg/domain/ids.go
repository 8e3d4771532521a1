// Package domain holds the typed identifiers shared across the onboarding web tier.
//
// Every identifier wraps a uuid.UUID so that an organization id can never be
// passed where an onboarding session id is expected. Parse functions are the
// trust boundary: they reject empty, malformed, and nil UUIDs with
// CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "aplite/pkg/domain-errors"
)

// UserID identifies the authenticated account driving the wizard.
type UserID uuid.UUID

// OrgID identifies the organization being onboarded.
type OrgID uuid.UUID

// SessionID identifies a server-side onboarding session.
type SessionID uuid.UUID

// Namespace identifies one browser session's draft storage scope.
type Namespace uuid.UUID

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id OrgID) String() string     { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id Namespace) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OrgID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id Namespace) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = SessionID{}
		return nil
	}
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id OrgID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *OrgID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = OrgID{}
		return nil
	}
	parsed, err := ParseOrgID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id UserID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id Namespace) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Namespace) UnmarshalText(b []byte) error {
	parsed, err := ParseNamespace(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewNamespace mints a fresh draft namespace for a new browser session.
func NewNamespace() Namespace {
	return Namespace(uuid.New())
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseOrgID(s string) (OrgID, error) {
	u, err := parseUUID(s, "org id")
	return OrgID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	return SessionID(u), err
}

func ParseNamespace(s string) (Namespace, error) {
	u, err := parseUUID(s, "namespace")
	return Namespace(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}
