package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization level granted to a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Persisted session keys.
const (
	KeyCurrentUser = "currentUser"
	KeyToken       = "token"
)

// User models the authenticated principal. Every field is optional: backends
// answer with different shapes and the record keeps whatever they send.
type User struct {
	ID        string         `json:"id,omitempty"`
	Email     string         `json:"email,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	Role      Role           `json:"role,omitempty"`
	Token     string         `json:"token,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// UnmarshalJSON accepts the id as either a JSON string or a number. Backends
// disagree on which one they send.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		ID json.RawMessage `json:"id,omitempty"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		u.ID = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &u.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		u.ID = n.String()
	}
	return nil
}

// DefaultRoleFor guesses a role from an email address when the backend omits it.
func DefaultRoleFor(email string) Role {
	if strings.Contains(strings.ToLower(email), "admin") {
		return RoleAdmin
	}
	return RoleUser
}

// EffectiveRole returns the top-level role, falling back to data.role.
func (u *User) EffectiveRole() Role {
	if u == nil {
		return ""
	}
	if u.Role != "" {
		return u.Role
	}
	if r, ok := u.Data["role"].(string); ok {
		return Role(r)
	}
	return ""
}

// SessionToken is the token the record itself carries: token, then data.token.
func (u *User) SessionToken() string {
	if u == nil {
		return ""
	}
	return TokenFromRecord(map[string]any{"token": u.Token, "data": u.Data})
}

// TokenFromRecord reads the token out of a decoded persisted user record:
// its token field, then data.token. Empty strings count as absent.
func TokenFromRecord(record map[string]any) string {
	if tok, _ := record["token"].(string); tok != "" {
		return tok
	}
	if data, ok := record["data"].(map[string]any); ok {
		if tok, _ := data["token"].(string); tok != "" {
			return tok
		}
	}
	return ""
}

// ResolveToken picks the bearer token for outgoing requests: the record's own
// token when it has one, otherwise the standalone key. standalone is only
// called when needed.
func ResolveToken(recordToken string, standalone func() string) string {
	if recordToken != "" {
		return recordToken
	}
	if standalone == nil {
		return ""
	}
	return standalone()
}

// Clone returns a deep-enough copy: the nested payload map is copied one level.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Data != nil {
		c.Data = make(map[string]any, len(u.Data))
		for k, v := range u.Data {
			c.Data[k] = v
		}
	}
	return &c
}

// ProviderProfile is the subset of a third-party identity we keep.
type ProviderProfile struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
}

// AuthResult is a sign-in or sign-up reply decoded at the transport boundary.
type AuthResult struct {
	Shape ResponseShape
	User  *User
	Token string
}

// ResponseShape tags which backend reply layout an AuthResult was decoded from.
type ResponseShape string

const (
	// ShapeNested is {"user": {...}, "token": "..."}.
	ShapeNested ResponseShape = "nested"
	// ShapeEnvelope is {"data": {...}, "token": "..."}.
	ShapeEnvelope ResponseShape = "envelope"
	// ShapeFlat is {"email": "...", ..., "token": "..."}.
	ShapeFlat ResponseShape = "flat"
)
