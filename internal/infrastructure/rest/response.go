package rest

import (
	"encoding/json"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// userFields are the keys that make a flat object look like a user record.
var userFields = []string{"id", "email", "first_name"}

// DecodeAuthResponse classifies body into one of the known reply shapes:
//
//	{"user": {...}, "token": "..."}   nested
//	{"data": {...}, "token": "..."}   envelope
//	{"email": "...", "token": "..."}  flat
//
// Anything else is a *domain.DecodeError.
func DecodeAuthResponse(body []byte) (*domain.AuthResult, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, &domain.DecodeError{Reason: "body is not a JSON object", Err: err}
	}
	if root == nil {
		return nil, &domain.DecodeError{Reason: "body is null"}
	}

	rootToken, err := stringField(root, "token")
	if err != nil {
		return nil, err
	}

	if raw, ok := root["user"]; ok && isObject(raw) {
		return decodeUser(domain.ShapeNested, raw, rootToken)
	}
	if raw, ok := root["data"]; ok && isObject(raw) {
		return decodeUser(domain.ShapeEnvelope, raw, rootToken)
	}
	for _, f := range userFields {
		if _, ok := root[f]; ok {
			return decodeUser(domain.ShapeFlat, body, rootToken)
		}
	}
	return nil, &domain.DecodeError{Reason: "no user record in response"}
}

func decodeUser(shape domain.ResponseShape, raw json.RawMessage, rootToken string) (*domain.AuthResult, error) {
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &domain.DecodeError{Reason: string(shape) + " user record", Err: err}
	}
	token := rootToken
	if token == "" {
		token = u.Token
	}
	if token == "" {
		if t, ok := u.Data["token"].(string); ok {
			token = t
		}
	}
	return &domain.AuthResult{Shape: shape, User: &u, Token: token}, nil
}

func stringField(root map[string]json.RawMessage, key string) (string, error) {
	raw, ok := root[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &domain.DecodeError{Reason: key + " is not a string", Err: err}
	}
	return s, nil
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
