// Package httpclient builds the outgoing HTTP stack: a bearer-token
// interceptor over the default transport.
package httpclient

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
)

// BearerTransport attaches the persisted session token to every request.
//
// Token lookup order: currentUser.token, currentUser.data.token, then the
// standalone token key. A persisted record that cannot be parsed means no
// token at all; the request still goes out.
type BearerTransport struct {
	Base  http.RoundTripper
	Store ports.KeyValueStore
	Log   zerolog.Logger
}

// NewBearerTransport wraps base (http.DefaultTransport when nil).
func NewBearerTransport(base http.RoundTripper, store ports.KeyValueStore, log zerolog.Logger) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &BearerTransport{Base: base, Store: store, Log: log}
}

// RoundTrip implements http.RoundTripper. The caller's request is never
// modified; a clone carries the header.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.resolveToken(req); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.Base.RoundTrip(req)
}

func (t *BearerTransport) resolveToken(req *http.Request) string {
	ctx := req.Context()

	raw, ok, err := t.Store.Get(ctx, domain.KeyCurrentUser)
	if err != nil {
		t.Log.Warn().Err(err).Msg("interceptor: read persisted session")
		return ""
	}
	var recordToken string
	if ok && raw != "" {
		var record any
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			t.Log.Warn().Err(err).Msg("interceptor: persisted session is not valid JSON")
			return ""
		}
		if obj, ok := record.(map[string]any); ok {
			recordToken = domain.TokenFromRecord(obj)
		}
	}

	return domain.ResolveToken(recordToken, func() string {
		tok, _, err := t.Store.Get(ctx, domain.KeyToken)
		if err != nil {
			t.Log.Warn().Err(err).Msg("interceptor: read persisted token")
			return ""
		}
		return tok
	})
}

// NewClient returns an http.Client whose requests pass through BearerTransport.
func NewClient(store ports.KeyValueStore, timeout time.Duration, log zerolog.Logger) *http.Client {
	return &http.Client{
		Transport: NewBearerTransport(http.DefaultTransport, store, log),
		Timeout:   timeout,
	}
}
