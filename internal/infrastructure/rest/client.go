// Package rest talks to the JSON auth backend: signup, signin and password
// reset. Replies are decoded into tagged shapes here, at the boundary, so the
// rest of the module never guesses at response layouts.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/pkg/metrics"
)

const (
	endpointSignUp        = "signup"
	endpointSignIn        = "signin"
	endpointResetPassword = "reset-password"

	maxBodyBytes = 1 << 20
)

var tracer = otel.Tracer("github.com/99minutos/console-auth/internal/infrastructure/rest")

// Client implements ports.AuthAPI over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// New parses baseURL and returns a Client. httpClient should already carry the
// bearer interceptor.
func New(baseURL string, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("auth api url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: u, http: httpClient, log: log}, nil
}

type signUpRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Password  string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// SignUp posts {email, first_name, password} to {base}/signup.
func (c *Client) SignUp(ctx context.Context, email, firstName, password string) (*domain.AuthResult, error) {
	body, err := c.post(ctx, endpointSignUp, signUpRequest{Email: email, FirstName: firstName, Password: password})
	if err != nil {
		return nil, err
	}
	return c.decode(endpointSignUp, body)
}

// SignIn posts {email, password} to {base}/signin.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	body, err := c.post(ctx, endpointSignIn, signInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.decode(endpointSignIn, body)
}

// ResetPassword posts {email} to {base}/reset-password and returns the reply untouched.
func (c *Client) ResetPassword(ctx context.Context, email string) (json.RawMessage, error) {
	body, err := c.post(ctx, endpointResetPassword, resetPasswordRequest{Email: email})
	if err != nil {
		return nil, err
	}
	metrics.AuthRequestsTotal.WithLabelValues(endpointResetPassword, "ok").Inc()
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

func (c *Client) decode(endpoint string, body []byte) (*domain.AuthResult, error) {
	res, err := DecodeAuthResponse(body)
	if err != nil {
		metrics.AuthRequestsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	metrics.AuthRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	c.log.Debug().Str("endpoint", endpoint).Str("shape", string(res.Shape)).Bool("token", res.Token != "").Msg("auth response decoded")
	return res, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "auth."+endpoint)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.AuthRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", endpoint, err)
	}

	target := c.base.JoinPath(endpoint).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	span.SetAttributes(
		attribute.String("http.url", target),
		attribute.String("request.id", requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.AuthRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.AuthRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.AuthRequestsTotal.WithLabelValues(endpoint, "api_error").Inc()
		apiErr := convertError(resp.StatusCode, body)
		span.SetStatus(codes.Error, apiErr.Error())
		c.log.Debug().
			Str("endpoint", endpoint).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Msg("auth backend rejected request")
		return nil, fmt.Errorf("%s: %w", endpoint, apiErr)
	}
	return body, nil
}

// convertError builds an APIError from an error body. Backends disagree on the
// field names, so message, error and a numeric or string code are all accepted.
func convertError(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{Status: status}

	var payload struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) && len(body) > 0 && len(body) < 256 {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}
	if len(payload.Code) > 0 && string(payload.Code) != "null" {
		apiErr.Code = strings.Trim(string(payload.Code), `"`)
	}
	return apiErr
}
