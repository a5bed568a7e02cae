package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const closePage = "Signed in. You can close this window and return to the terminal."

type callbackResult struct {
	code string
	err  error
}

// callbackServer receives exactly one provider redirect.
type callbackServer struct {
	state  string
	result chan callbackResult
	once   sync.Once
	log    zerolog.Logger
}

func newCallbackServer(state string, log zerolog.Logger) *callbackServer {
	return &callbackServer{state: state, result: make(chan callbackResult, 1), log: log}
}

func (s *callbackServer) deliver(r callbackResult) {
	s.once.Do(func() { s.result <- r })
}

func (s *callbackServer) handle(c echo.Context) error {
	if e := c.QueryParam("error"); e != "" {
		err := fmt.Errorf("provider denied sign-in: %s %s", e, c.QueryParam("error_description"))
		s.deliver(callbackResult{err: err})
		return c.String(http.StatusBadRequest, "Sign-in was not completed.")
	}
	if c.QueryParam("state") != s.state {
		s.log.Warn().Msg("callback with unexpected state")
		return c.String(http.StatusBadRequest, "Unexpected state.")
	}
	code := c.QueryParam("code")
	if code == "" {
		s.deliver(callbackResult{err: errors.New("callback without authorization code")})
		return c.String(http.StatusBadRequest, "Missing authorization code.")
	}
	s.deliver(callbackResult{code: code})
	return c.String(http.StatusOK, closePage)
}

// serve starts answering on ln and returns a func that shuts the server down.
func (s *callbackServer) serve(ln net.Listener) func() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(callbackPath, s.handle)

	srv := &http.Server{Handler: e, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("callback server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
