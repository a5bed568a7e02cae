// Package effects runs the side effects triggered by authentication actions.
package effects

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
	"github.com/99minutos/console-auth/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/99minutos/console-auth/internal/core/effects")

// Handler reacts to one action and returns the actions to dispatch next.
type Handler func(ctx context.Context, action domain.Action) []domain.Action

type route struct {
	handler  Handler
	inFlight atomic.Bool
}

// Runner executes one handler per action type. A trigger that arrives while the
// previous run for the same type is still executing is dropped, not queued.
type Runner struct {
	routes   map[domain.ActionType]*route
	dispatch ports.Dispatcher
	log      zerolog.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

func NewRunner(dispatch ports.Dispatcher, log zerolog.Logger) *Runner {
	return &Runner{
		routes:   make(map[domain.ActionType]*route),
		dispatch: dispatch,
		log:      log,
		ctx:      context.Background(),
	}
}

// On registers h for actions of type t. Call before Start.
func (r *Runner) On(t domain.ActionType, h Handler) {
	r.routes[t] = &route{handler: h}
}

// Start sets the context handlers run under. Call before the runner is attached
// to a store.
func (r *Runner) Start(ctx context.Context) {
	r.ctx = ctx
}

// Wait blocks until every running handler has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Handle is the store listener. It never blocks.
func (r *Runner) Handle(action domain.Action) {
	rt, ok := r.routes[action.Type]
	if !ok {
		return
	}
	if !rt.inFlight.CompareAndSwap(false, true) {
		metrics.ActionsDroppedTotal.WithLabelValues(string(action.Type)).Inc()
		r.log.Debug().
			Str("action", string(action.Type)).
			Str("action_id", action.ID).
			Msg("effect in flight, trigger ignored")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		emitted := r.run(rt.handler, action)
		// Cleared before the outcome is dispatched so a caller reacting to it
		// can trigger the effect again.
		rt.inFlight.Store(false)
		for _, a := range emitted {
			r.dispatch.Dispatch(a)
		}
	}()
}

func (r *Runner) run(h Handler, action domain.Action) []domain.Action {
	ctx, span := tracer.Start(r.ctx, "effect "+string(action.Type))
	defer span.End()
	span.SetAttributes(
		attribute.String("action.type", string(action.Type)),
		attribute.String("action.id", action.ID),
	)

	start := time.Now()
	emitted := h(ctx, action)

	outcome := "ok"
	for _, a := range emitted {
		if a.Err != nil {
			outcome = string(a.Type)
			span.RecordError(a.Err)
			span.SetStatus(codes.Error, a.Err.Error())
		}
	}
	metrics.EffectDuration.WithLabelValues(string(action.Type), outcome).Observe(time.Since(start).Seconds())
	return emitted
}
