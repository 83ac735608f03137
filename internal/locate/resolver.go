package locate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mohammed-shakir/career-locator/internal/core/observability"
	"github.com/mohammed-shakir/career-locator/internal/geo"
)

// Option configures a Resolver.
type Option func(*Resolver)

func WithPolicy(p Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

func WithRegion(reg geo.Region) Option {
	return func(r *Resolver) { r.region = reg }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

type Resolver struct {
	locator Locator
	policy  Policy
	region  geo.Region
	logger  *slog.Logger
}

// NewResolver builds a resolver. A nil locator means the host has no location
// capability and every call fails with Unsupported.
func NewResolver(loc Locator, opts ...Option) *Resolver {
	r := &Resolver{
		locator: loc,
		policy:  DefaultPolicy(),
		region:  geo.Mongolia,
		logger:  slog.Default(),
	}
	for _, f := range opts {
		f(r)
	}
	return r
}

// Resolve runs at most MaxAttempts sequential requests and always returns a
// Result; expected failures are reported as Failed(kind), never as errors.
func (r *Resolver) Resolve(ctx context.Context, class DeviceClass) Result {
	res := r.resolve(ctx, class)
	outcome := "resolved"
	if !res.OK {
		outcome = res.Kind.String()
	}
	observability.ObserveLocateResult(class.String(), outcome, res.Attempts)
	r.logger.DebugContext(ctx, "locate done",
		"device", class.String(),
		"result", res.String(),
		"attempts", res.Attempts,
		"out_of_region", res.OutOfRegion)
	return res
}

func (r *Resolver) resolve(ctx context.Context, class DeviceClass) Result {
	if r.locator == nil {
		return Failed(Unsupported)
	}

	p := r.policy.For(class)
	limit := p.attempts()

	var (
		last           Fix
		haveFix        bool
		timeoutRetried bool
	)

	for attempt := 1; attempt <= limit; attempt++ {
		fix, err := r.locator.CurrentPosition(ctx, p.options(attempt))
		if err != nil {
			kind := Classify(err)
			observability.ObserveLocateAttempt(class.String(), kind.String())
			if haveFix {
				// a retry for region reasons failed; keep the fix we already have
				return accepted(last, attempt, true)
			}
			if kind == Timeout && p.RetryOnTimeout && !timeoutRetried && attempt < limit && ctx.Err() == nil {
				timeoutRetried = true
				r.logger.DebugContext(ctx, "locate timeout, retrying",
					"device", class.String(), "attempt", attempt)
				continue
			}
			out := Failed(kind)
			out.Attempts = attempt
			return out
		}

		inRegion := r.region.Contains(fix.Coordinate)
		if inRegion {
			observability.ObserveLocateAttempt(class.String(), "resolved")
			return accepted(fix, attempt, false)
		}
		observability.ObserveLocateAttempt(class.String(), "out_of_region")

		last, haveFix = fix, true
		if !p.RetryOutOfRegion || attempt == limit || ctx.Err() != nil {
			return accepted(fix, attempt, true)
		}
		r.logger.DebugContext(ctx, "locate fix outside region, retrying",
			"device", class.String(),
			"attempt", attempt,
			"coord", fix.Coordinate.String(),
			"region", r.region.String())
	}

	// unreachable with limit >= 1
	out := Failed(Unknown)
	out.Attempts = limit
	return out
}

func accepted(f Fix, attempts int, outOfRegion bool) Result {
	res := Resolved(f.Coordinate, f.AccuracyMeters)
	res.Attempts = attempts
	res.OutOfRegion = outOfRegion
	return res
}

// Ticket identifies one location request generation.
type Ticket uint64

// Tracker hands out tickets so that results of superseded requests can be dropped.
type Tracker struct {
	gen atomic.Uint64
}

// Begin starts a new request and invalidates every earlier ticket.
func (t *Tracker) Begin() Ticket { return Ticket(t.gen.Add(1)) }

// Accept reports whether tk belongs to the latest request.
func (t *Tracker) Accept(tk Ticket) bool {
	return tk != 0 && uint64(tk) == t.gen.Load()
}

// Cancel abandons the in-flight request.
func (t *Tracker) Cancel() { t.gen.Add(1) }

// ResolveTracked resolves under a fresh ticket and delivers the result only when
// the ticket is still current.
func (r *Resolver) ResolveTracked(ctx context.Context, class DeviceClass, t *Tracker, deliver func(Ticket, Result)) Ticket {
	tk := t.Begin()
	res := r.Resolve(ctx, class)
	if t.Accept(tk) {
		deliver(tk, res)
	}
	return tk
}
