// Package locate resolves a best-effort visitor position from a device location
// capability, with a bounded, device-aware retry policy.
package locate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

// Platform error codes, as reported by the device location capability.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// Options are the per-request parameters handed to the capability.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Fix is one successful position reading.
type Fix struct {
	Coordinate     model.Coordinate
	AccuracyMeters float64
}

// Locator is a single-shot "get current position" capability. Each call resolves
// or fails exactly once; timeouts are enforced by the implementation.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Fix, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, opts Options) (Fix, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context, opts Options) (Fix, error) {
	return f(ctx, opts)
}

// PositionError is a capability failure carrying its numeric code.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("position error code %d", e.Code)
	}
	return fmt.Sprintf("position error code %d: %s", e.Code, e.Message)
}

// ErrorKind is the classified reason a location request failed. The zero value
// is Unknown.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	PermissionDenied
	PositionUnavailable
	Timeout
	Unsupported
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ParseErrorKind reads a machine code such as "timeout"; anything else is Unknown.
func ParseErrorKind(s string) ErrorKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permission_denied":
		return PermissionDenied
	case "position_unavailable":
		return PositionUnavailable
	case "timeout":
		return Timeout
	case "unsupported":
		return Unsupported
	default:
		return Unknown
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ErrorKind) UnmarshalText(b []byte) error {
	*k = ParseErrorKind(string(b))
	return nil
}

// Classify maps a capability error to an ErrorKind. Unrecognised codes are Unknown.
func Classify(err error) ErrorKind {
	if err == nil {
		return Unknown
	}
	var pe *PositionError
	if errors.As(err, &pe) {
		switch pe.Code {
		case CodePermissionDenied:
			return PermissionDenied
		case CodePositionUnavailable:
			return PositionUnavailable
		case CodeTimeout:
			return Timeout
		default:
			return Unknown
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return Unknown
}

// Result is Resolved(coordinate, accuracy) or Failed(kind).
type Result struct {
	OK             bool
	Coordinate     model.Coordinate
	AccuracyMeters float64
	Kind           ErrorKind
	// set when the fix was accepted although it lies outside the plausibility region
	OutOfRegion bool
	Attempts    int
}

// Resolved is a successful result.
func Resolved(c model.Coordinate, accuracy float64) Result {
	return Result{OK: true, Coordinate: c, AccuracyMeters: accuracy}
}

func Failed(kind ErrorKind) Result {
	return Result{Kind: kind}
}

func (r Result) String() string {
	if r.OK {
		return fmt.Sprintf("resolved(%s, ±%.0fm)", r.Coordinate, r.AccuracyMeters)
	}
	return fmt.Sprintf("failed(%s)", r.Kind)
}

// Source says where a reference position came from.
type Source string

const (
	SourceDevice   Source = "device"
	SourceManual   Source = "manual"
	SourceFallback Source = "fallback"
)

// DefaultFallback is the Ulaanbaatar city centre.
var DefaultFallback = model.Coordinate{Lat: 47.9187, Lng: 106.9177}

// WithFallback picks the resolved coordinate or the fallback one.
func WithFallback(r Result, fallback model.Coordinate) (model.Coordinate, Source) {
	if r.OK {
		return r.Coordinate, SourceDevice
	}
	return fallback, SourceFallback
}
