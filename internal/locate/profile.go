package locate

import (
	"strings"
	"time"
)

// DeviceClass is a coarse device category used only to pick tuning parameters.
type DeviceClass int

const (
	Desktop DeviceClass = iota
	IOSSafari
	Android
)

func (c DeviceClass) String() string {
	switch c {
	case IOSSafari:
		return "ios_safari"
	case Android:
		return "android"
	default:
		return "desktop"
	}
}

// ParseDeviceClass reads a class name such as "ios" or "android"; anything else is Desktop.
func ParseDeviceClass(s string) DeviceClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ios", "ios_safari", "safari":
		return IOSSafari
	case "android":
		return Android
	default:
		return Desktop
	}
}

// MaxAttempts bounds every profile, whatever it asks for.
const MaxAttempts = 3

// Profile holds the request tuning for one device class.
type Profile struct {
	Timeout      time.Duration
	HighAccuracy bool
	MaximumAge   time.Duration

	// total attempts including the first one, clamped to [1, MaxAttempts]
	MaxAttempts int
	// one extra attempt after a Timeout
	RetryOnTimeout bool
	// re-request while the fix is outside the plausibility region
	RetryOutOfRegion bool

	RetryTimeout      time.Duration
	RetryHighAccuracy bool
}

func (p Profile) attempts() int {
	switch {
	case p.MaxAttempts < 1:
		return 1
	case p.MaxAttempts > MaxAttempts:
		return MaxAttempts
	}
	return p.MaxAttempts
}

func (p Profile) options(attempt int) Options {
	if attempt <= 1 {
		return Options{HighAccuracy: p.HighAccuracy, Timeout: p.Timeout, MaximumAge: p.MaximumAge}
	}
	t := p.RetryTimeout
	if t <= 0 {
		t = p.Timeout
	}
	return Options{HighAccuracy: p.RetryHighAccuracy, Timeout: t, MaximumAge: p.MaximumAge}
}

// Policy maps device classes to profiles. Unknown classes use Desktop.
type Policy map[DeviceClass]Profile

// DefaultPolicy returns the built-in iOS, Android and desktop profiles.
func DefaultPolicy() Policy {
	return Policy{
		Desktop: {
			Timeout:      15 * time.Second,
			HighAccuracy: true,
			MaximumAge:   5 * time.Minute,
			MaxAttempts:  1,
		},
		IOSSafari: {
			Timeout:      8 * time.Second,
			HighAccuracy: false,
			MaximumAge:   10 * time.Minute,
			MaxAttempts:  1,
		},
		Android: {
			Timeout:           20 * time.Second,
			HighAccuracy:      true,
			MaximumAge:        5 * time.Minute,
			MaxAttempts:       3,
			RetryOnTimeout:    true,
			RetryOutOfRegion:  true,
			RetryTimeout:      30 * time.Second,
			RetryHighAccuracy: false,
		},
	}
}

func (p Policy) For(c DeviceClass) Profile {
	if pr, ok := p[c]; ok {
		return pr
	}
	if pr, ok := p[Desktop]; ok {
		return pr
	}
	return DefaultPolicy()[Desktop]
}
