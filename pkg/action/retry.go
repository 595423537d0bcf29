package action

import (
	"math"
	"time"

	"github.com/chartrunner/chartrunner/pkg/value"
)

// Backoff selects how Retry spaces out successive attempts. Grounded on
// leptos-state's RetryBackoff enum.
type Backoff int

const (
	// FixedBackoff waits the same delay between every attempt.
	FixedBackoff Backoff = iota
	// LinearBackoff waits attempt*delay between attempts.
	LinearBackoff
	// ExponentialBackoff waits delay*2^attempt between attempts, capped
	// at MaxDelay.
	ExponentialBackoff
)

// Retry runs Inner up to MaxAttempts times, waiting between attempts
// according to Backoff. Delay is the base delay; MaxDelay caps
// ExponentialBackoff growth. Sleep defaults to time.Sleep but can be
// overridden in tests to avoid real waits.
type Retry struct {
	Inner       Action
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Backoff     Backoff
	Sleep       func(time.Duration)
	ActName     string
}

// NewRetry builds a Retry action wrapping inner.
func NewRetry(name string, inner Action, maxAttempts int, delay time.Duration, backoff Backoff) *Retry {
	return &Retry{
		Inner:       inner,
		MaxAttempts: maxAttempts,
		Delay:       delay,
		MaxDelay:    delay * 30,
		Backoff:     backoff,
		ActName:     name,
	}
}

func (a *Retry) Run(ctx *value.Context, event *value.Event) error {
	sleep := a.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var err error
	for attempt := 0; attempt < a.MaxAttempts; attempt++ {
		err = a.Inner.Run(ctx, event)
		if err == nil {
			return nil
		}
		if attempt == a.MaxAttempts-1 {
			break
		}
		d := a.delayFor(attempt)
		if d > 0 {
			sleep(d)
		}
	}
	return value.NewActionError(a.Name(), "", err)
}

func (a *Retry) delayFor(attempt int) time.Duration {
	switch a.Backoff {
	case LinearBackoff:
		return a.Delay * time.Duration(attempt+1)
	case ExponentialBackoff:
		d := time.Duration(float64(a.Delay) * math.Pow(2, float64(attempt)))
		if a.MaxDelay > 0 && d > a.MaxDelay {
			return a.MaxDelay
		}
		return d
	default:
		return a.Delay
	}
}

func (a *Retry) Name() string {
	if a.ActName != "" {
		return a.ActName
	}
	return "retry(" + a.Inner.Name() + ")"
}
