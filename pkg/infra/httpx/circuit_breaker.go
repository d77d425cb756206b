package httpx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var ErrBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Execute(fn func() error) error
	State() string
}

type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout     time.Duration
	MaxFailures uint32

	// IsSuccessful decides which errors count against the breaker. Defaults
	// to IgnoreCancellation.
	IsSuccessful func(err error) bool
}

// IgnoreCancellation treats a cancelled caller as a success so abandoned
// requests never trip the breaker.
func IgnoreCancellation(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

type circuitBreakerWrapper struct {
	breaker *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(name string, timeout time.Duration, maxFailures uint32) CircuitBreaker {
	return NewCircuitBreakerWithSettings(BreakerSettings{
		Name:        name,
		MaxRequests: 5,
		Timeout:     timeout,
		MaxFailures: maxFailures,
	}, nil)
}

// NewCircuitBreakerWithSettings logs state transitions when logger is non-nil.
func NewCircuitBreakerWithSettings(s BreakerSettings, logger *logrus.Logger) CircuitBreaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 1
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = IgnoreCancellation
	}
	settings := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: s.IsSuccessful,
	}
	if logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		}
	}
	return &circuitBreakerWrapper{
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs fn through the breaker. A panic in fn counts as a failure.
func (g *circuitBreakerWrapper) Execute(fn func() error) error {
	_, err := g.breaker.Execute(func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return nil, fn()
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("breaker (%s): %w", g.breaker.Name(), ErrBreakerOpen)
	}
	return fmt.Errorf("breaker (%s): %w", g.breaker.Name(), err)
}

func (g *circuitBreakerWrapper) State() string {
	return g.breaker.State().String()
}
