// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/cap/lib/acl"
	"github.com/bureau-foundation/cap/lib/service"
	"github.com/bureau-foundation/cap/lib/wire"
)

// Resolver looks up a registered identifier by its qualified name.
// *ams.Directory satisfies it.
type Resolver interface {
	Lookup(name string) (acl.AgentIdentifier, bool)
}

// Dispatcher sends a one-way request. *service.Client satisfies it.
type Dispatcher interface {
	Send(ctx context.Context, address service.Address, args wire.Args) error
}

var (
	// ErrUnresolved means no address could be found for a recipient.
	ErrUnresolved = errors.New("no transport address for recipient")

	// ErrRateLimited means the delivery budget was exhausted.
	ErrRateLimited = errors.New("delivery rate limit exceeded")
)

// Default breaker settings, used for zero fields of BreakerConfig.
const (
	defaultBreakerMaxFailures uint32        = 3
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// DefaultDeliveryTimeout bounds one dispatch when Config leaves it zero.
const DefaultDeliveryTimeout = 2 * time.Second

// BreakerConfig configures the per-destination circuit breakers.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failed dispatches to one
	// destination before its breaker opens.
	MaxFailures uint32
	// Timeout is how long an open breaker drops deliveries before
	// letting one probe through.
	Timeout time.Duration
	// Interval is the period after which a closed breaker clears its
	// failure counts.
	Interval time.Duration
}

// Config holds the router's settings.
type Config struct {
	// Platform qualifies bare recipient names before directory lookup.
	Platform string
	// DeliveryTimeout bounds each dispatch.
	DeliveryTimeout time.Duration
	// Limiter, when non-nil, caps the delivery rate across all
	// destinations. Deliveries over budget are dropped.
	Limiter *rate.Limiter
	Breaker BreakerConfig
}

// Router delivers agent messages.
type Router struct {
	resolver   Resolver
	dispatcher Dispatcher
	config     Config
	logger     *slog.Logger

	mutex    sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// New returns a router resolving recipients through resolver and
// delivering through dispatcher.
func New(resolver Resolver, dispatcher Dispatcher, config Config, logger *slog.Logger) *Router {
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = DefaultDeliveryTimeout
	}
	if config.Breaker.MaxFailures == 0 {
		config.Breaker.MaxFailures = defaultBreakerMaxFailures
	}
	if config.Breaker.Timeout == 0 {
		config.Breaker.Timeout = defaultBreakerTimeout
	}
	if config.Breaker.Interval == 0 {
		config.Breaker.Interval = defaultBreakerInterval
	}
	return &Router{
		resolver:   resolver,
		dispatcher: dispatcher,
		config:     config,
		logger:     logger,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Route delivers transport to every recipient in its envelope's To
// list. It returns once every delivery has been attempted. Failures
// are logged, never returned.
func (r *Router) Route(ctx context.Context, transport acl.TransportEnvelope) {
	r.logger.Info("routing message",
		"from", transport.Envelope.From.Name,
		"performative", transport.Message.Performative,
		"recipients", len(transport.Envelope.To),
	)
	for _, recipient := range transport.Envelope.To {
		attempt := transport
		attempt.Envelope.IntendedReceiver = recipient.Clone()
		if err := r.deliver(ctx, attempt); err != nil {
			r.logger.Warn("delivery dropped",
				"from", transport.Envelope.From.Name,
				"to", recipient.Name,
				"error", err,
			)
		}
	}
}

// Resolve returns the address a delivery to receiver would use.
func (r *Router) Resolve(receiver acl.AgentIdentifier) (string, error) {
	if address := receiver.FirstAddress(); address != "" {
		return address, nil
	}
	name := acl.QualifyName(receiver.Name, r.config.Platform)
	registered, found := r.resolver.Lookup(name)
	if !found {
		return "", fmt.Errorf("%w: %s is not registered", ErrUnresolved, name)
	}
	address := registered.FirstAddress()
	if address == "" {
		return "", fmt.Errorf("%w: %s has no addresses", ErrUnresolved, name)
	}
	return address, nil
}

func (r *Router) deliver(ctx context.Context, transport acl.TransportEnvelope) error {
	text, err := r.Resolve(transport.Envelope.IntendedReceiver)
	if err != nil {
		return err
	}
	address, err := service.ParseAddress(text)
	if err != nil {
		return err
	}
	if r.config.Limiter != nil && !r.config.Limiter.Allow() {
		return ErrRateLimited
	}

	args := wire.EncodeTransportEnvelope(transport)
	_, err = r.breaker(address.Service).Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, r.config.DeliveryTimeout)
		defer cancel()
		return struct{}{}, r.dispatcher.Send(ctx, address, args)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("destination %s circuit open: %w", address.Service, err)
	}
	if err != nil {
		return err
	}
	r.logger.Debug("message delivered", "to", transport.Envelope.IntendedReceiver.Name, "address", text)
	return nil
}

// breaker returns the circuit breaker for a destination service,
// creating it on first use.
func (r *Router) breaker(destination string) *gobreaker.CircuitBreaker[struct{}] {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if breaker, exists := r.breakers[destination]; exists {
		return breaker
	}
	maxFailures := r.config.Breaker.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mts:" + destination,
		MaxRequests: 1, // one probe while half-open
		Interval:    r.config.Breaker.Interval,
		Timeout:     r.config.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	r.breakers[destination] = breaker
	return breaker
}

// BreakerState reports the breaker state of a destination service.
// Destinations never dispatched to report closed.
func (r *Router) BreakerState(destination string) gobreaker.State {
	r.mutex.Lock()
	breaker, exists := r.breakers[destination]
	r.mutex.Unlock()
	if !exists {
		return gobreaker.StateClosed
	}
	return breaker.State()
}
