package aggregator

import "go.uber.org/zap"

// Option configures an Engine.
type Option func(*Engine)

// RunOption configures a single Run call.
type RunOption func(*runConfig)

// runConfig holds per-call configuration.
type runConfig struct {
	maxInstructions int
	referralID      uint64
}

// defaultRunConfig returns the default run configuration.
func defaultRunConfig() *runConfig {
	return &runConfig{
		maxInstructions: 64,
	}
}

// WithVenue registers a venue adapter for an action. Routes using an
// action with no registered venue fail with ErrVenueNotRegistered.
func WithVenue(action Action, venue Venue) Option {
	return func(e *Engine) {
		e.venues[action] = venue
	}
}

// WithAddressResolver sets the resolver used for instructions that omit
// an explicit pool address.
func WithAddressResolver(resolver AddressResolver) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// WithFeeBook attaches a fee book. When set, fees are charged on the
// designated output token before the slippage check.
func WithFeeBook(fees *FeeBook) Option {
	return func(e *Engine) {
		e.fees = fees
	}
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReferral attributes the run to a referral for fee sharing.
// Zero (the default) means no referral.
func WithReferral(id uint64) RunOption {
	return func(c *runConfig) {
		c.referralID = id
	}
}

// WithMaxInstructions sets a maximum route length for the run.
// Default is 64 instructions.
func WithMaxInstructions(max int) RunOption {
	return func(c *runConfig) {
		c.maxInstructions = max
	}
}
