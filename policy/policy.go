package policy

import (
	"context"

	"github.com/viant/jobqueue/model"
)

// Policy represents per-run placement settings.
//
// A nil *Policy means "use the configured mode".
type Policy struct {
	Mode model.PlacementMode
	// MaxRequiredCapacity rejects larger jobs up front; 0 disables the check.
	MaxRequiredCapacity int
}

// Config represents the serialisable part of a Policy.
type Config struct {
	Mode                model.PlacementMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	MaxRequiredCapacity int                 `json:"maxRequiredCapacity,omitempty" yaml:"maxRequiredCapacity,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{Mode: p.Mode, MaxRequiredCapacity: p.MaxRequiredCapacity}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{Mode: c.Mode, MaxRequiredCapacity: c.MaxRequiredCapacity}
}

// ModeOr returns the policy mode, or fallback when the policy is nil or
// leaves the mode unset.
func (p *Policy) ModeOr(fallback model.PlacementMode) model.PlacementMode {
	if p == nil || p.Mode == "" {
		return fallback
	}
	return p.Mode
}

// IsAllowed returns false when the job exceeds MaxRequiredCapacity.
func (p *Policy) IsAllowed(requiredCapacity int) bool {
	if p == nil || p.MaxRequiredCapacity <= 0 {
		return true
	}
	return requiredCapacity <= p.MaxRequiredCapacity
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, nil when absent.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
