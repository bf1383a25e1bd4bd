package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/jobqueue/model"
)

func TestPolicy_ModeOr(t *testing.T) {
	var testCases = []struct {
		description string
		policy      *Policy
		expect      model.PlacementMode
	}{
		{description: "nil policy", policy: nil, expect: model.ModeStrict},
		{description: "unset mode", policy: &Policy{}, expect: model.ModeStrict},
		{description: "override", policy: &Policy{Mode: model.ModeDelay}, expect: model.ModeDelay},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.policy.ModeOr(model.ModeStrict), testCase.description)
	}
}

func TestPolicy_Context(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	p := FromConfig(&Config{Mode: model.ModeDelay, MaxRequiredCapacity: 32})
	ctx = WithPolicy(ctx, p)
	assert.Same(t, p, FromContext(ctx))
	assert.True(t, p.IsAllowed(32))
	assert.False(t, p.IsAllowed(33))
	assert.Equal(t, &Config{Mode: model.ModeDelay, MaxRequiredCapacity: 32}, ToConfig(p))
	assert.True(t, (*Policy)(nil).IsAllowed(1000))
}
