package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	var useCases = []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{
			description: "plain text",
			input:       "placement:\n  mode: strict",
			expect:      "placement:\n  mode: strict",
		},
		{
			description: "single key",
			env:         map[string]string{"JQ_MODE": "delay"},
			input:       "mode: ${env.JQ_MODE}",
			expect:      "mode: delay",
		},
		{
			description: "repeated keys",
			env:         map[string]string{"JQ_A": "1", "JQ_B": "2"},
			input:       "${env.JQ_A}-${env.JQ_B}-${env.JQ_A}",
			expect:      "1-2-1",
		},
		{
			description: "unset key",
			input:       "url: ${env.JQ_UNSET}/games",
			expect:      "url: /games",
		},
		{
			description: "fallback used when unset",
			input:       "capacity: ${env.JQ_UNSET:-64}",
			expect:      "capacity: 64",
		},
		{
			description: "fallback ignored when set",
			env:         map[string]string{"JQ_CAPACITY": "32"},
			input:       "capacity: ${env.JQ_CAPACITY:-64}",
			expect:      "capacity: 32",
		},
		{
			description: "missing closing brace",
			env:         map[string]string{"JQ_X": "x"},
			input:       "start ${env.JQ_X and ${env.JQ_Y} end",
			expect:      "start ${env.JQ_X and  end",
		},
		{
			description: "empty key",
			input:       "oops ${env.} done",
			expect:      "oops  done",
		},
	}

	for _, useCase := range useCases {
		t.Run(useCase.description, func(t *testing.T) {
			for _, key := range []string{"JQ_MODE", "JQ_A", "JQ_B", "JQ_UNSET", "JQ_CAPACITY", "JQ_X", "JQ_Y"} {
				t.Setenv(key, "")
			}
			for k, v := range useCase.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, useCase.expect, expandEnv(useCase.input), useCase.description)
		})
	}
}
