package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type sample struct {
	BaseURL string `yaml:"baseURL" json:"baseURL"`
	Turns   int    `yaml:"turns" json:"turns"`
}

func TestService_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.yaml"), []byte("baseURL: ${env.JOBQUEUE_META_URL}\nturns: 7\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.json"), []byte(`{"baseURL":"json","turns":3}`), 0o644))
	t.Setenv("JOBQUEUE_META_URL", "http://localhost:8080")

	var testCases = []struct {
		description string
		URL         string
		expect      sample
	}{
		{description: "relative yaml", URL: "run.yaml", expect: sample{BaseURL: "http://localhost:8080", Turns: 7}},
		{description: "absolute json", URL: filepath.Join(dir, "run.json"), expect: sample{BaseURL: "json", Turns: 3}},
	}

	service := New(afs.New(), dir)
	for _, testCase := range testCases {
		var actual sample
		err := service.Load(context.Background(), testCase.URL, &actual)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}

	var missing sample
	assert.Error(t, service.Load(context.Background(), "missing.yaml", &missing))
}
