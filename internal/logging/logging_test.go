package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger, err := NewWithWriter(buffer, "debug", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("machine", 3).Info("created")
	record := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
	assert.Equal(t, "created", record["msg"])
	assert.EqualValues(t, 3, record["machine"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", FormatText)
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)
}
