package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, "debug", "json")
	require.NoError(t, err)

	logger.WithRequestID("req-42").Infof("Alert created: id=%d", 7)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Alert created: id=7"`)
	assert.Contains(t, string(data), `"request_id":"req-42"`)
}

func TestNew_StdoutOnly(t *testing.T) {
	logger, err := New("", "warn", "text")
	require.NoError(t, err)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.NoError(t, logger.Close())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("", "loud", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New("", "info", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Errorf("dropped %s", "silently")
	assert.NoError(t, logger.Close())
}
