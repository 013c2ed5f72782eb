package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, GetLevel("debug"))
	assert.Equal(t, log.WarnLevel, GetLevel("WARN"))
	assert.Equal(t, log.ErrorLevel, GetLevel("error"))
	assert.Equal(t, log.InfoLevel, GetLevel(""))
	assert.Equal(t, log.InfoLevel, GetLevel("nonsense"))
}

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	base := filepath.Join(t.TempDir(), "logs", "trailrunner")
	closer, err := Setup(SetupParams{FileName: base, Level: "info", JSON: true})
	require.NoError(t, err)

	log.WithField("component", "test").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
