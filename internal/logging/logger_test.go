package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mail-triage/internal/config"
)

func TestInitLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		v := config.NewEmptyViper()
		v.Set("logging.level", level)
		logger, err := InitLogger(config.NewFromViper(v))
		require.NoError(t, err, "level %q", level)
		assert.NotNil(t, logger)
	}
}

func TestInitLoggerJSONFormat(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("logging.format", "json")
	logger, err := InitLogger(config.NewFromViper(v))
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestInitConsoleLogger(t *testing.T) {
	logger, err := InitConsoleLogger(false, false)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	verbose, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(-1), "verbose logger enables debug")
}
