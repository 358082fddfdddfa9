package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/mailstore"
	"github.com/mikey/mail-triage/internal/config"
)

func sourceFactoryFor(t *testing.T, settings map[string]interface{}) *SourceFactory {
	t.Helper()
	v := config.NewEmptyViper()
	for key, value := range settings {
		v.Set(key, value)
	}
	return NewSourceFactory(config.NewFromViper(v), zap.NewNop())
}

func TestCreateMessageSourceFile(t *testing.T) {
	dir := t.TempDir()
	raw := "From: a@b.com\r\nSubject: hi\r\n\r\nbody\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "msg.eml"), []byte(raw), 0644))

	f := sourceFactoryFor(t, map[string]interface{}{
		"mail.client":  "file",
		"mail.db_path": dir,
	})

	source, err := f.CreateMessageSource()
	require.NoError(t, err)
	defer source.Close()

	assert.IsType(t, &mailstore.FileSource{}, source)
}

func TestCreateMessageSourceUnknownClient(t *testing.T) {
	f := sourceFactoryFor(t, map[string]interface{}{"mail.client": "thunderbird"})

	_, err := f.CreateMessageSource()
	assert.Error(t, err)
}

func TestCreateMessageSourceAutoWithExplicitPath(t *testing.T) {
	f := sourceFactoryFor(t, map[string]interface{}{
		"mail.client":  "auto",
		"mail.db_path": "/tmp/somewhere.sqlite",
	})

	_, err := f.CreateMessageSource()
	assert.Error(t, err, "auto detection cannot disambiguate an explicit path")
}

func TestCreateMessageSourceExplicitMissingDB(t *testing.T) {
	f := sourceFactoryFor(t, map[string]interface{}{
		"mail.client":  "applemail",
		"mail.db_path": filepath.Join(t.TempDir(), "absent"),
	})

	_, err := f.CreateMessageSource()
	assert.Error(t, err)
}
