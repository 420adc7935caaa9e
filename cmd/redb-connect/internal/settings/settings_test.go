package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(viper.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultPath, s.Catalog)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, 100, s.Limit)
	assert.True(t, s.UseKeyring)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("catalog: from-file.yaml\nlog_level: warn\ntimeout: 5s\n"), 0o600))

	t.Setenv("REDB_CONNECT_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("catalog", catalog.DefaultPath, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--catalog", "from-flag.yaml"}))

	s, err := Load(viper.New(), file, flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.yaml", s.Catalog)
	assert.Equal(t, "error", s.LogLevel)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		ok   bool
	}{
		{"valid", Settings{LogLevel: "debug", Timeout: time.Second}, true},
		{"bad level", Settings{LogLevel: "loud"}, false},
		{"negative timeout", Settings{LogLevel: "info", Timeout: -time.Second}, false},
		{"negative limit", Settings{LogLevel: "info", Limit: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("REDB_CONNECT_TEST_HOST=db.local\nREDB_CONNECT_TEST_KEEP=from-file\n"), 0o600))

	t.Setenv("REDB_CONNECT_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("REDB_CONNECT_TEST_HOST") })

	s := &Settings{EnvFile: file}
	require.NoError(t, s.LoadEnvFile(true))
	assert.Equal(t, "db.local", os.Getenv("REDB_CONNECT_TEST_HOST"))
	assert.Equal(t, "from-env", os.Getenv("REDB_CONNECT_TEST_KEEP"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	s := &Settings{EnvFile: filepath.Join(t.TempDir(), ".env")}
	assert.NoError(t, s.LoadEnvFile(false))
	assert.Error(t, s.LoadEnvFile(true))
}

func TestNewLogger(t *testing.T) {
	s := &Settings{LogLevel: "debug", LogFile: filepath.Join(t.TempDir(), "connect.log")}
	l, err := s.NewLogger("test")
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, logger.LevelDebug, l.GetLevel())

	l.Info("hello %s", "file")
	require.NoError(t, l.Close())
	data, err := os.ReadFile(s.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestLookupWithoutKeyring(t *testing.T) {
	t.Setenv("REDB_CONNECT_TEST_VAR", "value")
	s := &Settings{UseKeyring: false}
	v, ok := s.Lookup()("REDB_CONNECT_TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}
