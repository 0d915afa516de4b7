package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/typecodec/codec"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typecodec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, codec.Options{MaxDepth: codec.DefaultMaxDepth}, cfg.CodecOptions())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
schema: types.yaml
options:
  coercion: "on"
  additional_properties: true
  exclude_none: true
  max_depth: 64
log:
  level: debug
  format: json
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "types.yaml", cfg.Schema)
	assert.Equal(t, codec.Options{
		MaxDepth:             64,
		Coercion:             codec.CoercionOn,
		AdditionalProperties: true,
		ExcludeNone:          true,
	}, cfg.CodecOptions())

	log, err := cfg.Logger(false)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "options:\n  coercion: \"off\"\n")
	t.Setenv("TYPECODEC_OPTIONS_COERCION", "custom")
	t.Setenv("TYPECODEC_LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, codec.CoercionCustom, cfg.CodecOptions().Coercion)

	log, err := cfg.Logger(false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = cfg.Logger(true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestAliaserOption(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "options:\n  aliaser: kebab\n"))
	require.NoError(t, err)

	opts := cfg.CodecOptions()
	assert.Equal(t, "kebab", opts.AliaserKey)
	require.NotNil(t, opts.Aliaser)
	assert.Equal(t, "created-at", opts.Aliaser("created_at"))

	t.Setenv("TYPECODEC_OPTIONS_ALIASER", "camel")
	cfg, err = LoadFile(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "createdAt", cfg.CodecOptions().Aliaser("created_at"))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"coercion", "options:\n  coercion: sometimes\n", "options.coercion"},
		{"depth", "options:\n  max_depth: -1\n", "options.max_depth"},
		{"aliaser", "options:\n  aliaser: pascal\n", "options.aliaser must be one of camel, kebab, snake"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"format", "log:\n  format: xml\n", "log.format"},
		{"yaml", "options: [", "failed to read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
