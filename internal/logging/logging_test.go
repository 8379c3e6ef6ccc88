package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"", DefaultLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"loud", DefaultLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestSetupWritesJSONToNonTerminal(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	require.NoError(t, Setup("info", &buf))

	log.Debug().Msg("hidden")
	log.Info().Str("ride", "strava:1").Msg("synced")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "synced", entry["message"])
	assert.Equal(t, "strava:1", entry["ride"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetupRejectsBadLevel(t *testing.T) {
	assert.Error(t, Setup("nope", &bytes.Buffer{}))
}

func TestSetupFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	dir := t.TempDir()
	f, err := SetupFile("info", dir)
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "trainload.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
