package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "jungled", "test", slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("operation committed", "operation", "stake_animal")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "operation committed", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "jungled", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
	require.Equal(t, "stake_animal", line["operation"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestMaskFieldHonoursAllowlist(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("authorization", "Bearer abc").Value.String())
	require.Equal(t, "stake", MaskField("component", "stake").Value.String())
	require.Equal(t, "", MaskField("hmac_secret", "").Value.String())
	require.Equal(t, "jgl1xyz", MaskField("Caller", "jgl1xyz").Value.String())
}
