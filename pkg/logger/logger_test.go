package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line %q", buf.String())
	return entry
}

func TestInit_JSONOutputWithService(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf, Service: "civic-api"})
	log.Debug().Str("user_id", "u1").Msg("hello")

	entry := decode(t, &buf)
	require.Equal(t, "civic-api", entry["service"])
	require.Equal(t, "u1", entry["user_id"])
	require.Equal(t, "hello", entry["message"])
	require.Contains(t, entry, "caller")
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})

	shared := Get()
	shared.Info().Msg("once")
	require.NotZero(t, first.Len())
	require.Zero(t, second.Len())
}

func TestNew_LeavesSharedLoggerAlone(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	detached := New(Options{Level: "warn", Output: &buf})
	detached.Info().Msg("dropped")
	require.Zero(t, buf.Len())
	require.Panics(t, func() { Get() })
}

func TestInfoLevelOmitsCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})
	l.Info().Msg("quiet")
	require.NotContains(t, decode(t, &buf), "caller")
}

func TestComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	before := Component("manager")
	before.Info().Msg("no-op before init")

	var buf bytes.Buffer
	Init(Options{Output: &buf})
	after := Component("manager")
	after.Info().Msg("ready")

	require.Equal(t, "manager", decode(t, &buf)["component"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"DEBUG":     zerolog.DebugLevel,
		" warning ": zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"disabled":  zerolog.Disabled,
		"bogus":     zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}
