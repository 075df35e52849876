package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeScenario(t, `
interface = "XGMII"
ports = 2
frames = 10
min_len = 60
max_len = 128
pause = [false, true]
period = "16ns"
log_level = "debug"

[arbiter]
round_robin = false
msb_high_priority = true

[fifo]
depth = 4096

[tx]
dic = true

[tx_config]
ifg = 8
`)
	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, XGMII, s.Interface)
	assert.Equal(t, 8, s.Width())
	assert.Equal(t, 2, s.Ports)
	assert.Equal(t, 10, s.Frames)
	assert.Equal(t, 60, s.MinLen)
	assert.Equal(t, 128, s.MaxLen)
	assert.Equal(t, []bool{false, true}, s.Pause)
	assert.Equal(t, 16*time.Nanosecond, s.Period)
	assert.Equal(t, zerolog.DebugLevel, s.LogLevel)

	assert.False(t, s.Arbiter.RoundRobin)
	assert.True(t, s.Arbiter.MSBHighPriority)
	assert.True(t, s.Arbiter.UpdateID)
	assert.Equal(t, uint(8), s.Arbiter.IDWidth)

	// section keys missing from the file keep their defaults
	assert.Equal(t, 4096, s.FIFO.Depth)
	assert.True(t, s.FIFO.FrameMode)
	assert.True(t, s.FIFO.DropBadFrame)
	assert.True(t, s.Tx.DIC)
	assert.Equal(t, 8, s.TxCfg.IFG)
	assert.Equal(t, 9218, s.TxCfg.MaxPktLen)
	assert.True(t, s.TxCfg.Enable)

	def := Default()
	assert.Equal(t, def.Seed, s.Seed)
	assert.Equal(t, def.Steps, s.Steps)
}

func TestLoad_defaults(t *testing.T) {
	s, err := Load(writeScenario(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_errors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		content string
		errStr  string
	}{
		{"syntax", "ports = ", "load scenario"},
		{"unknown key", "foo = 1", "unknown key"},
		{"interface", `interface = "sgmii"`, "unknown interface"},
		{"ports", "ports = 0", "invalid port count"},
		{"too many ports", "ports = 65", "arbiter"},
		{"lengths", "min_len = 100\nmax_len = 50", "invalid frame length range"},
		{"period", `period = "fast"`, "parse period"},
		{"log level", `log_level = "loud"`, "parse log_level"},
		{"fifo", "[fifo]\nmark_when_full = true", "fifo"},
		{"ifg", "[tx_config]\nifg = 300", "invalid IFG"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errStr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
