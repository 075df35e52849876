// Package config loads simulation scenarios from TOML files.
//
package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/eth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// PHY interfaces.
//
const (
	GMII  = "gmii"
	XGMII = "xgmii"
)

// Scenario describes a simulation run: N traffic sources arbitrated into a
// FIFO feeding a transmitter.
//
type Scenario struct {
	// Interface is GMII or XGMII.
	Interface string
	// Ports is the number of traffic sources.
	Ports int
	// Frames is the number of frames sent per port.
	Frames int
	// MinLen and MaxLen bound the random payload lengths.
	MinLen, MaxLen int
	// Pause is the source pause pattern, true meaning paused.
	Pause []bool
	Seed  int64
	// Steps is the maximum simulation length.
	Steps int
	// Period is the clock period, used by the PTP clock.
	Period   time.Duration
	LogLevel zerolog.Level

	Arbiter axis.ArbMuxConfig
	FIFO    axis.FIFOConfig
	Tx      eth.TxOptions
	TxCfg   eth.TxConfig
}

// Default returns the default scenario: 4 ports sending 100 frames each to a
// GMII transmitter.
//
func Default() Scenario {
	return Scenario{
		Interface: GMII,
		Ports:     4,
		Frames:    100,
		MinLen:    46,
		MaxLen:    1500,
		Seed:      1,
		Steps:     10000000,
		Period:    8 * time.Nanosecond,
		LogLevel:  zerolog.InfoLevel,
		Arbiter:   axis.ArbMuxConfig{RoundRobin: true, UpdateID: true, IDWidth: 8},
		FIFO: axis.FIFOConfig{
			Depth:             16384,
			FrameMode:         true,
			DropOversizeFrame: true,
			DropBadFrame:      true,
			BadMask:           1,
			BadValue:          1,
		},
		TxCfg: eth.DefaultTxConfig(),
	}
}

// Width returns the stream width in bytes of the transmitter.
//
func (s *Scenario) Width() int {
	if s.Interface == XGMII {
		return 8
	}
	return 1
}

// Validate checks the scenario.
//
func (s *Scenario) Validate() error {
	switch {
	case s.Interface != GMII && s.Interface != XGMII:
		return errors.Errorf("unknown interface %q", s.Interface)
	case s.Ports < 1:
		return errors.Errorf("invalid port count %d", s.Ports)
	case s.Frames < 0:
		return errors.Errorf("invalid frame count %d", s.Frames)
	case s.MinLen < 0 || s.MaxLen < s.MinLen:
		return errors.Errorf("invalid frame length range [%d, %d]", s.MinLen, s.MaxLen)
	case s.Steps <= 0:
		return errors.Errorf("invalid step count %d", s.Steps)
	case s.Period <= 0:
		return errors.Errorf("invalid clock period %v", s.Period)
	case s.TxCfg.IFG < 0 || s.TxCfg.IFG > 255:
		return errors.Errorf("invalid IFG %d", s.TxCfg.IFG)
	case s.TxCfg.MaxPktLen < 0 || s.TxCfg.MaxPktLen > 65535:
		return errors.Errorf("invalid max packet length %d", s.TxCfg.MaxPktLen)
	}
	arb := s.Arbiter
	arb.Ports = s.Ports
	if err := arb.Validate(); err != nil {
		return errors.Wrap(err, "arbiter")
	}
	if err := s.FIFO.Validate(); err != nil {
		return errors.Wrap(err, "fifo")
	}
	return nil
}

type fileConfig struct {
	Interface string         `toml:"interface"`
	Ports     int            `toml:"ports"`
	Frames    int            `toml:"frames"`
	MinLen    int            `toml:"min_len"`
	MaxLen    int            `toml:"max_len"`
	Pause     []bool         `toml:"pause"`
	Seed      int64          `toml:"seed"`
	Steps     int            `toml:"steps"`
	Period    string         `toml:"period"`
	LogLevel  string         `toml:"log_level"`
	Arbiter   arbiterSection `toml:"arbiter"`

	FIFO  axis.FIFOConfig `toml:"fifo"`
	Tx    eth.TxOptions   `toml:"tx"`
	TxCfg eth.TxConfig    `toml:"tx_config"`
}

type arbiterSection struct {
	RoundRobin      bool `toml:"round_robin"`
	MSBHighPriority bool `toml:"msb_high_priority"`
	UpdateID        bool `toml:"update_id"`
	IDWidth         uint `toml:"id_width"`
}

// Load reads a scenario file. Settings missing from the file keep their
// default value.
//
func Load(path string) (Scenario, error) {
	s := Default()

	// sections decode over the defaults
	raw := fileConfig{FIFO: s.FIFO, Tx: s.Tx, TxCfg: s.TxCfg}
	raw.Arbiter = arbiterSection{
		RoundRobin:      s.Arbiter.RoundRobin,
		MSBHighPriority: s.Arbiter.MSBHighPriority,
		UpdateID:        s.Arbiter.UpdateID,
		IDWidth:         s.Arbiter.IDWidth,
	}
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Scenario{}, errors.Wrap(err, "load scenario")
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return Scenario{}, errors.Errorf("load scenario: unknown key %q", keys[0].String())
	}

	if meta.IsDefined("interface") {
		s.Interface = strings.ToLower(strings.TrimSpace(raw.Interface))
	}
	if meta.IsDefined("ports") {
		s.Ports = raw.Ports
	}
	if meta.IsDefined("frames") {
		s.Frames = raw.Frames
	}
	if meta.IsDefined("min_len") {
		s.MinLen = raw.MinLen
	}
	if meta.IsDefined("max_len") {
		s.MaxLen = raw.MaxLen
	}
	if meta.IsDefined("pause") {
		s.Pause = raw.Pause
	}
	if meta.IsDefined("seed") {
		s.Seed = raw.Seed
	}
	if meta.IsDefined("steps") {
		s.Steps = raw.Steps
	}
	if meta.IsDefined("period") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Period))
		if err != nil {
			return Scenario{}, errors.Wrap(err, "parse period")
		}
		s.Period = d
	}
	if meta.IsDefined("log_level") {
		l, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Scenario{}, errors.Wrap(err, "parse log_level")
		}
		s.LogLevel = l
	}
	if meta.IsDefined("arbiter") {
		s.Arbiter.RoundRobin = raw.Arbiter.RoundRobin
		s.Arbiter.MSBHighPriority = raw.Arbiter.MSBHighPriority
		s.Arbiter.UpdateID = raw.Arbiter.UpdateID
		s.Arbiter.IDWidth = raw.Arbiter.IDWidth
	}
	s.FIFO, s.Tx, s.TxCfg = raw.FIFO, raw.Tx, raw.TxCfg

	if err := s.Validate(); err != nil {
		return Scenario{}, errors.Wrap(err, path)
	}
	return s, nil
}
