package router

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// EngineMode selects the matching engine.
type EngineMode string

const (
	// EngineAuto prefers the in-process primary engine.
	EngineAuto EngineMode = "auto"
	// EnginePrimary forces the primary engine.
	EnginePrimary EngineMode = "primary"
	// EngineAlternate forces the alternate engine and fails construction
	// when it is unavailable.
	EngineAlternate EngineMode = "alternate"
)

// ParseEngineMode parses a configuration value. The empty string means auto.
func ParseEngineMode(s string) (EngineMode, error) {
	switch mode := EngineMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return EngineAuto, nil
	case EngineAuto, EnginePrimary, EngineAlternate:
		return mode, nil
	default:
		return "", configError("unknown engine mode %q (must be auto, primary, or alternate)", s)
	}
}

// selectEngine resolves mode to a concrete engine. A forced alternate
// engine is probed once through factory; if the probe reports anything but
// StatusOK the selection fails instead of degrading silently.
func selectEngine(mode EngineMode, factory AlternateFactory) (Engine, error) {
	switch mode {
	case "", EngineAuto, EnginePrimary:
		log.Debug().
			Str("component", "engine_selector").
			Str("mode", string(mode)).
			Msg("Primary engine selected")
		return newPrimaryEngine(), nil

	case EngineAlternate:
		if factory == nil {
			return nil, configError("alternate engine requested but no adapter is configured")
		}
		adapter, status := factory()
		if !status.OK() || adapter == nil {
			return nil, configError("alternate engine requested but unavailable: %s", status)
		}

		log.Debug().
			Str("component", "engine_selector").
			Uint32("capabilities", uint32(adapter.Capabilities())).
			Msg("Alternate engine selected")
		return newAlternateEngine(factory), nil

	default:
		return nil, configError("unknown engine mode %q", mode)
	}
}
