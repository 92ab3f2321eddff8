package settings

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Mode is the deployment mode the process runs in.
type Mode int

const (
	ModeLocal Mode = iota + 1
	ModeStaging
	ModeDemo
	ModeProduction
)

// Selector values accepted in DEPLOYMENT_TYPE.
const (
	SelectorLocal      = "LOCAL"
	SelectorStaging    = "STAGE"
	SelectorDemo       = "DEMO"
	SelectorProduction = "PRODUCTION"
)

// ModeFlags exposes the mode as four booleans, exactly one of which is set.
type ModeFlags struct {
	Local      bool
	Staging    bool
	Demo       bool
	Production bool
}

// ParseMode maps a DEPLOYMENT_TYPE value to a Mode. Matching is exact.
func ParseMode(selector string) (Mode, error) {
	switch selector {
	case SelectorLocal:
		return ModeLocal, nil
	case SelectorStaging:
		return ModeStaging, nil
	case SelectorDemo:
		return ModeDemo, nil
	case SelectorProduction:
		return ModeProduction, nil
	default:
		return 0, &ModeError{Value: selector}
	}
}

// ModeFromEnv reads DEPLOYMENT_TYPE from env and parses it.
func ModeFromEnv(env Env) (Mode, error) {
	value, ok := env.Lookup(EnvDeploymentType)
	if !ok {
		return 0, &ModeError{Missing: true}
	}
	return ParseMode(value)
}

// Selector returns the DEPLOYMENT_TYPE value that selects m.
func (m Mode) Selector() string {
	switch m {
	case ModeLocal:
		return SelectorLocal
	case ModeStaging:
		return SelectorStaging
	case ModeDemo:
		return SelectorDemo
	case ModeProduction:
		return SelectorProduction
	default:
		return ""
	}
}

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeStaging:
		return "staging"
	case ModeDemo:
		return "demo"
	case ModeProduction:
		return "production"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Flags returns the one-hot flag view of m.
func (m Mode) Flags() ModeFlags {
	return ModeFlags{
		Local:      m == ModeLocal,
		Staging:    m == ModeStaging,
		Demo:       m == ModeDemo,
		Production: m == ModeProduction,
	}
}

// Debug reports whether debug behaviour is enabled for m.
func (m Mode) Debug() bool {
	return m == ModeLocal || m == ModeStaging
}

// LogLevel returns the minimum log level for m.
// Staging and demo share the fallback level rather than production's.
func LogLevel(m Mode) zapcore.Level {
	switch m {
	case ModeLocal:
		return zapcore.DebugLevel
	case ModeProduction:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
