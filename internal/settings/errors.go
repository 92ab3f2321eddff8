package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is matched by every error caused by an unusable DEPLOYMENT_TYPE.
	ErrUnknownMode = errors.New("unknown deployment type")
	// ErrInvalidSettings is returned when the resolved settings fail validation.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrNoOverlaySource is reported when an overlay layer has no source configured.
	ErrNoOverlaySource = errors.New("no overlay source configured")
)

// ModeError describes a missing or unrecognised DEPLOYMENT_TYPE.
type ModeError struct {
	Value   string
	Missing bool
}

func (e *ModeError) Error() string {
	var b strings.Builder
	if e.Missing {
		fmt.Fprintf(&b, "cannot find the %s environment variable", EnvDeploymentType)
	} else {
		fmt.Fprintf(&b, "unrecognised %s %q", EnvDeploymentType, e.Value)
	}
	fmt.Fprintf(&b, " (expected one of %s, %s, %s, %s). ",
		SelectorLocal, SelectorStaging, SelectorDemo, SelectorProduction)
	b.WriteString("It must be provided along with the other required environment variables. ")
	b.WriteString("When running locally, provide the .env file. ")
	b.WriteString("When running in a deployed environment, the environment variables have not been set up correctly. ")
	b.WriteString("See README.md for details")
	return b.String()
}

func (e *ModeError) Unwrap() error {
	return ErrUnknownMode
}

// OverlayError reports a failed overlay layer.
type OverlayError struct {
	Layer  string
	Source string
	Err    error
}

func (e *OverlayError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load %s settings: %v", e.Layer, e.Err)
	}
	return fmt.Sprintf("load %s settings from %s: %v", e.Layer, e.Source, e.Err)
}

func (e *OverlayError) Unwrap() error {
	return e.Err
}
