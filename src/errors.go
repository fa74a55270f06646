package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Error taxonomy for the pitch-analysis pipeline.
 *
 * Description:	Configuration errors (non-positive sample rate, bad
 *		frame size, out-of-range threshold) are hard failures
 *		surfaced at construction time. Per-frame numerical
 *		edges are never reported as errors; they are recovered
 *		locally and returned as the (0,0) sentinel.
 *
 *------------------------------------------------------------------*/

import "fmt"

// ConfigError reports a problem discovered while constructing a
// resampler, AGC stage, or detector. It is always fatal to
// construction; there is no partial/degraded construction path.
type ConfigError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pitchtune: %s: invalid %s: %s", e.Component, e.Field, e.Reason)
}

func newConfigError(component, field, reason string) *ConfigError {
	return &ConfigError{Component: component, Field: field, Reason: reason}
}

// ShapeError reports a frame whose length does not match the
// detector's configured analysis window. This is a hard failure at
// find_pitch, distinct from the recoverable per-sample numerical
// edges described in spec.md section 7.
type ShapeError struct {
	Component string
	Want, Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("pitchtune: %s: frame length %d, want %d", e.Component, e.Got, e.Want)
}
