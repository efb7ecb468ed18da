package posture

import "fmt"

// Sensitivity preset names.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// Base (medium) deviation thresholds per issue category. Expressed in the
// same normalized units as the metrics they compare.
const (
	baseHeadDropThreshold     = 0.04
	baseSlouchThreshold       = 0.06
	baseLeanThreshold         = 0.03
	baseShoulderTiltThreshold = 0.025
	baseForwardLeanThreshold  = 0.03
)

// Preset scale factors applied uniformly to the base thresholds. Low is the
// most permissive, high the strictest.
const (
	lowScale    = 1.5
	mediumScale = 1.0
	highScale   = 0.625
)

// Thresholds parameterizes one comparison call: per-category deviation
// thresholds plus the sensitivity label they were derived from. Values are
// copied, never shared, so concurrent consumers may run with different
// sensitivities without interference.
type Thresholds struct {
	Sensitivity  string
	HeadDrop     float64
	Slouch       float64
	Lean         float64
	ShoulderTilt float64
	ForwardLean  float64
}

// DefaultThresholds returns the medium preset.
func DefaultThresholds() Thresholds {
	t, _ := Preset(SensitivityMedium)
	return t
}

// Preset builds a new Thresholds value for the named sensitivity. Returns
// ErrUnknownSensitivity for anything other than low, medium, or high.
func Preset(name string) (Thresholds, error) {
	var scale float64
	switch name {
	case SensitivityLow:
		scale = lowScale
	case SensitivityMedium:
		scale = mediumScale
	case SensitivityHigh:
		scale = highScale
	default:
		return Thresholds{}, fmt.Errorf("%w: %q", ErrUnknownSensitivity, name)
	}

	return Thresholds{
		Sensitivity:  name,
		HeadDrop:     baseHeadDropThreshold * scale,
		Slouch:       baseSlouchThreshold * scale,
		Lean:         baseLeanThreshold * scale,
		ShoulderTilt: baseShoulderTiltThreshold * scale,
		ForwardLean:  baseForwardLeanThreshold * scale,
	}, nil
}

// PresetNames lists the valid sensitivity names, most permissive first.
func PresetNames() []string {
	return []string{SensitivityLow, SensitivityMedium, SensitivityHigh}
}
