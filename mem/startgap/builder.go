package startgap

import (
	"github.com/sarchlab/startgap/sim"
)

// A Builder can build Start-Gap devices.
type Builder struct {
	config Config
	hooks  []sim.Hook
}

// MakeBuilder creates a builder with DefaultConfig.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces every configuration field at once.
func (b Builder) WithConfig(cfg Config) Builder {
	b.config = cfg
	return b
}

// WithNumLines sets the number of physical lines.
func (b Builder) WithNumLines(n uint64) Builder {
	b.config.NumLines = n
	return b
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(n uint64) Builder {
	b.config.LineSizeBytes = n
	return b
}

// WithRotationInterval sets psi, the number of writes between two gap
// movements.
func (b Builder) WithRotationInterval(psi uint64) Builder {
	b.config.RotationInterval = psi
	return b
}

// WithEnduranceLimit sets the rated number of writes per cell used for the
// lifetime estimate.
func (b Builder) WithEnduranceLimit(n uint64) Builder {
	b.config.EnduranceLimit = n
	return b
}

// WithWrapPolicy selects how the gap skip wraps past the last line.
func (b Builder) WithWrapPolicy(p WrapPolicy) Builder {
	b.config.Wrap = p
	return b
}

// WithoutRotation builds a device whose gap never moves.
func (b Builder) WithoutRotation() Builder {
	b.config.RotationDisabled = true
	return b
}

// WithReadTranslation makes reads return translated addresses.
func (b Builder) WithReadTranslation() Builder {
	b.config.TranslateReads = true
	return b
}

// WithHook registers a hook on the device being built.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), h)
	return b
}

// Build creates the device. It returns a *ConfigurationError and no device
// if the configuration is invalid.
func (b Builder) Build(name string) (*Comp, error) {
	err := b.config.Validate()
	if err != nil {
		return nil, err
	}

	state := NewTranslationState(
		b.config.NumLines, b.config.LineSizeBytes, b.config.Wrap)
	scheduler := NewGapScheduler(state, b.config.RotationInterval)
	if b.config.RotationDisabled {
		scheduler.DisableRotation()
	}

	c := &Comp{
		name:      name,
		config:    b.config,
		scheduler: scheduler,
		tracker:   NewWearTracker(b.config.NumLines),
	}

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	return c, nil
}
