package startgap

import (
	"fmt"
	"math"
)

// Defaults taken from the NVMain Start-Gap model: a 256 MiB bank of 256-byte
// lines, one gap movement every 100 writes, PCM cells rated for 10^8 writes.
const (
	DefaultNumLines         uint64 = 1 << 20
	DefaultLineSizeBytes    uint64 = 256
	DefaultRotationInterval uint64 = 100
	DefaultEnduranceLimit   uint64 = 100_000_000
)

// MaxNumLines bounds the device size. Every physical line owns an 8-byte
// wear counter, so this caps the counters at 2 GiB.
const MaxNumLines uint64 = 1 << 28

// WrapPolicy selects where a physical line that steps past the last slot
// while skipping the gap lands.
type WrapPolicy int

const (
	// WrapToZero sends the overflowing line to physical line 0, or to line 1
	// when line 0 is the gap.
	WrapToZero WrapPolicy = iota

	// WrapToStart sends the overflowing line to the physical line named by the
	// start register, or the one after it when that line is the gap. The
	// doubly-mapped line then moves with the start register instead of
	// staying at line 0.
	WrapToStart
)

// String returns the flag spelling of the policy.
func (p WrapPolicy) String() string {
	switch p {
	case WrapToZero:
		return "zero"
	case WrapToStart:
		return "start"
	default:
		return fmt.Sprintf("WrapPolicy(%d)", int(p))
	}
}

// ParseWrapPolicy is the inverse of WrapPolicy.String.
func ParseWrapPolicy(s string) (WrapPolicy, error) {
	switch s {
	case "zero", "":
		return WrapToZero, nil
	case "start":
		return WrapToStart, nil
	default:
		return 0, fmt.Errorf("unknown wrap policy %q, want zero or start", s)
	}
}

// Config holds everything needed to set up one wear-leveled device.
type Config struct {
	NumLines         uint64
	LineSizeBytes    uint64
	RotationInterval uint64
	EnduranceLimit   uint64

	// RotationDisabled keeps the gap parked at NumLines forever. It models an
	// infinite rotation interval and is used as the no-leveling baseline.
	RotationDisabled bool

	// TranslateReads makes reads return the translated address. Reads are
	// never counted as wear either way.
	TranslateReads bool

	Wrap WrapPolicy
}

// DefaultConfig returns the NVMain Start-Gap configuration.
func DefaultConfig() Config {
	return Config{
		NumLines:         DefaultNumLines,
		LineSizeBytes:    DefaultLineSizeBytes,
		RotationInterval: DefaultRotationInterval,
		EnduranceLimit:   DefaultEnduranceLimit,
		Wrap:             WrapToZero,
	}
}

// A ConfigurationError reports a parameter that cannot describe a device.
type ConfigurationError struct {
	Field  string
	Value  uint64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("startgap: invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	if c.NumLines == 0 {
		return &ConfigurationError{
			Field: "NumLines", Value: c.NumLines, Reason: "must be positive",
		}
	}

	if c.NumLines > MaxNumLines {
		return &ConfigurationError{
			Field: "NumLines", Value: c.NumLines,
			Reason: fmt.Sprintf("must not exceed %d", MaxNumLines),
		}
	}

	if c.LineSizeBytes == 0 {
		return &ConfigurationError{
			Field: "LineSizeBytes", Value: c.LineSizeBytes,
			Reason: "must be positive",
		}
	}

	if c.NumLines > math.MaxUint64/c.LineSizeBytes {
		return &ConfigurationError{
			Field: "LineSizeBytes", Value: c.LineSizeBytes,
			Reason: fmt.Sprintf(
				"%d lines of this size overflow a 64-bit address", c.NumLines),
		}
	}

	if c.RotationInterval == 0 {
		return &ConfigurationError{
			Field: "RotationInterval", Value: c.RotationInterval,
			Reason: "must be positive",
		}
	}

	if c.Wrap != WrapToZero && c.Wrap != WrapToStart {
		return &ConfigurationError{
			Field: "Wrap", Value: uint64(c.Wrap), Reason: "unknown wrap policy",
		}
	}

	return nil
}
