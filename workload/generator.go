package workload

import (
	"fmt"
	"math/rand"
	"strings"
)

// Pattern names a synthetic access pattern.
type Pattern string

// Supported patterns.
const (
	Hotspot    Pattern = "hotspot"
	Uniform    Pattern = "uniform"
	Sequential Pattern = "sequential"
)

// GeneratorConfig describes a synthetic write trace. The address space is
// NumAddresses addresses spaced Stride bytes apart, starting at 0.
type GeneratorConfig struct {
	Pattern      Pattern
	NumWrites    uint64
	NumAddresses uint64
	Stride       uint64

	// CyclesPerAccess is the distance between two consecutive accesses.
	CyclesPerAccess uint64

	// HotAddressShare is the fraction of addresses forming the hot spot and
	// HotWriteShare the fraction of writes sent there. Hotspot only.
	HotAddressShare float64
	HotWriteShare   float64

	// TrailingRead appends one read of address 0 after the writes.
	TrailingRead bool

	Seed int64
}

// DefaultGeneratorConfig returns an 80-20 hot spot of 100,000 writes over
// 1,000 addresses.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Pattern:         Hotspot,
		NumWrites:       100_000,
		NumAddresses:    1000,
		Stride:          0x100,
		CyclesPerAccess: 10,
		HotAddressShare: 0.2,
		HotWriteShare:   0.8,
		TrailingRead:    true,
		Seed:            1,
	}
}

// dataField is the 128-character payload of every generated access.
var dataField = strings.Repeat("0", 128)

// Validate checks that the configuration can generate a trace.
func (c GeneratorConfig) Validate() error {
	switch c.Pattern {
	case Hotspot, Uniform, Sequential:
	default:
		return fmt.Errorf("unknown pattern %q", c.Pattern)
	}

	if c.NumAddresses == 0 {
		return fmt.Errorf("address count must be positive")
	}

	if c.Pattern == Hotspot {
		if c.HotAddressShare <= 0 || c.HotAddressShare >= 1 {
			return fmt.Errorf("hot address share %v not in (0, 1)",
				c.HotAddressShare)
		}

		if c.HotWriteShare < 0 || c.HotWriteShare > 1 {
			return fmt.Errorf("hot write share %v not in [0, 1]",
				c.HotWriteShare)
		}

		hot := c.hotAddresses()
		if hot == 0 || hot == c.NumAddresses {
			return fmt.Errorf("hot spot of %d addresses out of %d is empty "+
				"or covers everything", hot, c.NumAddresses)
		}
	}

	return nil
}

func (c GeneratorConfig) hotAddresses() uint64 {
	return uint64(float64(c.NumAddresses) * c.HotAddressShare)
}

// A Generator produces the records of a synthetic trace one by one.
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
	next   uint64
}

// NewGenerator validates the configuration and creates a generator.
func NewGenerator(config GeneratorConfig) (*Generator, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Len returns the number of records the generator produces in total.
func (g *Generator) Len() uint64 {
	if g.config.TrailingRead {
		return g.config.NumWrites + 1
	}

	return g.config.NumWrites
}

// Next returns the next record and false once the trace is exhausted.
func (g *Generator) Next() (Record, bool) {
	i := g.next
	if i >= g.Len() {
		return Record{}, false
	}

	g.next++

	rec := Record{
		Cycle: i * g.config.CyclesPerAccess,
		Op:    Write,
		Data:  dataField,
	}

	if i == g.config.NumWrites {
		rec.Op = Read
		return rec, true
	}

	rec.Address = g.addressIndex(i) * g.config.Stride

	return rec, true
}

func (g *Generator) addressIndex(i uint64) uint64 {
	n := g.config.NumAddresses

	switch g.config.Pattern {
	case Sequential:
		return i % n
	case Uniform:
		return uint64(g.rng.Int63n(int64(n)))
	default:
		hot := g.config.hotAddresses()
		if g.rng.Float64() < g.config.HotWriteShare {
			return uint64(g.rng.Int63n(int64(hot)))
		}

		return hot + uint64(g.rng.Int63n(int64(n-hot)))
	}
}

// Generate writes the whole trace to w.
func Generate(w *Writer, config GeneratorConfig) error {
	g, err := NewGenerator(config)
	if err != nil {
		return err
	}

	for {
		rec, ok := g.Next()
		if !ok {
			break
		}

		err = w.Write(rec)
		if err != nil {
			return err
		}
	}

	return w.Flush()
}
