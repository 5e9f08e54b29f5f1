// Package report prints wear statistics as text, reads them back, and
// compares runs against each other.
package report

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"text/tabwriter"

	"github.com/sarchlab/startgap/mem/startgap"
)

// Stats is the part of a snapshot that survives the text form.
type Stats struct {
	TotalWrites  float64
	GapMovements float64
	UniqueLines  float64
	MaxWear      float64
	MinWear      float64
	AverageWear  float64
	Uniformity   float64
	Lifetime     float64
}

// FromSnapshot keeps the reported fields of a snapshot.
func FromSnapshot(s startgap.StatsSnapshot) Stats {
	return Stats{
		TotalWrites:  float64(s.TotalWrites),
		GapMovements: float64(s.TotalRotations),
		UniqueLines:  float64(s.UniqueLinesWritten),
		MaxWear:      float64(s.MaxWear),
		MinWear:      float64(s.MinWear),
		AverageWear:  s.AverageWear,
		Uniformity:   s.UniformityRatio,
		Lifetime:     s.EstimatedLifetimeMultiplier,
	}
}

const banner = "========== Start-Gap Statistics =========="

// Write prints the snapshot in the text form Parse understands. The
// lifetime is printed as n/a before the first write.
func Write(w io.Writer, s startgap.StatsSnapshot) error {
	lifetime := "n/a"
	if s.HasLifetimeEstimate {
		lifetime = fmt.Sprintf("%.2fx", s.EstimatedLifetimeMultiplier)
	}

	_, err := fmt.Fprintf(w,
		"%s\n"+
			"Total Writes: %d\n"+
			"Gap Movements: %d\n"+
			"Unique Lines Written: %d\n"+
			"Max Wear: %d\n"+
			"Min Wear: %d\n"+
			"Average Wear: %.2f\n"+
			"Uniformity Ratio: %.4f\n"+
			"Estimated Lifetime: %s\n"+
			"Start Register: %d\n"+
			"Gap Register: %d\n"+
			"%s\n",
		banner,
		s.TotalWrites,
		s.TotalRotations,
		s.UniqueLinesWritten,
		s.MaxWear,
		s.MinWear,
		s.AverageWear,
		s.UniformityRatio,
		lifetime,
		s.StartReg,
		s.GapReg,
		"==========================================",
	)

	return err
}

type field struct {
	re  *regexp.Regexp
	dst func(*Stats) *float64
}

var fields = []field{
	{regexp.MustCompile(`Total Writes:\s+(\d+)`),
		func(s *Stats) *float64 { return &s.TotalWrites }},
	{regexp.MustCompile(`Gap Movements:\s+(\d+)`),
		func(s *Stats) *float64 { return &s.GapMovements }},
	{regexp.MustCompile(`Unique Lines Written:\s+(\d+)`),
		func(s *Stats) *float64 { return &s.UniqueLines }},
	{regexp.MustCompile(`Max Wear:\s+(\d+)`),
		func(s *Stats) *float64 { return &s.MaxWear }},
	{regexp.MustCompile(`Min Wear:\s+(\d+)`),
		func(s *Stats) *float64 { return &s.MinWear }},
	{regexp.MustCompile(`Average Wear:\s+([\d.]+)`),
		func(s *Stats) *float64 { return &s.AverageWear }},
	{regexp.MustCompile(`Uniformity Ratio:\s+([\d.]+)`),
		func(s *Stats) *float64 { return &s.Uniformity }},
	{regexp.MustCompile(`Estimated Lifetime:\s+([\d.]+)`),
		func(s *Stats) *float64 { return &s.Lifetime }},
}

// Parse reads a report. It accepts any text that contains the labelled
// lines, such as a full simulator log. Fields that are missing read as 0.
func Parse(r io.Reader) (Stats, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{}
	for _, f := range fields {
		m := f.re.FindSubmatch(content)
		if m == nil {
			continue
		}

		v, err := strconv.ParseFloat(string(m[1]), 64)
		if err != nil {
			return Stats{}, fmt.Errorf("parsing %q: %w", m[0], err)
		}

		*f.dst(&s) = v
	}

	return s, nil
}

// Named is a labelled run.
type Named struct {
	Name  string
	Stats Stats
}

var comparisonRows = []struct {
	label string
	unit  string
	value func(Stats) float64
}{
	{"Total Writes", "", func(s Stats) float64 { return s.TotalWrites }},
	{"Gap Movements", "", func(s Stats) float64 { return s.GapMovements }},
	{"Unique Lines", "", func(s Stats) float64 { return s.UniqueLines }},
	{"Max Wear", "", func(s Stats) float64 { return s.MaxWear }},
	{"Min Wear", "", func(s Stats) float64 { return s.MinWear }},
	{"Average Wear", "", func(s Stats) float64 { return s.AverageWear }},
	{"Uniformity Ratio", "x", func(s Stats) float64 { return s.Uniformity }},
	{"Estimated Lifetime", "x", func(s Stats) float64 { return s.Lifetime }},
}

// WriteComparison prints the runs side by side, one column per run.
func WriteComparison(w io.Writer, runs []Named) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "Metric\t")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t", r.Name)
	}
	fmt.Fprintln(tw)

	for _, row := range comparisonRows {
		fmt.Fprintf(tw, "%s\t", row.label)
		for _, r := range runs {
			fmt.Fprintf(tw, "%.2f%s\t", row.value(r.Stats), row.unit)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// NoLevelingMaxWear estimates the wear of the hottest line without any wear
// leveling, assuming hotWriteShare of the writes fall evenly on
// hotLineShare of the unique lines. It returns 0 when there are no lines.
func NoLevelingMaxWear(
	totalWrites, uniqueLines, hotWriteShare, hotLineShare float64,
) float64 {
	hotLines := uniqueLines * hotLineShare
	if hotLines <= 0 {
		return 0
	}

	return totalWrites * hotWriteShare / hotLines
}

// Improvement is the lifetime gain of a leveled run over a baseline: how many
// times less the hottest line was written. It returns 0 when nothing was
// written to the leveled device.
func Improvement(baselineMaxWear, leveledMaxWear float64) float64 {
	if leveledMaxWear == 0 {
		return 0
	}

	return baselineMaxWear / leveledMaxWear
}
