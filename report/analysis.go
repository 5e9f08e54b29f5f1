package report

import (
	"fmt"
	"io"
)

// AnalysisConfig controls WriteAnalysis.
type AnalysisConfig struct {
	// EnduranceLimit is the number of writes a line survives.
	EnduranceLimit float64

	// HotWriteShare and HotLineShare describe the hot spot assumed by the
	// unleveled estimate.
	HotWriteShare float64
	HotLineShare  float64
}

// DefaultAnalysisConfig assumes 10^8 writes per line and an 80-20 hot spot.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		EnduranceLimit: 1e8,
		HotWriteShare:  0.8,
		HotLineShare:   0.2,
	}
}

// WriteAnalysis prints, per run, the spread between the most and least worn
// lines, how many more times the traffic could repeat, and the gain over the
// estimated unleveled worst line.
func WriteAnalysis(w io.Writer, runs []Named, cfg AnalysisConfig) error {
	for _, r := range runs {
		s := r.Stats

		_, err := fmt.Fprintf(w,
			"%s:\n"+
				"  uniformity ratio: %.2fx\n"+
				"  worst line: %.0f writes\n"+
				"  best line:  %.0f writes\n"+
				"  spread:     %.0f writes\n",
			r.Name, s.Uniformity, s.MaxWear, s.MinWear, s.MaxWear-s.MinWear)
		if err != nil {
			return err
		}

		if s.MaxWear > 0 {
			fmt.Fprintf(w, "  remaining lifetime: %.0fx the observed traffic\n",
				cfg.EnduranceLimit/s.MaxWear)
		}

		baseline := NoLevelingMaxWear(
			s.TotalWrites, s.UniqueLines,
			cfg.HotWriteShare, cfg.HotLineShare)
		if baseline > 0 && s.MaxWear > 0 {
			fmt.Fprintf(w,
				"  unleveled worst line (estimated): %.0f writes\n"+
					"  lifetime improvement: %.2fx\n",
				baseline, Improvement(baseline, s.MaxWear))
		}
	}

	return nil
}
