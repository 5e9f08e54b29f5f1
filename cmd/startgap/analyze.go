package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/startgap/report"
)

func newAnalyzeCmd() *cobra.Command {
	cfg := report.DefaultAnalysisConfig()

	cmd := &cobra.Command{
		Use:   "analyze report...",
		Short: "Compare saved reports.",
		Long: `analyze reads the reports printed by run, or any log that ` +
			`contains them, and prints them side by side. Each run is named ` +
			`after its file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs := make([]report.Named, 0, len(args))
			for _, path := range args {
				s, err := parseReportFile(path)
				if err != nil {
					return err
				}

				runs = append(runs, report.Named{
					Name:  runName(path),
					Stats: s,
				})
			}

			out := cmd.OutOrStdout()

			err := report.WriteComparison(out, runs)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)

			return report.WriteAnalysis(out, runs, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&cfg.EnduranceLimit, "endurance", cfg.EnduranceLimit,
		"writes a line survives")
	flags.Float64Var(&cfg.HotWriteShare, "hot-writes", cfg.HotWriteShare,
		"share of the writes assumed to hit the hot spot")
	flags.Float64Var(&cfg.HotLineShare, "hot-lines", cfg.HotLineShare,
		"share of the lines assumed to form the hot spot")

	return cmd
}

func parseReportFile(path string) (report.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return report.Stats{}, err
	}
	defer f.Close()

	return report.Parse(f)
}

func runName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
