package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/startgap/report"
	"github.com/sarchlab/startgap/sim"
)

func newCompareCmd() *cobra.Command {
	var (
		device    deviceFlags
		tracePath string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Replay a trace with and without gap movement and compare.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := device.deviceConfig()
			if err != nil {
				return err
			}

			leveled := simulation{
				name:   "start-gap",
				config: cfg,
				freq:   sim.Freq(device.freq),
			}

			baseline := leveled
			baseline.name = "no-leveling"
			baseline.config.RotationDisabled = true

			runs := make([]report.Named, 0, 2)
			for _, s := range []simulation{leveled, baseline} {
				result, err := s.run(tracePath)
				if err != nil {
					return fmt.Errorf("%s: %w", s.name, err)
				}

				runs = append(runs, report.Named{
					Name:  s.name,
					Stats: report.FromSnapshot(result.snapshot),
				})
			}

			out := cmd.OutOrStdout()

			err = report.WriteComparison(out, runs)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(out, "\nLifetime improvement: %.2fx\n",
				report.Improvement(runs[1].Stats.MaxWear, runs[0].Stats.MaxWear))

			return err
		},
	}

	flags := cmd.Flags()
	device.register(flags)
	flags.StringVarP(&tracePath, "trace", "t", "", "trace file to replay")
	_ = cmd.MarkFlagRequired("trace")

	return cmd
}
