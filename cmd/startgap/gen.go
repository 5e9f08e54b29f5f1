package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/startgap/workload"
)

func newGenCmd() *cobra.Command {
	cfg := workload.DefaultGeneratorConfig()
	var pattern, out string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic write trace.",
		Long: `gen writes a trace in the NVMain text format. The hotspot ` +
			`pattern sends --hot-writes of the writes to --hot-addresses of ` +
			`the address space.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Pattern = workload.Pattern(pattern)

			err := cfg.Validate()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()

				w = f
			}

			return workload.Generate(workload.NewWriter(w), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pattern, "pattern", string(cfg.Pattern),
		"access pattern: hotspot, uniform, or sequential")
	flags.Uint64Var(&cfg.NumWrites, "writes", cfg.NumWrites,
		"number of writes")
	flags.Uint64Var(&cfg.NumAddresses, "addresses", cfg.NumAddresses,
		"number of distinct addresses")
	flags.Uint64Var(&cfg.Stride, "stride", cfg.Stride,
		"distance in bytes between two addresses")
	flags.Uint64Var(&cfg.CyclesPerAccess, "cycles-per-access",
		cfg.CyclesPerAccess, "cycles between two accesses")
	flags.Float64Var(&cfg.HotAddressShare, "hot-addresses",
		cfg.HotAddressShare, "share of the addresses in the hot spot")
	flags.Float64Var(&cfg.HotWriteShare, "hot-writes", cfg.HotWriteShare,
		"share of the writes sent to the hot spot")
	flags.BoolVar(&cfg.TrailingRead, "trailing-read", cfg.TrailingRead,
		"end the trace with one read")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flags.StringVarP(&out, "out", "o", "", "output file, stdout if empty")

	return cmd
}
