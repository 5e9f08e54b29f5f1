package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "STARTGAP_"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "startgap",
		Short: "Start-Gap wear leveling experiments for write-limited memory.",
		Long: `startgap replays memory access traces through a Start-Gap ` +
			`wear-leveled device and reports how evenly the writes wear the ` +
			`physical lines. Every flag can also be set with a STARTGAP_ ` +
			`environment variable, for example STARTGAP_PSI=50, or in a .env ` +
			`file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd.Flags())
		},
	}

	rootCmd.AddCommand(
		newGenCmd(),
		newRunCmd(),
		newCompareCmd(),
		newAnalyzeCmd(),
	)

	return rootCmd
}

// applyEnv loads .env and then sets every flag that was not given on the
// command line from its environment variable, if there is one.
func applyEnv(flags *pflag.FlagSet) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var setErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || setErr != nil {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		setErr = flags.Set(f.Name, value)
	})

	return setErr
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
