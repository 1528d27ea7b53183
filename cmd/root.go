package cmd

import (
	"runtime/pprof"

	"os"

	"github.com/Ethan-Gao/drow/pkg/patcher"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func RootCmd() *cobra.Command {
	opts := struct {
		Profile bool
		Debug   bool
	}{
		false,
		false,
	}

	rootCmd := &cobra.Command{
		Use:   "drow",
		Short: "Drow patches an ELF executable by growing a section and splicing in a payload",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Debug {
				slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
					AddSource: false,
					Level:     slog.LevelDebug,
				})))
			}

			if opts.Profile {
				file, err := os.Create("cpu.pprof")
				if err != nil {
					return err
				}

				pprof.StartCPUProfile(file)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Profile {
				pprof.StopCPUProfile()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.Profile, "profile", "p", false, "enable profiling")
	rootCmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "enable debugging")

	rootCmd.AddCommand(patchCmd())

	return rootCmd
}

func patchCmd() *cobra.Command {
	opts := patcher.Options{}

	patchCmd := &cobra.Command{
		Use:   "patch [flags] ELF",
		Short: "Splice a payload blob into an ELF executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ElfPath = args[0]
			if opts.OutPath == "" {
				opts.OutPath = opts.ElfPath + ".patched"
			}

			return patcher.Patch(opts)
		},
	}

	patchCmd.Flags().StringVarP(&opts.PayloadPath, "payload", "b", "", "payload blob to splice in")
	patchCmd.Flags().StringVarP(&opts.OutPath, "output", "o", "", "output path (default ELF.patched)")
	patchCmd.MarkFlagRequired("payload")

	return patchCmd
}
