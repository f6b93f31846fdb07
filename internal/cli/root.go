package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucrnz/rrrw/internal/cleanup"
	"github.com/lucrnz/rrrw/internal/config"
	"github.com/lucrnz/rrrw/internal/copier"
	"github.com/lucrnz/rrrw/internal/decompress"
	"github.com/lucrnz/rrrw/internal/endpoint"
	"github.com/lucrnz/rrrw/internal/logging"
	"github.com/lucrnz/rrrw/internal/util"
	"github.com/lucrnz/rrrw/internal/version"
)

// Exit codes returned by ExitCode.
const (
	ExitOK     = 0
	ExitConfig = 1
	ExitFatal  = 2
)

// Streams are the standard streams a command reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewRootCmd builds the rrrw command.
func NewRootCmd(streams Streams) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "rrrw [flags] <source> <destination>",
		Short: "Raw Read Raw Write: copy files and block devices chunk by chunk",
		Long: `rrrw

Copies the exact bytes of a source file or block device to a destination file
or block device. Every chunk is written in full and flushed to stable storage
before it is counted, so the progress shown is what survived on the device.

Examples:
  rrrw fedora.iso /dev/sde
  rrrw --unit Mi --amount 4 fedora.iso /dev/sde
  rrrw --chunk 1MiB --decompress auto fedora.raw.xz /dev/sde
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				_ = cmd.Usage()
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(streams.Err, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			cleanup.SetLogger(logger)
			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
			return run(cmd, streams, cfg, args[0], args[1])
		},
		Version:       version.Print(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	flags := cmd.Flags()
	flags.StringP(config.KeyUnit, "u", "B", "Chunk unit: B, K, M, G, T (1000-based) or Ki, Mi, Gi, Ti (1024-based)")
	flags.Int64P(config.KeyAmount, "n", 1, "Chunk size in --unit units")
	flags.StringP(config.KeyChunk, "c", "", "Chunk size with unit, e.g. \"4MiB\" (overrides --unit and --amount)")
	flags.Bool(config.KeyDecimalUnits, true, "Also show KB, MB, GB and TB in the status display")
	flags.StringP(config.KeyProgress, "p", string(config.ProgressAuto), "Progress display: auto, tty, bar, plain or none")
	flags.String(config.KeyInterval, "1s", "Minimum time between plain progress events, e.g. \"500ms\" or \"1m\"")
	flags.StringP(config.KeyDecompress, "d", string(decompress.None), "Decompress the source: none, auto, gzip, zstd, xz or bzip2")
	flags.BoolP(config.KeyYes, "y", false, "Answer yes to the confirmation prompt")
	flags.String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error")
	flags.String(config.KeyLogFormat, "text", "Log format: text or json")
	flags.StringVar(&cfgFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/rrrw/config.yaml)")

	// Show usage only when there's a flag parsing error
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return err
	})

	return cmd
}

// Execute runs the root command against the process's standard streams.
func Execute() error {
	cmd := NewRootCmd(Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// ExitCode maps the result of Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var fatal *copier.FatalError
	if errors.As(err, &fatal) {
		return ExitFatal
	}
	return ExitConfig
}

// formatError converts errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	var fatal *copier.FatalError
	switch {
	case errors.As(err, &fatal) && fatal.ShortWrite():
		return fmt.Sprintf("Error: destination does not have enough space (%s copied)", util.HumanReadableBytes(fatal.Transferred))
	case errors.As(err, &fatal):
		return fmt.Sprintf("Error: copy aborted: %v", err)
	case errors.Is(err, endpoint.ErrSameFile):
		return fmt.Sprintf("Error: refusing to copy a file onto itself: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
