package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lucrnz/rrrw/internal/cleanup"
	"github.com/lucrnz/rrrw/internal/config"
	"github.com/lucrnz/rrrw/internal/confirm"
	"github.com/lucrnz/rrrw/internal/copier"
	"github.com/lucrnz/rrrw/internal/decompress"
	"github.com/lucrnz/rrrw/internal/endpoint"
	"github.com/lucrnz/rrrw/internal/logging"
	"github.com/lucrnz/rrrw/internal/progress"
	"github.com/lucrnz/rrrw/internal/status"
	"github.com/lucrnz/rrrw/internal/util"
	"github.com/lucrnz/rrrw/internal/version"
)

func run(cmd *cobra.Command, streams Streams, cfg *config.Config, srcPath, dstPath string) (err error) {
	logger := logging.FromContext(cmd.Context())

	chunkSize, err := cfg.ChunkSize()
	if err != nil {
		return err
	}
	format, err := cfg.DecompressFormat()
	if err != nil {
		return err
	}

	srcInfo, err := endpoint.Inspect(srcPath)
	if err != nil {
		return err
	}
	dstInfo, err := endpoint.Inspect(dstPath)
	if err != nil {
		return err
	}
	if err := endpoint.CheckPair(srcInfo, dstInfo); err != nil {
		return err
	}

	fmt.Fprint(streams.Err, version.Banner())

	// Nothing on disk changes before the operator agrees.
	gate := confirm.Gate{In: streams.In, Out: streams.Err, AssumeYes: cfg.Yes}
	if err := gate.Ask(confirm.Prompt{
		Source:      srcInfo,
		Destination: dstInfo,
		ChunkSize:   util.HumanReadableBytes(uint64(chunkSize)),
	}); err != nil {
		if errors.Is(err, confirm.ErrDeclined) {
			fmt.Fprintln(streams.Err, "Aborted, nothing was written.")
			return nil
		}
		return err
	}
	if cfg.Yes {
		logger.Debug("confirmation_assumed", "source", srcPath, "destination", dstPath)
	}

	tracker := cleanup.NewTracker()
	defer func() {
		if cerr := tracker.Cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close endpoints: %w", cerr)
		}
	}()

	src, err := endpoint.OpenSource(srcPath)
	if err != nil {
		return err
	}
	tracker.Register(srcPath, src)

	reader, format, err := decompress.NewReader(src, format)
	if err != nil {
		return err
	}
	tracker.Register(string(format)+" decoder", reader)

	dst, err := endpoint.OpenDestination(dstPath)
	if err != nil {
		return err
	}
	tracker.Register(dstPath, dst)

	total := int64(-1)
	if format == decompress.None {
		total = src.Info.Size
	}
	reporter, lines, err := newReporter(cfg, streams.Err, total, logger)
	if err != nil {
		return err
	}

	session := &copier.Session{
		Source:          reader,
		Destination:     dst,
		ChunkSize:       chunkSize,
		SourceName:      src.Info.String(),
		DestinationName: dst.Info.String(),
		Reporter:        reporter,
	}

	logger.Info("copy_started",
		"source", srcPath,
		"destination", dstPath,
		"chunk_size", chunkSize,
		"decompress", string(format),
	)

	summary, err := session.Run()
	if err != nil {
		var fatal *copier.FatalError
		if errors.As(err, &fatal) {
			//nolint:errcheck // best effort, the error is returned anyway
			fatal.Dump(streams.Err, lines+1)
		}
		return err
	}

	logger.Info("copy_finished",
		"copied_bytes", summary.Bytes,
		"copied", util.HumanReadableBytes(summary.Bytes),
		"chunks", summary.Chunks,
		"elapsed", util.FormatDuration(summary.Elapsed),
		"rate", rate(summary.Bytes, summary.Elapsed),
	)
	return nil
}

// newReporter picks the progress display for cfg.Progress and returns it with
// the height of the region it draws.
func newReporter(cfg *config.Config, w io.Writer, total int64, logger *slog.Logger) (copier.Reporter, int, error) {
	mode := cfg.Progress
	if mode == config.ProgressAuto {
		mode = config.ProgressPlain
		if isTerminal(w) {
			mode = config.ProgressTTY
		}
	}

	switch mode {
	case config.ProgressTTY:
		layout := status.BinaryLayout()
		if cfg.DecimalUnits {
			layout = status.FullLayout()
		}
		r := status.NewRenderer(w, layout)
		return r, r.Lines(), nil
	case config.ProgressBar:
		return status.NewBar(w, total, "Copying"), 1, nil
	case config.ProgressPlain:
		interval, err := cfg.ProgressInterval()
		if err != nil {
			return nil, 0, err
		}
		return progress.New(total, 5, 0, interval, logger), 0, nil
	default:
		return status.Discard{}, 0, nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func rate(n uint64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return util.HumanReadableBytes(uint64(float64(n)/d.Seconds())) + "/s"
}
