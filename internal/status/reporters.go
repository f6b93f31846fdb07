package status

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Discard ignores every update.
type Discard struct{}

func (Discard) Update(uint64) {}
func (Discard) Finish()       {}

// Bar reports progress as a single-line byte counter. When total is
// unknown (-1) the bar shows a spinner instead of a percentage.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer, total int64, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)}
}

func (b *Bar) Update(total uint64) {
	//nolint:errcheck // progress bar errors are not critical
	b.bar.Set64(int64(total))
}

func (b *Bar) Finish() {
	//nolint:errcheck // progress bar errors are not critical
	b.bar.Finish()
}
