// Package progress emits structured progress logs for copies whose output is
// not a terminal.
package progress

import (
	"log/slog"
	"time"

	"github.com/lucrnz/rrrw/internal/util"
)

// Logger reports copy progress as slog events. With a known total it logs
// every MilestoneStep percent; otherwise every ByteStep bytes. Events are
// never emitted more often than MinInterval apart, except the final one.
type Logger struct {
	Total         int64 // -1 when unknown
	MilestoneStep int
	ByteStep      uint64
	MinInterval   time.Duration
	Logger        *slog.Logger

	copied        uint64
	nextMilestone int
	nextByteLog   uint64
	lastLog       time.Time
	now           func() time.Time
}

// New creates a progress logger with sane defaults.
func New(total int64, step int, byteStep uint64, interval time.Duration, logger *slog.Logger) *Logger {
	if step <= 0 {
		step = 5
	}
	if step > 50 {
		step = 50
	}
	if byteStep == 0 {
		byteStep = 64 * 1024 * 1024
	}
	if interval < 0 {
		interval = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Logger{
		Total:         total,
		MilestoneStep: step,
		ByteStep:      byteStep,
		MinInterval:   interval,
		Logger:        logger,
		nextMilestone: step,
		nextByteLog:   byteStep,
		now:           time.Now,
	}
}

// Update records the cumulative byte count and logs when a threshold is crossed.
func (l *Logger) Update(total uint64) {
	if total <= l.copied {
		return
	}
	l.copied = total

	if l.Total > 0 {
		l.maybeLogMilestone()
	} else {
		l.maybeLogBytes()
	}
}

// Finish logs the final count.
func (l *Logger) Finish() {
	l.log(l.copied)
}

func (l *Logger) maybeLogMilestone() {
	pct := int(l.percent())
	if pct < l.nextMilestone {
		return
	}
	for pct >= l.nextMilestone && l.nextMilestone <= 100 {
		l.nextMilestone += l.MilestoneStep
	}
	if l.throttled() {
		return
	}
	l.log(l.copied)
}

func (l *Logger) maybeLogBytes() {
	if l.copied < l.nextByteLog {
		return
	}
	for l.copied >= l.nextByteLog {
		l.nextByteLog += l.ByteStep
	}
	if l.throttled() {
		return
	}
	l.log(l.copied)
}

func (l *Logger) throttled() bool {
	return l.MinInterval > 0 && !l.lastLog.IsZero() && l.now().Sub(l.lastLog) < l.MinInterval
}

func (l *Logger) log(copied uint64) {
	l.lastLog = l.now()
	if l.Total > 0 {
		l.Logger.Info("copy_progress",
			"percent", int(l.percent()),
			"copied_bytes", copied,
			"copied", util.HumanReadableBytes(copied),
			"total_bytes", l.Total,
			"total", util.HumanReadableBytes(uint64(l.Total)),
		)
		return
	}
	l.Logger.Info("copy_progress",
		"copied_bytes", copied,
		"copied", util.HumanReadableBytes(copied),
	)
}

func (l *Logger) percent() float64 {
	if l.Total <= 0 {
		return 0
	}
	p := (float64(l.copied) / float64(l.Total)) * 100
	if p > 100 {
		return 100
	}
	return p
}
