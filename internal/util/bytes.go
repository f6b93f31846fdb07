package util

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// HumanReadableBytes formats a byte count with binary (IEC) units, e.g. "1.5 MiB".
func HumanReadableBytes(n uint64) string {
	return humanize.IBytes(n)
}

// ParseByteSize parses a human-readable size such as "4MiB", "512MB" or "1048576".
func ParseByteSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}
