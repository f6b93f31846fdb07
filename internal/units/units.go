// Package units defines the chunk-size unit selector and its byte multipliers.
package units

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrUnknownUnit is returned by Parse for labels that name no unit.
var ErrUnknownUnit = errors.New("unknown unit")

// ErrOverflow is returned when amount × multiplier does not fit in 64 bits.
var ErrOverflow = errors.New("chunk size overflows 64 bits")

// Unit selects the multiplier applied to a chunk-size amount.
type Unit int

const (
	Byte Unit = iota
	Kilo
	Mega
	Giga
	Tera
	Kibi
	Mebi
	Gibi
	Tebi
)

var multipliers = [...]uint64{
	Byte: humanize.Byte,
	Kilo: humanize.KByte,
	Mega: humanize.MByte,
	Giga: humanize.GByte,
	Tera: humanize.TByte,
	Kibi: humanize.KiByte,
	Mebi: humanize.MiByte,
	Gibi: humanize.GiByte,
	Tebi: humanize.TiByte,
}

var labels = [...]string{
	Byte: "B",
	Kilo: "KB",
	Mega: "MB",
	Giga: "GB",
	Tera: "TB",
	Kibi: "KiB",
	Mebi: "MiB",
	Gibi: "GiB",
	Tebi: "TiB",
}

// aliases maps lower-cased labels accepted on the command line.
var aliases = map[string]Unit{
	"":    Byte,
	"b":   Byte,
	"k":   Kilo,
	"kb":  Kilo,
	"m":   Mega,
	"mb":  Mega,
	"g":   Giga,
	"gb":  Giga,
	"t":   Tera,
	"tb":  Tera,
	"ki":  Kibi,
	"kib": Kibi,
	"mi":  Mebi,
	"mib": Mebi,
	"gi":  Gibi,
	"gib": Gibi,
	"ti":  Tebi,
	"tib": Tebi,
}

// Parse resolves a unit label. Matching is case-insensitive and an empty
// label means bytes.
func Parse(label string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return Byte, fmt.Errorf("%w %q (valid: %s)", ErrUnknownUnit, label, strings.Join(labels[:], ", "))
	}
	return u, nil
}

// Multiplier returns the number of bytes in one unit.
func (u Unit) Multiplier() uint64 {
	if u < Byte || int(u) >= len(multipliers) {
		return 0
	}
	return multipliers[u]
}

func (u Unit) String() string {
	if u < Byte || int(u) >= len(labels) {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return labels[u]
}

// Bytes returns amount × the unit multiplier.
func (u Unit) Bytes(amount uint64) (uint64, error) {
	hi, lo := bits.Mul64(amount, u.Multiplier())
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d %s", ErrOverflow, amount, u)
	}
	return lo, nil
}
