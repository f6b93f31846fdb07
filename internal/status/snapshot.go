package status

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// Snapshot is a byte count projected into every supported unit. Renderers
// build a fresh one for each draw.
type Snapshot struct {
	Bytes uint64
	KiB   float64
	MiB   float64
	GiB   float64
	TiB   float64
	KB    float64
	MB    float64
	GB    float64
	TB    float64
}

// NewSnapshot computes all unit values for total.
func NewSnapshot(total uint64) Snapshot {
	f := float64(total)
	return Snapshot{
		Bytes: total,
		KiB:   f / humanize.KiByte,
		MiB:   f / humanize.MiByte,
		GiB:   f / humanize.GiByte,
		TiB:   f / humanize.TiByte,
		KB:    f / humanize.KByte,
		MB:    f / humanize.MByte,
		GB:    f / humanize.GByte,
		TB:    f / humanize.TByte,
	}
}

// Field is one line of the status block: a label and the snapshot value it
// shows. The zero value selector means the exact byte count.
type Field struct {
	Label string
	value func(Snapshot) float64
}

var (
	FieldBytes = Field{Label: "B"}
	FieldKiB   = Field{Label: "KiB", value: func(s Snapshot) float64 { return s.KiB }}
	FieldMiB   = Field{Label: "MiB", value: func(s Snapshot) float64 { return s.MiB }}
	FieldGiB   = Field{Label: "GiB", value: func(s Snapshot) float64 { return s.GiB }}
	FieldTiB   = Field{Label: "TiB", value: func(s Snapshot) float64 { return s.TiB }}
	FieldKB    = Field{Label: "KB", value: func(s Snapshot) float64 { return s.KB }}
	FieldMB    = Field{Label: "MB", value: func(s Snapshot) float64 { return s.MB }}
	FieldGB    = Field{Label: "GB", value: func(s Snapshot) float64 { return s.GB }}
	FieldTB    = Field{Label: "TB", value: func(s Snapshot) float64 { return s.TB }}
)

// Format renders the field's value from s using the shortest decimal
// representation, so 1048576 bytes in MiB is "1" and 1.5 MiB is "1.5".
func (f Field) Format(s Snapshot) string {
	if f.value == nil {
		return strconv.FormatUint(s.Bytes, 10)
	}
	return strconv.FormatFloat(f.value(s), 'f', -1, 64)
}

// Layout is the ordered set of fields a Renderer draws. Its length is the
// height of the status block.
type Layout []Field

// BinaryLayout shows bytes and the 1024-based units.
func BinaryLayout() Layout {
	return Layout{FieldBytes, FieldKiB, FieldMiB, FieldGiB, FieldTiB}
}

// FullLayout adds the 1000-based units after the binary ones.
func FullLayout() Layout {
	return append(BinaryLayout(), FieldKB, FieldMB, FieldGB, FieldTB)
}

// Lines returns the number of terminal lines the layout occupies.
func (l Layout) Lines() int { return len(l) }
