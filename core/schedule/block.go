package schedule

import "github.com/kilianp07/nightplan/core/interval"

// Block is one window of night working time.
type Block struct {
	interval.Interval
}

// Overlaps reports whether the block overlaps iv with the given kind.
func (b Block) Overlaps(iv interval.Interval, kind interval.Overlap) bool {
	return b.Interval.Overlaps(iv, kind)
}
