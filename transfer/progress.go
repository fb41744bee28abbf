package transfer

// Progress observes a transfer: done bytes out of total.
type Progress func(done, total int64)

// Percent is floor(done*100/total). An empty transfer is complete.
func Percent(done, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(done * 100 / total)
}

// NewPercentTracker forwards to observer only when the integer percentage
// increases, so an empty file reports 100 exactly once.
func NewPercentTracker(observer Progress) Progress {
	if observer == nil {
		return nil
	}
	last := -1
	return func(done, total int64) {
		p := Percent(done, total)
		if p <= last {
			return
		}
		last = p
		observer(done, total)
	}
}
