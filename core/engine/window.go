package engine

// Window is a half-open slice [Start, End) over a period axis.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SelectWindow picks the most recent slice of a period axis. The
// requested width is clamped below to 3 periods (or the whole axis if
// shorter) and above to the axis length; End always sits at the end of
// the axis.
func SelectWindow(periodCount, requested int) Window {
	if periodCount <= 0 {
		return Window{}
	}
	width := requested
	if width < 3 {
		width = 3
	}
	if width > periodCount {
		width = periodCount
	}
	start := periodCount - width
	if start < 0 {
		start = 0
	}
	return Window{Start: start, End: periodCount}
}
