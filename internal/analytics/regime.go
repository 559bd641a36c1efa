package analytics

// Band is a run of consecutive items sharing a label.
type Band[L comparable] struct {
	Start string
	End   string
	Label L
}

// Collapse walks items in order and merges adjacent items with equal labels
// into bands. Adjacent bands never share a label.
func Collapse[T any, L comparable](items []T, date func(T) string, label func(T) L) []Band[L] {
	if len(items) == 0 {
		return nil
	}
	bands := make([]Band[L], 0, 4)
	cur := Band[L]{Start: date(items[0]), End: date(items[0]), Label: label(items[0])}
	for _, item := range items[1:] {
		l := label(item)
		if l != cur.Label {
			bands = append(bands, cur)
			cur = Band[L]{Start: date(item), Label: l}
		}
		cur.End = date(item)
	}
	return append(bands, cur)
}

// ClassifyRegimes labels every volatility observation against thresholds
// derived from the same slice and compresses the labels into bands.
//
// Thresholds come from whatever slice is passed in, so band boundaries move
// when the caller narrows or widens the display range. That is expected.
func ClassifyRegimes(vol []MetricPoint) []RegimeBand {
	if len(vol) == 0 {
		return []RegimeBand{}
	}
	low, high := Thresholds(values(vol))
	bands := Collapse(vol,
		func(p MetricPoint) string { return p.Date },
		func(p MetricPoint) Regime { return Classify(p.Value, low, high) },
	)

	out := make([]RegimeBand, len(bands))
	for i, b := range bands {
		out[i] = RegimeBand{StartDate: b.Start, EndDate: b.End, Regime: b.Label}
	}
	return out
}

// CurrentRegime classifies the last observation against thresholds from the
// whole slice. An empty slice classifies 0 against zero thresholds.
func CurrentRegime(vol []MetricPoint) Regime {
	low, high := Thresholds(values(vol))
	last := 0.0
	if len(vol) > 0 {
		last = vol[len(vol)-1].Value
	}
	return Classify(last, low, high)
}
