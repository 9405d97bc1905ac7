package domain

import "sort"

// Range is a closed interval of chunk offsets, both ends inclusive.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// MissingRanges computes the minimal list of maximal contiguous intervals of
// {0..n-1} \ present, in increasing order. present need not be sorted or
// deduplicated.
func MissingRanges(present []int64, n int64) []Range {
	if n <= 0 {
		return nil
	}
	have := make([]bool, n)
	for _, o := range present {
		if o >= 0 && o < n {
			have[o] = true
		}
	}

	var ranges []Range
	var start int64 = -1
	for i := int64(0); i < n; i++ {
		if !have[i] {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			ranges = append(ranges, Range{Start: start, End: i - 1})
			start = -1
		}
	}
	if start != -1 {
		ranges = append(ranges, Range{Start: start, End: n - 1})
	}
	return ranges
}

// FillRanges expands a list of ranges back into the set of offsets they
// cover. Used only by tests to check the round-trip law against
// MissingRanges.
func FillRanges(ranges []Range) []int64 {
	var out []int64
	for _, r := range ranges {
		for o := r.Start; o <= r.End; o++ {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
