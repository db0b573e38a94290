package domain

import "fmt"

// NoBound is the sentinel that disables a numeric criterion.
const NoBound = -1

// FilterCriteria is the user-supplied inclusion configuration for one run.
type FilterCriteria struct {
	Keyword    string
	MinSize    int
	MaxSize    int
	MaxAgeDays int
	// ResultLimit caps how many records are examined, not how many are accepted.
	ResultLimit int
}

// DefaultCriteria returns criteria with every bound disabled.
func DefaultCriteria(keyword string) FilterCriteria {
	return FilterCriteria{
		Keyword:     keyword,
		MinSize:     NoBound,
		MaxSize:     NoBound,
		MaxAgeDays:  NoBound,
		ResultLimit: NoBound,
	}
}

// Bounded reports whether v is an active bound rather than the sentinel.
func Bounded(v int) bool {
	return v != NoBound
}

// Validate rejects negative values other than the sentinel.
func (c FilterCriteria) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"min size", c.MinSize},
		{"max size", c.MaxSize},
		{"max age days", c.MaxAgeDays},
		{"result limit", c.ResultLimit},
	}
	for _, f := range fields {
		if f.value < NoBound {
			return fmt.Errorf("%s must be %d (no limit) or non-negative, got %d", f.name, NoBound, f.value)
		}
	}
	return nil
}

// LimitReached reports whether examined records already exhaust ResultLimit.
func (c FilterCriteria) LimitReached(examined int) bool {
	return Bounded(c.ResultLimit) && examined >= c.ResultLimit
}
