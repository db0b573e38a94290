package usecase

import (
	"context"
	"fmt"
	"time"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// Check is one inclusion rule. Checks run in order and the first failure rejects.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) (bool, string)
}

// Filter is an ordered, short-circuiting list of checks.
type Filter struct {
	checks []Check
}

// NewFilter builds a filter from checks applied in the given order.
func NewFilter(checks ...Check) *Filter {
	return &Filter{checks: checks}
}

// Evaluate runs the checks and reports the first failing one, if any.
func (f *Filter) Evaluate(ctx context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) domain.Verdict {
	if f == nil {
		return domain.Accept()
	}
	for _, check := range f.checks {
		if ok, reason := check.Evaluate(ctx, record, criteria); !ok {
			return domain.Reject(check.Name(), reason)
		}
	}
	return domain.Accept()
}

// KeywordCheck requires the keyword in the title or description.
type KeywordCheck struct{}

func (KeywordCheck) Name() string { return "keyword" }

func (KeywordCheck) Evaluate(_ context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) (bool, string) {
	if record.Matches(criteria.Keyword) {
		return true, ""
	}
	return false, fmt.Sprintf("%q not in title or description", criteria.Keyword)
}

// MinSizeCheck enforces the inclusive lower size bound.
type MinSizeCheck struct{}

func (MinSizeCheck) Name() string { return "min_size" }

func (MinSizeCheck) Evaluate(_ context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) (bool, string) {
	if !domain.Bounded(criteria.MinSize) {
		return true, ""
	}
	size, ok := record.SizeValue()
	if !ok {
		return false, "size unknown"
	}
	if size < criteria.MinSize {
		return false, fmt.Sprintf("%d below %d", size, criteria.MinSize)
	}
	return true, ""
}

// MaxSizeCheck enforces the inclusive upper size bound.
type MaxSizeCheck struct{}

func (MaxSizeCheck) Name() string { return "max_size" }

func (MaxSizeCheck) Evaluate(_ context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) (bool, string) {
	if !domain.Bounded(criteria.MaxSize) {
		return true, ""
	}
	size, ok := record.SizeValue()
	if !ok {
		return false, "size unknown"
	}
	if size > criteria.MaxSize {
		return false, fmt.Sprintf("%d above %d", size, criteria.MaxSize)
	}
	return true, ""
}

// RecencyCheck rejects communities without activity or whose newest activity
// is older than MaxAgeDays. Lookup failures reject.
type RecencyCheck struct {
	Probe ports.ActivityProbe
	Now   func() time.Time
}

func (RecencyCheck) Name() string { return "max_age_days" }

func (c RecencyCheck) Evaluate(ctx context.Context, record *domain.CommunityRecord, criteria domain.FilterCriteria) (bool, string) {
	if c.Probe == nil {
		return false, "no activity probe configured"
	}

	latest, found, err := c.Probe.LatestActivity(ctx, record.Identifier)
	if err != nil {
		return false, fmt.Sprintf("activity lookup failed: %v", err)
	}
	if !found {
		return false, "no activity"
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	age := AgeDays(now(), latest)
	if domain.Bounded(criteria.MaxAgeDays) && age > criteria.MaxAgeDays {
		return false, fmt.Sprintf("latest activity %d days ago", age)
	}
	return true, ""
}

// AgeDays counts whole UTC days elapsed from then to now; future times count as zero.
func AgeDays(now, then time.Time) int {
	elapsed := now.UTC().Sub(then.UTC())
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}
