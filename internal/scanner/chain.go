package scanner

import (
	"context"
	"iter"
	"log/slog"

	"CommunityScanner/internal/domain"
)

// Listing is one sub-source of a chained stream. Records yields a non-nil error
// at most once, as its final element.
type Listing struct {
	Name    string
	Records func(ctx context.Context) iter.Seq2[*domain.CommunityRecord, error]
}

// Chain flattens listings into one stream in the given order and drops records
// whose identifier was already yielded, so earlier listings win attribution.
// A failing listing is treated as exhausted and the chain moves on.
func Chain(ctx context.Context, listings []Listing, dedup *Deduplicator, logger *slog.Logger) iter.Seq[*domain.CommunityRecord] {
	if dedup == nil {
		dedup = NewDeduplicator()
	}

	return func(yield func(*domain.CommunityRecord) bool) {
		for _, listing := range listings {
			if ctx.Err() != nil {
				return
			}
			debug(logger, "fetch listing", "listing", listing.Name)

			fresh := 0
			for record, err := range listing.Records(ctx) {
				if err != nil {
					debug(logger, "listing exhausted early", "listing", listing.Name, "error", err)
					break
				}
				if record == nil || record.Identifier == "" {
					continue
				}
				if !dedup.Admit(record.Identifier) {
					continue
				}
				record.Source = listing.Name
				fresh++
				if !yield(record) {
					return
				}
			}
			debug(logger, "listing done", "listing", listing.Name, "new_records", fresh, "seen_total", dedup.Len())
		}
	}
}

func debug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
