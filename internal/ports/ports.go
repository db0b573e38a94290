package ports

import (
	"context"
	"errors"
	"time"

	"CommunityScanner/internal/domain"
)

var (
	// ErrElementNotFound means the located element is absent from the page.
	ErrElementNotFound = errors.New("element not found")
	// ErrNotInteractable means the element exists but could not be scrolled to or clicked.
	ErrNotInteractable = errors.New("element not interactable")
)

// Locator addresses an element by tag name and a text fragment it contains.
type Locator struct {
	Tag  string
	Text string
}

// Browser drives a rendering browser for pages that expand client-side.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	ScrollIntoView(ctx context.Context, loc Locator) error
	Click(ctx context.Context, loc Locator) error
	Wait(ctx context.Context, d time.Duration) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// BrowserFactory starts a browser session for one scan.
type BrowserFactory func(ctx context.Context) (Browser, error)

// ActivityProbe looks up the newest activity timestamp of a community.
// The boolean is false when the community has no activity at all.
type ActivityProbe interface {
	LatestActivity(ctx context.Context, identifier string) (time.Time, bool, error)
}

// Enricher performs a best-effort secondary lookup on an accepted record.
// Failures leave the record untouched.
type Enricher interface {
	Enrich(ctx context.Context, record *domain.CommunityRecord)
}

// RecordSink consumes accepted, enriched records in order.
type RecordSink interface {
	Accept(record *domain.CommunityRecord) error
}

// Tracer observes every examined record together with its verdict.
type Tracer interface {
	Trace(index int, record *domain.CommunityRecord, verdict domain.Verdict)
}

// CredentialStore yields platform credentials, prompting at most once per process.
type CredentialStore interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

// Prompter asks the operator for a single value.
type Prompter interface {
	Ask(query string, secret bool) (string, error)
}
