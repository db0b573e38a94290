package reddit

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/scanner"
)

const (
	sourceName   = "reddit"
	searchPrefix = "search:"

	// ActiveUsersKey holds the listing's active_user_count, when the API reports one.
	ActiveUsersKey = "active_user_count"
)

// SourceOptions select which listings are chained and where community pages live.
type SourceOptions struct {
	Listings      []string
	SearchQueries []string
	WebURL        string
}

// Source streams communities from every configured listing, deduplicated by name.
type Source struct {
	client *Client
	creds  ports.CredentialStore
	opts   SourceOptions
	logger *slog.Logger
}

var _ scanner.Source = (*Source)(nil)

// NewSource builds the platform source. Credentials are read when Produce is called.
func NewSource(client *Client, creds ports.CredentialStore, opts SourceOptions, logger *slog.Logger) *Source {
	return &Source{client: client, creds: creds, opts: opts, logger: logger}
}

// Name implements scanner.Source.
func (s *Source) Name() string {
	return sourceName
}

// Produce authenticates and returns the chained listing stream.
// Credential and token failures are returned; listing failures only end that listing.
func (s *Source) Produce(ctx context.Context, _ scanner.Request) (iter.Seq[*domain.CommunityRecord], error) {
	if s.creds == nil {
		return nil, errors.New("credential store is not configured")
	}
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if err := s.client.Authenticate(ctx, creds); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return scanner.Chain(ctx, s.listings(), scanner.NewDeduplicator(), s.logger), nil
}

func (s *Source) listings() []scanner.Listing {
	listings := make([]scanner.Listing, 0, len(s.opts.Listings)+len(s.opts.SearchQueries))
	for _, where := range s.opts.Listings {
		listings = append(listings, scanner.Listing{
			Name: where,
			Records: func(ctx context.Context) iter.Seq2[*domain.CommunityRecord, error] {
				return s.records(s.client.Subreddits(ctx, where))
			},
		})
	}
	for _, query := range s.opts.SearchQueries {
		listings = append(listings, scanner.Listing{
			Name: searchPrefix + query,
			Records: func(ctx context.Context) iter.Seq2[*domain.CommunityRecord, error] {
				return s.records(s.client.SearchSubreddits(ctx, query))
			},
		})
	}
	return listings
}

func (s *Source) records(subs iter.Seq2[Subreddit, error]) iter.Seq2[*domain.CommunityRecord, error] {
	return func(yield func(*domain.CommunityRecord, error) bool) {
		for sub, err := range subs {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(s.toRecord(sub), nil) {
				return
			}
		}
	}
}

func (s *Source) toRecord(sub Subreddit) *domain.CommunityRecord {
	record := &domain.CommunityRecord{
		Identifier:  sub.Name,
		Title:       sub.Title,
		Description: sub.PublicDescription,
		Size:        sub.Subscribers,
		Link:        CommunityURL(s.opts.WebURL, sub.Name),
	}
	if sub.ActiveUserCount != nil {
		record.SetExtra(ActiveUsersKey, strconv.Itoa(*sub.ActiveUserCount))
	}
	return record
}

// CommunityURL is the public page of the named community.
func CommunityURL(webURL, name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(webURL, "/") + "/r/" + name + "/"
}
