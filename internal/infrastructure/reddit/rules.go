package reddit

import (
	"context"
	"log/slog"
	"strings"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// RulesKey is the Extra key holding the community rules, one per line.
const RulesKey = "rules"

// RulesEnricher attaches the community rules to accepted records.
type RulesEnricher struct {
	client *Client
	logger *slog.Logger
}

var _ ports.Enricher = (*RulesEnricher)(nil)

func NewRulesEnricher(client *Client, logger *slog.Logger) *RulesEnricher {
	return &RulesEnricher{client: client, logger: logger}
}

// Enrich never fails the record; the rules stay empty when they cannot be read.
func (e *RulesEnricher) Enrich(ctx context.Context, record *domain.CommunityRecord) {
	if record == nil || record.Identifier == "" {
		return
	}
	rules, err := e.client.Rules(ctx, record.Identifier)
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("rules unavailable", "community", record.Identifier, "error", err)
		}
		return
	}
	record.SetExtra(RulesKey, FormatRules(rules))
}

// FormatRules renders rules as "short name: description" lines.
func FormatRules(rules []Rule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, r.ShortName+": "+r.Description)
	}
	return strings.Join(lines, "\n")
}
