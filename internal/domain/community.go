package domain

import (
	"fmt"
	"strings"
)

// CommunityRecord is one directory entry (a server, a subreddit) and its public metadata.
type CommunityRecord struct {
	Identifier  string
	Title       string
	Description string
	// Size is the member or subscriber count; nil when the source did not expose it.
	Size *int
	// Secondary is the live participant count, written only during enrichment.
	Secondary *int
	Link      string
	// Source names the listing that first produced the record.
	Source string
	Extra  map[string]string
}

// Count wraps n for the optional metric fields.
func Count(n int) *int {
	return &n
}

// SizeValue returns the size metric and whether it is known.
func (r *CommunityRecord) SizeValue() (int, bool) {
	if r == nil || r.Size == nil {
		return 0, false
	}
	return *r.Size, true
}

// SecondaryValue returns the enriched metric and whether it was found.
func (r *CommunityRecord) SecondaryValue() (int, bool) {
	if r == nil || r.Secondary == nil {
		return 0, false
	}
	return *r.Secondary, true
}

// ExtraValue reads a platform field, empty when unset.
func (r *CommunityRecord) ExtraValue(key string) string {
	if r == nil || r.Extra == nil {
		return ""
	}
	return r.Extra[key]
}

// SetExtra stores a platform field, allocating the map on first use.
func (r *CommunityRecord) SetExtra(key, value string) {
	if r.Extra == nil {
		r.Extra = map[string]string{}
	}
	r.Extra[key] = value
}

// Matches reports whether keyword occurs in the title or description, ignoring case.
// An empty keyword matches every record.
func (r *CommunityRecord) Matches(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), keyword) ||
		strings.Contains(strings.ToLower(r.Description), keyword)
}

// OnlineRatio renders Secondary/Size as a percentage with two decimals.
// It is empty unless the size is positive and the secondary metric is known.
func OnlineRatio(r *CommunityRecord) string {
	total, ok := r.SizeValue()
	if !ok || total <= 0 {
		return ""
	}
	online, ok := r.SecondaryValue()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.2f%%", float64(online)/float64(total)*100)
}
