package app

import (
	"strconv"
	"time"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/infrastructure/console"
	"CommunityScanner/internal/infrastructure/parser"
	"CommunityScanner/internal/infrastructure/reddit"
	"CommunityScanner/internal/infrastructure/spreadsheet"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/usecase"
)

const (
	PlatformDiscord = "discord"
	PlatformReddit  = "reddit"
)

// Profile fixes, per platform, which source feeds the pipeline, which checks
// apply, how accepted records are enriched and how they are laid out.
type Profile struct {
	Source   string
	Checks   []usecase.Check
	Enricher ports.Enricher
	Columns  []spreadsheet.Column
	Fields   []console.Field
}

// The directory search is already keyword-scoped, so no keyword check here.
func discordProfile() Profile {
	return Profile{
		Source: PlatformDiscord,
		Checks: []usecase.Check{usecase.MinSizeCheck{}, usecase.MaxSizeCheck{}},
		Columns: []spreadsheet.Column{
			{Header: "Name", Value: cell(titleText), Width: 30},
			{Header: "Description", Value: cell(descriptionText), Width: 60},
			{Header: "Members", Value: size},
			{Header: "Link", Value: cell(linkText), Link: true, Width: 45},
		},
		Fields: []console.Field{
			{Label: "Name", Value: titleText, Width: 30},
			{Label: "Members", Value: membersText},
			{Label: "Description", Value: descriptionText, Width: 50},
			{Label: "Link", Value: linkText},
		},
	}
}

func redditProfile(probe ports.ActivityProbe, now func() time.Time, enrichers ...ports.Enricher) Profile {
	return Profile{
		Source: PlatformReddit,
		Checks: []usecase.Check{
			usecase.KeywordCheck{},
			usecase.MinSizeCheck{},
			usecase.MaxSizeCheck{},
			usecase.RecencyCheck{Probe: probe, Now: now},
		},
		Enricher: usecase.EnricherChain(enrichers),
		Columns: []spreadsheet.Column{
			{Header: "Title", Value: cell(identifierText), Width: 25},
			{Header: "Total Users", Value: size},
			{Header: "Online Users", Value: secondary},
			{Header: "Online Ratio", Value: cell(domain.OnlineRatio)},
			{Header: "Description", Value: cell(descriptionText), Width: 60},
			{Header: "Link", Value: cell(linkText), Link: true, Width: 45},
			{Header: "Rules", Value: cell(rulesText), Width: 80},
		},
		Fields: []console.Field{
			{Label: "Title", Value: identifierText, Width: 25},
			{Label: "Subscribers", Value: sizeText},
			{Label: "Online", Value: secondaryText},
			{Label: "Online Ratio", Value: domain.OnlineRatio},
			{Label: "Link", Value: linkText},
		},
	}
}

// cell turns a text field into a spreadsheet value, leaving empty text blank.
func cell(text func(*domain.CommunityRecord) string) func(*domain.CommunityRecord) any {
	return func(r *domain.CommunityRecord) any {
		return spreadsheet.OptionalString(text(r))
	}
}

func size(r *domain.CommunityRecord) any {
	return spreadsheet.OptionalInt(r.Size)
}

func secondary(r *domain.CommunityRecord) any {
	return spreadsheet.OptionalInt(r.Secondary)
}

func identifierText(r *domain.CommunityRecord) string {
	return r.Identifier
}

func titleText(r *domain.CommunityRecord) string {
	return r.Title
}

func descriptionText(r *domain.CommunityRecord) string {
	return r.Description
}

func linkText(r *domain.CommunityRecord) string {
	return r.Link
}

func rulesText(r *domain.CommunityRecord) string {
	return r.ExtraValue(reddit.RulesKey)
}

func sizeText(r *domain.CommunityRecord) string {
	return countText(r.Size)
}

func secondaryText(r *domain.CommunityRecord) string {
	return countText(r.Secondary)
}

// membersText prefers the label as the directory rendered it.
func membersText(r *domain.CommunityRecord) string {
	if text := r.ExtraValue(parser.MembersTextKey); text != "" {
		return text
	}
	return sizeText(r)
}

func countText(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
