package parser

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
	"CommunityScanner/internal/scanner"
)

const (
	directoryScannerName = "discord"

	// MembersTextKey holds the member label exactly as rendered on the card.
	MembersTextKey = "members_text"

	cardSelector        = `article[role="region"][aria-label="server name"]`
	nameSelector        = `p[itemprop="name"]`
	descriptionSelector = `div[itemprop="headline"]`
	membersSelector     = `span.pl-2`
)

// DirectoryOptions tunes the expansion loop of the server directory.
type DirectoryOptions struct {
	BaseURL      string
	LoadMoreText string
	InitialWait  time.Duration
	ScrollWait   time.Duration
	ClickWait    time.Duration
}

// DirectoryScanner renders a keyword search of the server directory, expands it
// with the "load more" button and extracts one record per server card.
type DirectoryScanner struct {
	openBrowser ports.BrowserFactory
	opts        DirectoryOptions
	logger      *slog.Logger
}

var _ scanner.Source = (*DirectoryScanner)(nil)

// NewDirectoryScanner wires a browser factory; every Produce call opens its own session.
func NewDirectoryScanner(open ports.BrowserFactory, opts DirectoryOptions, logger *slog.Logger) *DirectoryScanner {
	return &DirectoryScanner{openBrowser: open, opts: opts, logger: logger}
}

// Name identifies the source inside the registry.
func (d *DirectoryScanner) Name() string {
	return directoryScannerName
}

// Produce loads the fully expanded search page and returns its cards.
// The sequence is materialized before returning and the browser is already closed.
func (d *DirectoryScanner) Produce(ctx context.Context, req scanner.Request) (iter.Seq[*domain.CommunityRecord], error) {
	if d.openBrowser == nil {
		return nil, errors.New("browser factory is not configured")
	}

	base, err := url.Parse(d.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", d.opts.BaseURL, err)
	}

	pageURL := searchURL(base, req.Keyword)
	doc, err := d.load(ctx, pageURL, req.MaxLoads)
	if err != nil {
		return nil, err
	}

	records := extractCards(doc, base)
	d.debug("cards extracted", "url", pageURL, "count", len(records))
	return slices.Values(records), nil
}

func (d *DirectoryScanner) load(ctx context.Context, pageURL string, maxLoads int) (*goquery.Document, error) {
	browser, err := d.openBrowser(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			d.debug("close browser", "error", closeErr)
		}
	}()

	if err := browser.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("open %s: %w", pageURL, err)
	}
	if err := browser.Wait(ctx, d.opts.InitialWait); err != nil {
		return nil, fmt.Errorf("wait for first render: %w", err)
	}

	loads := d.expand(ctx, browser, maxLoads)
	d.debug("expansion finished", "loads", loads, "max_loads", maxLoads)

	html, err := browser.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// expand clicks the load-more control up to maxLoads times and returns the number of
// successful clicks. A missing or unclickable control ends the loop without error.
func (d *DirectoryScanner) expand(ctx context.Context, browser ports.Browser, maxLoads int) int {
	control := ports.Locator{Tag: "button", Text: d.opts.LoadMoreText}

	for i := 0; i < maxLoads; i++ {
		if err := d.expandOnce(ctx, browser, control); err != nil {
			if errors.Is(err, ports.ErrElementNotFound) || errors.Is(err, ports.ErrNotInteractable) {
				d.debug("no more pages", "after_loads", i)
			} else {
				d.debug("expansion stopped", "after_loads", i, "error", err)
			}
			return i
		}
		d.debug("clicked load more", "load", i+1, "max_loads", maxLoads)
	}
	return max(maxLoads, 0)
}

func (d *DirectoryScanner) expandOnce(ctx context.Context, browser ports.Browser, control ports.Locator) error {
	if err := browser.ScrollIntoView(ctx, control); err != nil {
		return err
	}
	if err := browser.Wait(ctx, d.opts.ScrollWait); err != nil {
		return err
	}
	if err := browser.Click(ctx, control); err != nil {
		return err
	}
	return browser.Wait(ctx, d.opts.ClickWait)
}

func extractCards(doc *goquery.Document, base *url.URL) []*domain.CommunityRecord {
	var records []*domain.CommunityRecord
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		if record, ok := parseCard(card, base); ok {
			records = append(records, record)
		}
	})
	return records
}

func parseCard(card *goquery.Selection, base *url.URL) (*domain.CommunityRecord, bool) {
	name := strings.TrimSpace(card.Find(nameSelector).First().Text())
	if name == "" {
		return nil, false
	}

	record := &domain.CommunityRecord{
		Identifier:  name,
		Title:       name,
		Description: strings.TrimSpace(card.Find(descriptionSelector).First().Text()),
	}

	if members := card.Find(membersSelector).First(); members.Length() > 0 {
		text := strings.TrimSpace(members.Text())
		record.Size = domain.Count(parseCount(text))
		record.SetExtra(MembersTextKey, text)
	}

	if href, ok := card.Closest("a").Attr("href"); ok {
		record.Link = resolveLink(base, href)
	}

	return record, true
}

// parseCount keeps only the digits of a rendered counter; text without digits counts as zero.
func parseCount(text string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, text)

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func searchURL(base *url.URL, keyword string) string {
	return base.JoinPath("search", strings.TrimSpace(keyword)).String()
}

func (d *DirectoryScanner) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
