package reddit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

var errNoOnlineCount = errors.New("online count not found")

// OnlineCounter reads the "online" figure from a community's public page.
type OnlineCounter struct {
	http   *resty.Client
	logger *slog.Logger
}

var _ ports.Enricher = (*OnlineCounter)(nil)

// NewOnlineCounter fetches pages with a browser user agent, bounded by timeout.
func NewOnlineCounter(userAgent string, timeout time.Duration, logger *slog.Logger) *OnlineCounter {
	client := resty.New()
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &OnlineCounter{http: client, logger: logger}
}

// Enrich sets Secondary from the page's online count, falling back to the
// listing's active user count. With neither, Secondary stays absent.
func (o *OnlineCounter) Enrich(ctx context.Context, record *domain.CommunityRecord) {
	if record == nil {
		return
	}

	err := errNoOnlineCount
	if record.Link != "" {
		var n int
		if n, err = o.Count(ctx, record.Link); err == nil {
			record.Secondary = domain.Count(n)
			return
		}
	}

	if n, convErr := strconv.Atoi(record.ExtraValue(ActiveUsersKey)); convErr == nil {
		o.debug("online count from listing", "community", record.Identifier, "page_error", err)
		record.Secondary = domain.Count(n)
		return
	}
	o.debug("online count unavailable", "community", record.Identifier, "error", err)
}

// Count fetches pageURL and extracts the online-user figure.
func (o *OnlineCounter) Count(ctx context.Context, pageURL string) (int, error) {
	resp, err := o.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: status %s", pageURL, resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	raw, ok := findOnlineNumber(doc)
	if !ok {
		return 0, errNoOnlineCount
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("online count %q: %w", raw, err)
	}
	return n, nil
}

func findOnlineNumber(doc *goquery.Document) (string, bool) {
	var (
		number string
		found  bool
	)

	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if !mentionsOnline(span) {
			return true
		}
		if v, ok := span.Find("faceplate-number").First().Attr("number"); ok {
			number, found = v, true
			return false
		}
		return true
	})
	if found {
		return number, true
	}

	doc.Find("faceplate-number").EachWithBreak(func(_ int, fp *goquery.Selection) bool {
		v, ok := fp.Attr("number")
		if !ok {
			return true
		}
		if parent := fp.ParentsFiltered("span").First(); parent.Length() > 0 && mentionsOnline(parent) {
			number, found = v, true
			return false
		}
		return true
	})
	return number, found
}

func mentionsOnline(s *goquery.Selection) bool {
	return strings.Contains(strings.ToLower(s.Text()), "online")
}

func (o *OnlineCounter) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}
