package reddit

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

const maxPageSize = 100

// Options points the client at the platform endpoints.
type Options struct {
	AuthURL           string
	APIURL            string
	PageSize          int
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// Client talks to the platform's OAuth JSON API with an app-only token.
type Client struct {
	http    *resty.Client
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger
	token   string
}

var _ ports.ActivityProbe = (*Client)(nil)

// Subreddit is the subset of community fields the scanner reads.
type Subreddit struct {
	Name              string `json:"display_name"`
	Title             string `json:"title"`
	PublicDescription string `json:"public_description"`
	Subscribers       *int   `json:"subscribers"`
	ActiveUserCount   *int   `json:"active_user_count"`
}

// Post carries the creation time of a submission, in fractional unix seconds.
type Post struct {
	CreatedUTC float64 `json:"created_utc"`
}

// Rule is one community rule.
type Rule struct {
	ShortName   string `json:"short_name"`
	Description string `json:"description"`
}

type listing[T any] struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data T      `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// NewClient builds a client; requests are paced by RequestsPerMinute when positive.
func NewClient(opts Options, logger *slog.Logger) *Client {
	client := resty.New()
	client.SetHeader("Accept", "application/json")
	if opts.RequestTimeout > 0 {
		client.SetTimeout(opts.RequestTimeout)
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	return &Client{
		http:    client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Authenticate exchanges app credentials for a bearer token used by every later call.
func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) error {
	if !creds.Complete() {
		return errors.New("credentials are incomplete")
	}

	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(creds.ClientID, creds.ClientSecret).
		SetHeader("User-Agent", creds.UserAgent).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		Post(c.opts.AuthURL)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("token endpoint returned %s", resp.Status())
	}
	if tok.AccessToken == "" {
		if tok.Error != "" {
			return fmt.Errorf("token endpoint rejected credentials: %s", tok.Error)
		}
		return errors.New("token endpoint returned no access token")
	}

	c.token = tok.AccessToken
	c.http.SetAuthToken(tok.AccessToken)
	c.http.SetHeader("User-Agent", creds.UserAgent)
	c.debug("authenticated", "expires_in", tok.ExpiresIn)
	return nil
}

// Subreddits pages lazily through a community listing such as "popular" or "new".
func (c *Client) Subreddits(ctx context.Context, where string) iter.Seq2[Subreddit, error] {
	return paginate[Subreddit](ctx, c, "/subreddits/"+url.PathEscape(where), nil)
}

// SearchSubreddits pages lazily through communities matching query.
func (c *Client) SearchSubreddits(ctx context.Context, query string) iter.Seq2[Subreddit, error] {
	return paginate[Subreddit](ctx, c, "/subreddits/search", map[string]string{"q": query})
}

// LatestActivity returns the creation time of the newest post in the community.
func (c *Client) LatestActivity(ctx context.Context, name string) (time.Time, bool, error) {
	var page listing[Post]
	if err := c.get(ctx, "/r/"+url.PathEscape(name)+"/new", map[string]string{"limit": "1"}, &page); err != nil {
		return time.Time{}, false, err
	}
	if len(page.Data.Children) == 0 {
		return time.Time{}, false, nil
	}
	return unixTime(page.Data.Children[0].Data.CreatedUTC), true, nil
}

// Rules lists the community's rules in display order.
func (c *Client) Rules(ctx context.Context, name string) ([]Rule, error) {
	var out struct {
		Rules []Rule `json:"rules"`
	}
	if err := c.get(ctx, "/r/"+url.PathEscape(name)+"/about/rules", nil, &out); err != nil {
		return nil, err
	}
	return out.Rules, nil
}

func paginate[T any](ctx context.Context, c *Client, path string, params map[string]string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		after := ""
		for {
			query := map[string]string{"limit": strconv.Itoa(c.pageSize())}
			maps.Copy(query, params)
			if after != "" {
				query["after"] = after
			}

			var page listing[T]
			if err := c.get(ctx, path, query, &page); err != nil {
				yield(zero, err)
				return
			}
			for _, child := range page.Data.Children {
				if !yield(child.Data, nil) {
					return
				}
			}

			next := page.Data.After
			if next == "" || next == after || len(page.Data.Children) == 0 {
				return
			}
			after = next
		}
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if c.token == "" {
		return errors.New("client is not authenticated")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limit: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("raw_json", "1").
		SetResult(out).
		Get(c.opts.APIURL + path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("get %s: status %s", path, resp.Status())
	}
	return nil
}

func (c *Client) pageSize() int {
	if c.opts.PageSize <= 0 || c.opts.PageSize > maxPageSize {
		return maxPageSize
	}
	return c.opts.PageSize
}

func unixTime(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
