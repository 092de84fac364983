// Package reddit lists recent posts and their top-level comments from the
// Reddit JSON API. With client credentials it uses app-only OAuth against
// oauth.reddit.com, otherwise the public .json endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"commentcascade/internal/models"
)

const (
	publicBaseURL    = "https://www.reddit.com"
	oauthBaseURL     = "https://oauth.reddit.com"
	defaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
)

// Config configures a Client
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	// BaseURL overrides the API host (tests, proxies)
	BaseURL  string
	TokenURL string
	Timeout  time.Duration
}

// StatusError is returned for non-200 responses
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit: unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client implements the post/comment source used by the puzzle builder
type Client struct {
	http       *http.Client
	baseURL    string
	jsonSuffix string
}

// userAgentTransport sets the User-Agent Reddit requires on every request
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// NewClient creates a Reddit client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "commentcascade/1.0"
	}

	base := &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{userAgent: userAgent, base: http.DefaultTransport},
	}

	if cfg.ClientID == "" {
		return &Client{
			http:       base,
			baseURL:    strings.TrimSuffix(firstNonEmpty(cfg.BaseURL, publicBaseURL), "/"),
			jsonSuffix: ".json",
		}
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     firstNonEmpty(cfg.TokenURL, defaultTokenURL),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// Token requests go through the same user-agent transport.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := creds.Client(tokenCtx)
	authed.Timeout = timeout

	return &Client{
		http:    authed,
		baseURL: strings.TrimSuffix(firstNonEmpty(cfg.BaseURL, oauthBaseURL), "/"),
	}
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type link struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	NumComments int    `json:"num_comments"`
	Permalink   string `json:"permalink"`
}

type comment struct {
	Body string `json:"body"`
}

// ListRecentItems returns up to limit of the newest posts in a subreddit
func (c *Client) ListRecentItems(ctx context.Context, category string, limit int) ([]models.Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new%s", c.baseURL, url.PathEscape(category), c.jsonSuffix)

	var page listing
	if err := c.getJSON(ctx, endpoint, url.Values{"limit": {strconv.Itoa(limit)}}, &page); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var l link
		if err := json.Unmarshal(child.Data, &l); err != nil {
			return nil, fmt.Errorf("reddit: decode post: %w", err)
		}
		posts = append(posts, models.Post{
			ID:         l.ID,
			Title:      l.Title,
			ReplyCount: l.NumComments,
			Permalink:  l.Permalink,
		})
	}
	return posts, nil
}

// ListReplies returns up to limit top-level comments on a post
func (c *Client) ListReplies(ctx context.Context, itemID string, limit int) ([]models.Reply, error) {
	endpoint := fmt.Sprintf("%s/comments/%s%s", c.baseURL, url.PathEscape(itemID), c.jsonSuffix)
	params := url.Values{
		"limit": {strconv.Itoa(limit)},
		"depth": {"1"},
	}

	// The response is [post listing, comment listing].
	var pages []listing
	if err := c.getJSON(ctx, endpoint, params, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}

	replies := make([]models.Reply, 0, len(pages[1].Data.Children))
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var cm comment
		if err := json.Unmarshal(child.Data, &cm); err != nil {
			return nil, fmt.Errorf("reddit: decode comment: %w", err)
		}
		replies = append(replies, models.Reply{Body: cm.Body})
		if len(replies) == limit {
			break
		}
	}
	return replies, nil
}

// PostURL builds the canonical URL for a permalink
func PostURL(permalink string) string {
	return publicBaseURL + permalink
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("raw_json", "1")
	fullURL := endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("reddit: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit: fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("reddit: decode %s: %w", endpoint, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
