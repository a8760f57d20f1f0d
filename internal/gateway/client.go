package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// PrincipalHeader carries the signed-in principal to the service.
const PrincipalHeader = "x-ms-client-principal"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPrincipal sets the identity token attached to every request.
func WithPrincipal(token string) ClientOption {
	return func(c *Client) {
		c.principal = token
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// Client is the video service gateway.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter

	mu        sync.RWMutex
	principal string
}

// NewClient creates a gateway client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetPrincipal installs the identity token once the bridge has produced it.
func (c *Client) SetPrincipal(token string) {
	c.mu.Lock()
	c.principal = token
	c.mu.Unlock()
}

func (c *Client) currentPrincipal() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

// RequestOptions describes one gateway call. Method defaults to GET.
type RequestOptions struct {
	Method string
	Body   any
}

// Response is a successful gateway reply.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the service declared a JSON body.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "json")
}

// Text returns the raw body.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if !r.IsJSON() {
		return &ParseError{Err: fmt.Errorf("expected JSON, got %q", r.ContentType)}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// Do issues one request to path, relative to the base URL. It never retries.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.currentPrincipal(); token != "" {
		req.Header.Set(PrincipalHeader, token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &RequestFailed{Status: resp.StatusCode, Message: msg}
	}

	out := &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}
	if out.IsJSON() && len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		return nil, &ParseError{Err: fmt.Errorf("malformed JSON body")}
	}
	return out, nil
}

// ListFeed fetches the feed page after cursor; an empty cursor starts the feed.
func (c *Client) ListFeed(ctx context.Context, cursor string) (Page, error) {
	return c.listPage(ctx, "/feed", cursorQuery(cursor))
}

// ListVideos fetches a page of the plain video listing.
func (c *Client) ListVideos(ctx context.Context, cursor string) (Page, error) {
	return c.listPage(ctx, "/videos", cursorQuery(cursor))
}

// SearchVideos fetches a page of videos matching query.
func (c *Client) SearchVideos(ctx context.Context, query, cursor string) (Page, error) {
	q := cursorQuery(cursor)
	q.Set("search", query)
	return c.listPage(ctx, "/videos", q)
}

func cursorQuery(cursor string) url.Values {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return q
}

func (c *Client) listPage(ctx context.Context, path string, query url.Values) (Page, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := c.Do(ctx, path, RequestOptions{})
	if err != nil {
		return Page{}, err
	}

	page, err := decodePage(resp)
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// SearchLister runs a search through the feed pager. Both listings issue the
// search, so the pager's fallback repeats a failed search page once.
type SearchLister struct {
	Client *Client
	Query  string
}

// ListFeed fetches the search page after cursor.
func (s SearchLister) ListFeed(ctx context.Context, cursor string) (Page, error) {
	return s.Client.SearchVideos(ctx, s.Query, cursor)
}

// ListVideos fetches the search page after cursor.
func (s SearchLister) ListVideos(ctx context.Context, cursor string) (Page, error) {
	return s.Client.SearchVideos(ctx, s.Query, cursor)
}

// decodePage accepts {items, nextCursor} or a bare array of items.
func decodePage(resp *Response) (Page, error) {
	trimmed := bytes.TrimSpace(resp.Body)
	page := Page{Items: []VideoSummary{}}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := resp.Decode(&page.Items); err != nil {
			return Page{}, err
		}
		if page.Items == nil {
			page.Items = []VideoSummary{}
		}
		return page, nil
	}

	var envelope struct {
		Items      []VideoSummary `json:"items"`
		NextCursor string         `json:"nextCursor"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return Page{}, err
	}
	if envelope.Items != nil {
		page.Items = envelope.Items
	}
	page.NextCursor = envelope.NextCursor
	return page, nil
}

// GetVideo fetches one video record.
func (c *Client) GetVideo(ctx context.Context, id string) (*VideoSummary, error) {
	resp, err := c.Do(ctx, "/videos/"+url.PathEscape(id), RequestOptions{})
	if err != nil {
		return nil, err
	}
	var v VideoSummary
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetLike reports the desired like state for a video.
func (c *Client) SetLike(ctx context.Context, id string, like bool) (LikeAck, error) {
	resp, err := c.Do(ctx, "/videos/"+url.PathEscape(id)+"/like", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]bool{"like": like},
	})
	if err != nil {
		return LikeAck{}, err
	}

	var ack LikeAck
	if resp.IsJSON() && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := resp.Decode(&ack); err != nil {
			return LikeAck{}, err
		}
	}
	return ack, nil
}

// SetFollow reports the desired follow state for a publisher.
func (c *Client) SetFollow(ctx context.Context, userID string, follow bool) error {
	_, err := c.Do(ctx, "/users/"+url.PathEscape(userID)+"/follow", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]bool{"follow": follow},
	})
	return err
}

// ListComments fetches a video's comments.
func (c *Client) ListComments(ctx context.Context, videoID string) ([]Comment, error) {
	resp, err := c.Do(ctx, "/videos/"+url.PathEscape(videoID)+"/comments", RequestOptions{})
	if err != nil {
		return nil, err
	}

	var comments []Comment
	if err := resp.Decode(&comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

// PostComment adds a comment to a video.
func (c *Client) PostComment(ctx context.Context, videoID, text string) error {
	_, err := c.Do(ctx, "/videos/"+url.PathEscape(videoID)+"/comments", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"text": text},
	})
	return err
}

// RateVideo records a star rating between MinStars and MaxStars.
func (c *Client) RateVideo(ctx context.Context, id string, stars int) error {
	if stars < MinStars || stars > MaxStars {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, stars)
	}
	_, err := c.Do(ctx, "/videos/"+url.PathEscape(id)+"/ratings", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]int{"stars": stars},
	})
	return err
}

// ListDashboard fetches the publisher's video listing with its statistics.
func (c *Client) ListDashboard(ctx context.Context) ([]DashboardEntry, error) {
	resp, err := c.Do(ctx, "/videos", RequestOptions{})
	if err != nil {
		return nil, err
	}

	entries := []DashboardEntry{}
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := resp.Decode(&entries); err != nil {
			return nil, err
		}
	} else if len(trimmed) > 0 {
		var envelope struct {
			Items []DashboardEntry `json:"items"`
		}
		if err := resp.Decode(&envelope); err != nil {
			return nil, err
		}
		entries = envelope.Items
	}
	if entries == nil {
		entries = []DashboardEntry{}
	}
	return entries, nil
}

// Me returns the signed-in user as seen by the service.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.Do(ctx, "/me", RequestOptions{})
	if err != nil {
		return nil, err
	}
	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
