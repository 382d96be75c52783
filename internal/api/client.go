package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher is the read surface of the platform API used by the query layer.
// It is implemented by *Client and by fakes in tests.
type Fetcher interface {
	ListAppVariants(ctx context.Context, appID string, query ListQuery) (VariantPage, error)
	ListVariantRevisions(ctx context.Context, variantID string, query PageQuery) (RevisionPage, error)
	FetchVariant(ctx context.Context, variantID string) (Variant, error)
	FetchRevision(ctx context.Context, variantID string, revision int) (Revision, error)
	ListEnvironments(ctx context.Context, appID string) ([]Environment, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// ErrNotFound is returned (wrapped in *StatusError) for 404 responses.
var ErrNotFound = errors.New("not found")

// StatusError reports a non-2xx API response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// Is lets errors.Is(err, ErrNotFound) match 404s.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to the platform HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	projectID string
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8000/api"
	defaultUserAgent = "varlens/0.1"
	defaultTimeout   = 10 * time.Second
)

// NewClient builds a Client for apiURL. Every request carries projectID as
// the project_id query parameter.
func NewClient(apiURL, projectID string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		projectID: strings.TrimSpace(projectID),
		userAgent: defaultUserAgent,
	}, nil
}

// ListQuery configures the variant list endpoint. A zero Limit requests the
// unpaged list.
type ListQuery struct {
	Search string
	Offset int
	Limit  int
}

// PageQuery configures offset/limit paged endpoints.
type PageQuery struct {
	Offset int
	Limit  int
}

// ListAppVariants retrieves one page of an app's variants.
func (c *Client) ListAppVariants(ctx context.Context, appID string, query ListQuery) (VariantPage, error) {
	if c == nil {
		return VariantPage{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(appID) == "" {
		return VariantPage{}, fmt.Errorf("app id required")
	}
	values := c.values()
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if query.Limit > 0 {
		values.Set("offset", strconv.Itoa(query.Offset))
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	body, err := c.get(ctx, "/apps/"+url.PathEscape(appID)+"/variants", values)
	if err != nil {
		return VariantPage{}, err
	}
	records, total, hasMore, err := decodeList(body)
	if err != nil {
		return VariantPage{}, err
	}
	page := VariantPage{Variants: make([]Variant, 0, len(records))}
	for _, raw := range records {
		v, err := decodeVariant(raw)
		if err != nil {
			return VariantPage{}, err
		}
		if v.AppID == "" {
			v.AppID = appID
		}
		page.Variants = append(page.Variants, v)
	}
	page.Total, page.HasMore = pageBounds(query.Offset, query.Limit, len(records), total, hasMore)
	return page, nil
}

// ListVariantRevisions retrieves one page of a variant's revision history.
func (c *Client) ListVariantRevisions(ctx context.Context, variantID string, query PageQuery) (RevisionPage, error) {
	if c == nil {
		return RevisionPage{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(variantID) == "" {
		return RevisionPage{}, fmt.Errorf("variant id required")
	}
	values := c.values()
	if query.Limit > 0 {
		values.Set("offset", strconv.Itoa(query.Offset))
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	body, err := c.get(ctx, "/variants/"+url.PathEscape(variantID)+"/revisions", values)
	if err != nil {
		return RevisionPage{}, err
	}
	records, total, hasMore, err := decodeList(body)
	if err != nil {
		return RevisionPage{}, err
	}
	page := RevisionPage{Revisions: make([]Revision, 0, len(records))}
	for _, raw := range records {
		rev, err := decodeRevision(raw, variantID)
		if err != nil {
			return RevisionPage{}, err
		}
		page.Revisions = append(page.Revisions, rev)
	}
	page.Total, page.HasMore = pageBounds(query.Offset, query.Limit, len(records), total, hasMore)
	return page, nil
}

// FetchVariant retrieves a single variant.
func (c *Client) FetchVariant(ctx context.Context, variantID string) (Variant, error) {
	if c == nil {
		return Variant{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(variantID) == "" {
		return Variant{}, fmt.Errorf("variant id required")
	}
	var raw map[string]any
	if err := c.getJSON(ctx, "/variants/"+url.PathEscape(variantID), &raw); err != nil {
		return Variant{}, err
	}
	return decodeVariant(raw)
}

// FetchRevision retrieves one revision of a variant by revision number.
func (c *Client) FetchRevision(ctx context.Context, variantID string, revision int) (Revision, error) {
	if c == nil {
		return Revision{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(variantID) == "" {
		return Revision{}, fmt.Errorf("variant id required")
	}
	path := "/variants/" + url.PathEscape(variantID) + "/revisions/" + strconv.Itoa(revision)
	var raw map[string]any
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return Revision{}, err
	}
	return decodeRevision(raw, variantID)
}

// ListEnvironments retrieves the app's deployment environments.
func (c *Client) ListEnvironments(ctx context.Context, appID string) ([]Environment, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id required")
	}
	body, err := c.get(ctx, "/apps/"+url.PathEscape(appID)+"/environments", c.values())
	if err != nil {
		return nil, err
	}
	records, _, _, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	envs := make([]Environment, 0, len(records))
	for _, raw := range records {
		envs = append(envs, decodeEnvironment(raw))
	}
	return envs, nil
}

func (c *Client) values() url.Values {
	values := url.Values{}
	if c.projectID != "" {
		values.Set("project_id", c.projectID)
	}
	return values
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	body, err := c.get(ctx, path, c.values())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	rel := &url.URL{Path: strings.TrimSuffix(c.baseURL.Path, "/") + path, RawQuery: values.Encode()}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Path: path, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
