// Package backend talks to the remote LearnChain course API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/gregjones/httpcache"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the hosted course backend.
const DefaultBaseURL = "https://learnchain-backend.onrender.com"

const maxErrorBody = 512

// Config configures the remote API client.
type Config struct {
	BaseURL string
	// HTTPClient is used for every call; http.DefaultClient when nil.
	HTTPClient *http.Client
	// CacheCatalog keeps an in-memory HTTP cache for the public course listing.
	CacheCatalog bool
	// MaxTries bounds attempts of idempotent GETs. Zero or one disables retries.
	MaxTries uint
}

// Client implements ports.Backend over HTTP/JSON
type Client struct {
	baseURL  string
	http     *http.Client
	catalog  *http.Client
	maxTries uint
}

var _ ports.Backend = (*Client)(nil)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.Status)
	}
	return fmt.Sprintf("%s: %v (status %d: %s)", e.Op, e.Err, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status the backend answered with.
func (e *StatusError) StatusCode() int { return e.Status }

// New creates a new remote API client
func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", base)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	catalog := httpClient
	if cfg.CacheCatalog {
		cache := httpcache.NewMemoryCacheTransport()
		if httpClient.Transport != nil {
			cache.Transport = httpClient.Transport
		}
		catalog = &http.Client{Transport: cache, Timeout: httpClient.Timeout}
	}

	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = 1
	}

	return &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     httpClient,
		catalog:  catalog,
		maxTries: maxTries,
	}, nil
}

// Login exchanges credentials for a backend session
func (c *Client) Login(ctx context.Context, username, password string) (*core.Session, error) {
	var out loginResponse
	err := c.doJSON(ctx, c.http, http.MethodPost, "login", "/api/login", "", loginRequest{UserName: username, Password: password}, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
			return nil, fmt.Errorf("login: %w", core.ErrInvalidCredentials)
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: %w: empty token", core.ErrBackend)
	}

	return &core.Session{
		Token:         out.Token,
		UserName:      out.UserName,
		Name:          out.Name,
		WalletAddress: out.WalletAddress,
		UserID:        out.UUID,
	}, nil
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, req core.SignupRequest) error {
	return c.doJSON(ctx, c.http, http.MethodPost, "signup", "/api/users", "", signupRequest{
		UserName:      req.Username,
		Name:          req.Name,
		Password:      req.Password,
		WalletAddress: req.WalletAddress,
	}, nil)
}

// ListCourses returns the public course catalog
func (c *Client) ListCourses(ctx context.Context) ([]core.Course, error) {
	var out []wireCourse
	if err := c.get(ctx, c.catalog, "list courses", "/api/content", "", &out); err != nil {
		return nil, err
	}

	courses := make([]core.Course, 0, len(out))
	for _, w := range out {
		courses = append(courses, w.toCore())
	}
	return courses, nil
}

// GetCourse fetches one course; content ids are only present for owners
func (c *Client) GetCourse(ctx context.Context, uuid, token string) (*core.Course, error) {
	path, err := coursePath("/api/content/", uuid)
	if err != nil {
		return nil, err
	}

	var out wireCourse
	if err := c.get(ctx, c.http, "get course", path, token, &out); err != nil {
		return nil, err
	}
	course := out.toCore()
	if course.UUID == "" {
		course.UUID = uuid
	}
	return &course, nil
}

// CreateCourse uploads a new course and returns its UUID
func (c *Client) CreateCourse(ctx context.Context, draft core.CourseDraft, token string) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeDraft(mw, draft))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/content", token, pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out createCourseResponse
	if err := c.send(c.http, req, "create course", &out); err != nil {
		return "", err
	}
	if out.CourseUUID == "" {
		return "", fmt.Errorf("create course: %w: missing courseUUID", core.ErrBackend)
	}
	return out.CourseUUID, nil
}

// BuyCourse asks the backend to mint an ownership token for the course
func (c *Client) BuyCourse(ctx context.Context, uuid, token string, proof *core.PurchaseProof) error {
	path, err := coursePath("/api/content/buy/", uuid)
	if err != nil {
		return err
	}
	if proof == nil {
		proof = &core.PurchaseProof{}
	}
	return c.doJSON(ctx, c.http, http.MethodPost, "buy course", path, token, proof, nil)
}

// ListOwnedTokens lists the ownership tokens of the signing wallet
func (c *Client) ListOwnedTokens(ctx context.Context, signature, token string) ([]core.OwnershipToken, error) {
	var out []wireToken
	if err := c.doJSON(ctx, c.http, http.MethodPost, "list tokens", "/api/tokens", token, tokensRequest{Signature: signature}, &out); err != nil {
		return nil, err
	}

	tokens := make([]core.OwnershipToken, 0, len(out))
	for _, w := range out {
		if w.CourseUUID == "" {
			continue
		}
		tokens = append(tokens, core.OwnershipToken{CourseUUID: w.CourseUUID, Signature: signature})
	}
	return tokens, nil
}

// get runs an idempotent GET, retrying server errors when MaxTries allows it
func (c *Client) get(ctx context.Context, client *http.Client, op, path, token string, out any) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.doJSON(ctx, client, http.MethodGet, op, path, token, nil, out)
		if err != nil && !retryable(ctx, err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(c.maxTries))
	return err
}

func (c *Client) doJSON(ctx context.Context, client *http.Client, method, op, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(client, req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(client *http.Client, req *http.Request, op string, out any) error {
	log.Debug().Str("op", op).Str("method", req.Method).Str("url", req.URL.String()).Msg("backend request")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, req, resp)
	}

	// Draining to EOF lets the catalog cache store the response.
	defer io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: failed to decode response: %v", op, core.ErrBackend, err)
	}
	return nil
}

func statusError(op string, req *http.Request, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	sentinel := core.ErrBackend
	switch {
	case resp.StatusCode == http.StatusNotFound:
		sentinel = core.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized && req.Header.Get("Authorization") != "":
		sentinel = core.ErrUnauthenticated
	}

	log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend request failed")

	return &StatusError{
		Op:     op,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(raw)),
		Err:    sentinel,
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= http.StatusInternalServerError
	}
	if errors.Is(err, core.ErrBackend) {
		// undecodable answer
		return false
	}
	// transport failures
	return true
}

func coursePath(prefix, uuid string) (string, error) {
	if uuid == "" || uuid == "." || uuid == ".." {
		return "", fmt.Errorf("%w: course uuid %q", core.ErrInvalidRequest, uuid)
	}
	return prefix + url.PathEscape(uuid), nil
}

func writeDraft(mw *multipart.Writer, draft core.CourseDraft) error {
	fields := [][2]string{
		{"title", draft.Title},
		{"price", draft.Price.String()},
		{"description", draft.Description},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	for _, m := range draft.Materials {
		part, err := mw.CreateFormFile("material", m.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, m.Body); err != nil {
			return fmt.Errorf("failed to stream %s: %w", m.Name, err)
		}
	}

	return mw.Close()
}
