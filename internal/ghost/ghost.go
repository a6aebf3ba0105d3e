package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meal-rotation/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAdminKey is returned when the admin key is not in id:secret form.
var ErrInvalidAdminKey = errors.New("invalid admin key format: expected id:secret")

const pageSize = 15

// Post represents a single recipe post from the Ghost API.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
	Meta  struct {
		Pagination struct {
			Page  int  `json:"page"`
			Pages int  `json:"pages"`
			Next  *int `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Client is an interface for a Ghost API client (Content & Admin).
type Client interface {
	FetchRecipes(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, title, html string, publish bool) (*Post, error)
}

// ghostClient is the concrete implementation of the Ghost API client.
type ghostClient struct {
	httpClient *http.Client
	config     *config.Config
	now        func() time.Time
}

// NewClient creates a new Ghost API client.
func NewClient(cfg *config.Config) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     cfg,
		now:        time.Now,
	}
}

// FetchRecipes fetches all posts (recipes) from the Ghost Content API,
// following pagination until the last page.
func (c *ghostClient) FetchRecipes(ctx context.Context) ([]Post, error) {
	var all []Post
	page := 1
	for {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Posts...)

		next := resp.Meta.Pagination.Next
		if next == nil || *next <= page {
			return all, nil
		}
		page = *next
	}
}

func (c *ghostClient) fetchPage(ctx context.Context, page int) (*PostsResponse, error) {
	q := url.Values{}
	q.Set("key", c.config.GhostContentKey)
	q.Set("limit", fmt.Sprint(pageSize))
	q.Set("page", fmt.Sprint(page))
	endpoint := fmt.Sprintf("%s/ghost/api/v3/content/posts/?%s", strings.TrimRight(c.config.GhostURL, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var postsResponse PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&postsResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &postsResponse, nil
}

// CreatePost creates a new post using the Ghost Admin API.
func (c *ghostClient) CreatePost(ctx context.Context, title, html string, publish bool) (*Post, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	status := "draft"
	if publish {
		status = "published"
	}

	newPost := map[string]any{
		"posts": []map[string]any{
			{
				"title":  title,
				"html":   html,
				"status": status,
			},
		},
	}

	body, err := json.Marshal(newPost)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}
	endpoint := fmt.Sprintf("%s/ghost/api/v3/admin/posts/?source=html", strings.TrimRight(c.config.GhostURL, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp any
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	var response PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Posts) == 0 {
		return nil, fmt.Errorf("no post returned from api")
	}

	return &response.Posts[0], nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *ghostClient) createAdminToken() (string, error) {
	id, secretHex, ok := strings.Cut(c.config.GhostAdminKey, ":")
	if !ok || id == "" || secretHex == "" {
		return "", ErrInvalidAdminKey
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "/v3/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
