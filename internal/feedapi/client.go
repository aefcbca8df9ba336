// Package feedapi is the typed client for the external social API. It
// wraps the REST endpoints the application consumes; all state the
// responses feed into lives elsewhere.
package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const userAgent = "feedview/1.0"

// Client calls the social API. Credentials travel per request: handlers
// put the viewer's bearer token on the context with WithBearer and every
// call forwards it.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type ctxKeyBearer struct{}

// WithBearer returns a context carrying the viewer's access token. The
// token is forwarded verbatim on every request made with that context.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyBearer{}, token)
}

func bearerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyBearer{}).(string)
	return v
}

// StatusError reports a non-2xx response with a truncated body excerpt.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feedapi: status %d body=%q", e.Status, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == status
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("feedapi: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := bearerFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: string(b[:min(len(b), 200)])}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("feedapi: decode error: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	return nil
}

func pageQuery(opts PageOpts) string {
	q := url.Values{}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// GetPost returns one post by id.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("feedapi: postID required")
	}
	var out Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPosts returns one cursor page of the feed.
func (c *Client) ListPosts(ctx context.Context, opts PageOpts) (*PostPage, error) {
	var out PostPage
	if err := c.do(ctx, http.MethodGet, "/posts"+pageQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a new post and returns its id.
func (c *Client) CreatePost(ctx context.Context, body CreatePost) (*ItemID, error) {
	var out ItemID
	if err := c.do(ctx, http.MethodPost, "/posts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost replaces a post's content.
func (c *Client) UpdatePost(ctx context.Context, postID, content string) error {
	return c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(postID), map[string]string{"content": content}, nil)
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil)
}

// GetUser returns one user's public profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("feedapi: userID required")
	}
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCurrentUser returns the profile of the authenticated caller.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/current", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserPosts returns one cursor page of a user's posts.
func (c *Client) GetUserPosts(ctx context.Context, userID string, opts PageOpts) (*PostPage, error) {
	if userID == "" {
		return nil, fmt.Errorf("feedapi: userID required")
	}
	var out PostPage
	path := "/users/" + url.PathEscape(userID) + "/posts" + pageQuery(opts)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetComments returns one page of root-level comments for a post.
func (c *Client) GetComments(ctx context.Context, postID string, opts PageOpts) (*CommentPage, error) {
	var out CommentPage
	path := "/posts/" + url.PathEscape(postID) + "/comments" + pageQuery(opts)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReplies returns one page of replies under a comment.
func (c *Client) GetReplies(ctx context.Context, postID, commentID string, opts PageOpts) (*CommentPage, error) {
	var out CommentPage
	path := "/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID) + pageQuery(opts)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateComment creates a comment on a post, or a reply when
// parentCommentID is non-nil, and returns the created id.
func (c *Client) CreateComment(ctx context.Context, postID string, content string, parentCommentID *string) (*ItemID, error) {
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if parentCommentID != nil {
		path += "/" + url.PathEscape(*parentCommentID)
	}
	var out ItemID
	if err := c.do(ctx, http.MethodPost, path, map[string]*string{"content": &content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddPostReaction sets or replaces the viewer's reaction on a post.
func (c *Client) AddPostReaction(ctx context.Context, postID, reactionType string) error {
	path := "/posts/" + url.PathEscape(postID) + "/react"
	return c.do(ctx, http.MethodPost, path, map[string]string{"reactionType": reactionType}, nil)
}

// RemovePostReaction clears the viewer's reaction on a post.
func (c *Client) RemovePostReaction(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID)+"/react", nil, nil)
}

// AddCommentReaction sets the viewer's reaction on a comment.
func (c *Client) AddCommentReaction(ctx context.Context, postID, commentID, reactionType string) error {
	path := "/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID) + "/reactions"
	return c.do(ctx, http.MethodPost, path, map[string]string{"reactionType": reactionType}, nil)
}

// RemoveCommentReaction clears the viewer's reaction on a comment.
func (c *Client) RemoveCommentReaction(ctx context.Context, postID, commentID string) error {
	path := "/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID) + "/reactions"
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SearchPosts runs a hybrid search over posts.
func (c *Client) SearchPosts(ctx context.Context, query string, opts PageOpts) (*PostPage, error) {
	q := url.Values{}
	q.Set("query", query)
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	var out PostPage
	if err := c.do(ctx, http.MethodGet, "/search/posts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChats returns one page of the viewer's conversations.
func (c *Client) GetChats(ctx context.Context, opts PageOpts) (*ChatPage, error) {
	var out ChatPage
	if err := c.do(ctx, http.MethodGet, "/chat"+pageQuery(opts), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendDirectMessage sends a DM to another user and returns the message id.
func (c *Client) SendDirectMessage(ctx context.Context, otherUserID, content string) (*ItemID, error) {
	var out ItemID
	path := "/chat/dm/" + url.PathEscape(otherUserID)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDirectMessages returns a page of DMs with another user. before and
// after are opposing cursors; pass "" to omit either.
func (c *Client) GetDirectMessages(ctx context.Context, otherUserID string, pageSize int, before, after string) (*MessagePage, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if before != "" {
		q.Set("before", before)
	}
	if after != "" {
		q.Set("after", after)
	}
	var out MessagePage
	path := "/chat/dm/" + url.PathEscape(otherUserID) + "/messages?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateUploadURL asks for a signed URL to upload one medium.
func (c *Client) GenerateUploadURL(ctx context.Context, contentType string) (*MediaUpload, error) {
	var out MediaUpload
	body := map[string]string{"contentType": contentType}
	if err := c.do(ctx, http.MethodPost, "/media/generate-medium-url", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health pings the upstream API.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health/hello", nil, nil)
}
