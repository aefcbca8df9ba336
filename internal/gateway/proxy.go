package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/feedview/internal/feedapi"
	"github.com/example/feedview/internal/platform/analytics"
	"github.com/example/feedview/internal/platform/api"
	"github.com/example/feedview/internal/platform/auth"
	"github.com/example/feedview/internal/platform/httpserver"
)

type createPostRequest struct {
	Content  string   `json:"content"`
	MediaIDs []string `json:"media_ids,omitempty"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// ListFeed handles GET /v1/feed
func ListFeed(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page, err := client.ListPosts(upstreamContext(r), pageOpts(r, 10))
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// CreateFeedPost handles POST /v1/feed
func CreateFeedPost(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req createPostRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		created, err := client.CreatePost(upstreamContext(r), feedapi.CreatePost{
			Content:  req.Content,
			MediaIDs: req.MediaIDs,
		})
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// SearchPosts handles GET /v1/search/posts
func SearchPosts(client *feedapi.Client, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			api.BadRequest(w, "MISSING_QUERY", "q is required", rid, nil)
			return
		}

		page, err := client.SearchPosts(upstreamContext(r), query, pageOpts(r, 10))
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		events.Publish(analytics.SubjectSearchPerformed, "search_performed", uid, map[string]any{
			"query":   query,
			"results": len(page.Items),
		})

		api.WriteJSON(w, http.StatusOK, page)
	}
}

// GetUserProfile handles GET /v1/users/{user_id}
func GetUserProfile(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", rid, nil)
			return
		}

		user, err := client.GetUser(upstreamContext(r), userID)
		if err != nil {
			if feedapi.IsStatus(err, http.StatusNotFound) {
				api.NotFound(w, "USER_NOT_FOUND", "user not found", rid)
				return
			}
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	}
}

// GetCurrentUser handles GET /v1/me
func GetCurrentUser(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		user, err := client.GetCurrentUser(upstreamContext(r))
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	}
}

// ListUserPosts handles GET /v1/users/{user_id}/posts
func ListUserPosts(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", rid, nil)
			return
		}

		page, err := client.GetUserPosts(upstreamContext(r), userID, pageOpts(r, 10))
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// ListChats handles GET /v1/chats
func ListChats(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page, err := client.GetChats(upstreamContext(r), pageOpts(r, 20))
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// ListDirectMessages handles GET /v1/chats/dm/{other_user_id}/messages
func ListDirectMessages(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		otherID := strings.TrimSpace(chi.URLParam(r, "other_user_id"))
		if otherID == "" {
			api.BadRequest(w, "MISSING_ID", "other_user_id is required", rid, nil)
			return
		}

		pageSize := 50
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
				pageSize = n
			}
		}
		before := strings.TrimSpace(r.URL.Query().Get("before"))
		after := strings.TrimSpace(r.URL.Query().Get("after"))

		page, err := client.GetDirectMessages(upstreamContext(r), otherID, pageSize, before, after)
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// SendDirectMessage handles POST /v1/chats/dm/{other_user_id}/messages
func SendDirectMessage(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		otherID := strings.TrimSpace(chi.URLParam(r, "other_user_id"))
		if otherID == "" {
			api.BadRequest(w, "MISSING_ID", "other_user_id is required", rid, nil)
			return
		}

		var req sendMessageRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		created, err := client.SendDirectMessage(upstreamContext(r), otherID, req.Content)
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// GenerateUploadURL handles POST /v1/media/upload-url
func GenerateUploadURL(client *feedapi.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req uploadURLRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.ContentType) == "" {
			api.BadRequest(w, "MISSING_CONTENT_TYPE", "content_type is required", rid, nil)
			return
		}

		upload, err := client.GenerateUploadURL(upstreamContext(r), req.ContentType)
		if err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, upload)
	}
}
