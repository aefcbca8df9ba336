package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/feedview/internal/feedapi"
	"github.com/example/feedview/internal/platform/analytics"
	"github.com/example/feedview/internal/platform/api"
	"github.com/example/feedview/internal/platform/auth"
	"github.com/example/feedview/internal/platform/httpserver"
	"github.com/example/feedview/internal/postview"
	"github.com/example/feedview/internal/session"
)

type loadCommentsRequest struct {
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

type createReplyRequest struct {
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

type setReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

type viewResponse struct {
	ViewID string       `json:"view_id"`
	Post   feedapi.Post `json:"post"`
}

type commentsResponse struct {
	Comments       []*postview.CommentNode `json:"comments"`
	TotalReplies   int                     `json:"total_replies"`
	HasMoreReplies bool                    `json:"has_more_replies"`
	CommentCount   int                     `json:"comment_count"`
	ReactionCount  int                     `json:"reaction_count"`
	UserReaction   string                  `json:"user_reaction,omitempty"`
}

type replyResponse struct {
	CommentID    string `json:"comment_id"`
	CommentCount int    `json:"comment_count"`
}

type reactionResponse struct {
	UserReaction  string `json:"user_reaction,omitempty"`
	ReactionCount int    `json:"reaction_count"`
}

// OpenView handles POST /v1/views/{post_id}
func OpenView(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		view, err := reg.Open(upstreamContext(r), postID)
		if err != nil {
			if feedapi.IsStatus(err, http.StatusNotFound) {
				api.NotFound(w, "POST_NOT_FOUND", "post not found", rid)
				return
			}
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		events.Publish(analytics.SubjectPostViewed, "post_viewed", uid, map[string]any{
			"post_id": postID,
			"view_id": view.ID,
		})

		api.WriteJSON(w, http.StatusCreated, viewResponse{ViewID: view.ID, Post: view.Post()})
	}
}

// GetComments handles GET /v1/views/{view_id}/comments
func GetComments(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}
		api.WriteJSON(w, http.StatusOK, treeSnapshot(view))
	}
}

// LoadComments handles POST /v1/views/{view_id}/comments/load
func LoadComments(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}

		var req loadCommentsRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
				api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
				return
			}
		}

		if err := view.LoadMore(upstreamContext(r), req.ParentCommentID); err != nil {
			if errors.Is(err, session.ErrLoadInFlight) {
				api.Conflict(w, "LOAD_IN_FLIGHT", "a load for this node is already running", rid, nil)
				return
			}
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		props := map[string]any{"post_id": view.Store().PostID()}
		if req.ParentCommentID != nil {
			props["parent_comment_id"] = *req.ParentCommentID
		}
		events.Publish(analytics.SubjectCommentsLoaded, "comments_loaded", uid, props)

		api.WriteJSON(w, http.StatusOK, treeSnapshot(view))
	}
}

// CreateReply handles POST /v1/views/{view_id}/comments
func CreateReply(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, okUser := auth.UserIDFromContext(r.Context())
		if !okUser || uid == "" {
			api.Unauthorized(w, "AUTH_MISSING", "authentication required", rid)
			return
		}
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}

		var req createReplyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		author := postview.User{UserID: uid}
		if username, okName := auth.UsernameFromContext(r.Context()); okName && username != "" {
			author.Username = &username
		}

		commentID, err := view.Reply(upstreamContext(r), req.ParentCommentID, req.Content, author)
		if err != nil {
			if errors.Is(err, session.ErrEmptyContent) {
				api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
				return
			}
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		events.Publish(analytics.SubjectCommentCreated, "comment_created", uid, map[string]any{
			"post_id":    view.Store().PostID(),
			"comment_id": commentID,
		})

		api.WriteJSON(w, http.StatusCreated, replyResponse{
			CommentID:    commentID,
			CommentCount: view.Store().CommentCount(),
		})
	}
}

// SetReaction handles PUT /v1/views/{view_id}/reaction
func SetReaction(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}

		var req setReactionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}

		kind := postview.ReactionKind(strings.ToLower(strings.TrimSpace(req.ReactionType)))
		if !kind.Valid() {
			api.BadRequest(w, "UNKNOWN_REACTION", "unknown reaction type", rid, map[string]any{
				"reaction_type": req.ReactionType,
			})
			return
		}

		if err := view.React(upstreamContext(r), kind); err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		events.Publish(analytics.SubjectReactionSet, "reaction_set", uid, map[string]any{
			"post_id":       view.Store().PostID(),
			"reaction_type": string(kind),
		})

		api.WriteJSON(w, http.StatusOK, reactionState(view))
	}
}

// ClearReaction handles DELETE /v1/views/{view_id}/reaction
func ClearReaction(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}

		if err := view.ClearReaction(upstreamContext(r)); err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		events.Publish(analytics.SubjectReactionCleared, "reaction_cleared", uid, map[string]any{
			"post_id": view.Store().PostID(),
		})

		api.WriteJSON(w, http.StatusOK, reactionState(view))
	}
}

// ToggleReaction handles POST /v1/views/{view_id}/reaction/toggle
func ToggleReaction(reg *session.Registry, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		view, ok := lookupView(w, r, reg, rid)
		if !ok {
			return
		}

		if err := view.ToggleReaction(upstreamContext(r)); err != nil {
			api.BadGateway(w, "UPSTREAM_ERROR", "feed API unavailable", rid)
			return
		}

		uid, _ := auth.UserIDFromContext(r.Context())
		state := reactionState(view)
		subject, name := analytics.SubjectReactionCleared, "reaction_cleared"
		if state.UserReaction != "" {
			subject, name = analytics.SubjectReactionSet, "reaction_set"
		}
		events.Publish(subject, name, uid, map[string]any{
			"post_id": view.Store().PostID(),
		})

		api.WriteJSON(w, http.StatusOK, state)
	}
}

// CloseView handles DELETE /v1/views/{view_id}
func CloseView(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		viewID := strings.TrimSpace(chi.URLParam(r, "view_id"))
		if viewID == "" {
			api.BadRequest(w, "MISSING_ID", "view_id is required", rid, nil)
			return
		}
		reg.Close(viewID)
		api.NoContent(w)
	}
}

func lookupView(w http.ResponseWriter, r *http.Request, reg *session.Registry, rid string) (*session.PostView, bool) {
	viewID := strings.TrimSpace(chi.URLParam(r, "view_id"))
	if viewID == "" {
		api.BadRequest(w, "MISSING_ID", "view_id is required", rid, nil)
		return nil, false
	}
	view, err := reg.Get(viewID)
	if err != nil {
		api.NotFound(w, "VIEW_NOT_FOUND", "view session not found or expired", rid)
		return nil, false
	}
	return view, true
}

func treeSnapshot(view *session.PostView) commentsResponse {
	root := view.Store().CommentRoot()
	return commentsResponse{
		Comments:       root.Replies,
		TotalReplies:   root.TotalReplies,
		HasMoreReplies: root.HasMoreReplies,
		CommentCount:   view.Store().CommentCount(),
		ReactionCount:  view.Store().ReactionCount(),
		UserReaction:   string(view.Store().UserReaction()),
	}
}

func reactionState(view *session.PostView) reactionResponse {
	return reactionResponse{
		UserReaction:  string(view.Store().UserReaction()),
		ReactionCount: view.Store().ReactionCount(),
	}
}
