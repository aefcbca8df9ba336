package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/feedview/internal/feedapi"
	"github.com/example/feedview/internal/postview"
)

func testPost() *feedapi.Post {
	content := "hello feed"
	return &feedapi.Post{
		PostID:        "post-1",
		Content:       &content,
		User:          feedapi.User{UserID: "author-1", CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
		CreatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ReactionCount: 3,
		CommentCount:  2,
	}
}

func wireComment(id string, totalReplies int) feedapi.Comment {
	body := "comment " + id
	return feedapi.Comment{
		CommentID:    id,
		Content:      &body,
		User:         feedapi.User{UserID: "user-" + id, CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
		CreatedAt:    time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		TotalReplies: totalReplies,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newView(t *testing.T, handler http.Handler) (*PostView, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := feedapi.New(srv.URL)
	return NewPostView("view-1", testPost(), client, zap.NewNop()), srv
}

func TestLoadMore_RootMergesAndRecordsCursor(t *testing.T) {
	var gotCursor string
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/post-1/comments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotCursor = r.URL.Query().Get("cursor")
		next := "tok-1"
		writeJSON(t, w, feedapi.CommentPage{
			Items:      []feedapi.Comment{wireComment("c1", 0), wireComment("c2", 3)},
			NextCursor: &next,
			HasMore:    true,
		})
	}))

	if err := view.LoadMore(context.Background(), nil); err != nil {
		t.Fatalf("load root: %v", err)
	}
	if gotCursor != "" {
		t.Fatalf("expected first load without cursor, got %q", gotCursor)
	}

	root := view.Store().CommentRoot()
	if len(root.Replies) != 2 {
		t.Fatalf("expected 2 root replies, got %d", len(root.Replies))
	}
	if !root.HasMoreReplies {
		t.Fatal("expected root HasMoreReplies from page flag")
	}
	if cur, ok := view.Store().Cursor(postview.RootCursorKey); !ok || cur != "tok-1" {
		t.Fatalf("expected root cursor tok-1, got %q (ok=%v)", cur, ok)
	}

	// Second page resumes from the recorded cursor.
	if err := view.LoadMore(context.Background(), nil); err != nil {
		t.Fatalf("load second page: %v", err)
	}
	if gotCursor != "tok-1" {
		t.Fatalf("expected second load to send cursor tok-1, got %q", gotCursor)
	}
}

func TestLoadMore_RepliesTargetNode(t *testing.T) {
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posts/post-1/comments":
			writeJSON(t, w, feedapi.CommentPage{Items: []feedapi.Comment{wireComment("B", 3)}})
		case "/posts/post-1/comments/B":
			next := "rep-tok"
			writeJSON(t, w, feedapi.CommentPage{
				Items:      []feedapi.Comment{wireComment("d1", 0), wireComment("d2", 0)},
				NextCursor: &next,
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	if err := view.LoadMore(context.Background(), nil); err != nil {
		t.Fatalf("load root: %v", err)
	}
	parent := "B"
	if err := view.LoadMore(context.Background(), &parent); err != nil {
		t.Fatalf("load replies: %v", err)
	}

	b := view.Store().CommentRoot().Replies[0]
	if len(b.Replies) != 2 {
		t.Fatalf("expected 2 replies under B, got %d", len(b.Replies))
	}
	if !b.HasMoreReplies {
		t.Fatal("expected HasMoreReplies=true with 3 total, 2 loaded")
	}
	if cur, _ := view.Store().Cursor("B"); cur != "rep-tok" {
		t.Fatalf("expected cursor rep-tok for B, got %q", cur)
	}
}

func TestLoadMore_UnknownParentIsRecoverable(t *testing.T) {
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, feedapi.CommentPage{Items: []feedapi.Comment{wireComment("x1", 0)}})
	}))

	parent := "ghost"
	if err := view.LoadMore(context.Background(), &parent); err != nil {
		t.Fatalf("expected locator miss swallowed, got %v", err)
	}
	if replies := view.Store().CommentRoot().Replies; replies != nil {
		t.Fatalf("expected tree untouched, got %d root replies", len(replies))
	}
}

func TestLoadMore_SingleFlightPerNode(t *testing.T) {
	releaseCh := make(chan struct{})
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-releaseCh
		writeJSON(t, w, feedapi.CommentPage{Items: []feedapi.Comment{wireComment("c1", 0)}})
	}))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- view.LoadMore(context.Background(), nil)
	}()

	// Wait for the first load to take the slot.
	deadline := time.After(2 * time.Second)
	for {
		view.mu.Lock()
		_, busy := view.inflight[postview.RootCursorKey]
		view.mu.Unlock()
		if busy {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first load never started")
		case <-time.After(time.Millisecond):
		}
	}

	if err := view.LoadMore(context.Background(), nil); err != ErrLoadInFlight {
		t.Fatalf("expected ErrLoadInFlight, got %v", err)
	}

	close(releaseCh)
	if err := <-firstDone; err != nil {
		t.Fatalf("first load: %v", err)
	}

	// Slot released: a new load may run.
	if err := view.LoadMore(context.Background(), nil); err != nil {
		t.Fatalf("load after release: %v", err)
	}
}

func TestReply_EmptyContentRejectedBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	if _, err := view.Reply(context.Background(), nil, "   ", postview.User{UserID: "me"}); err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no upstream call for empty content")
	}
	if got := view.Store().CommentCount(); got != 2 {
		t.Fatalf("expected comment count untouched at 2, got %d", got)
	}
}

func TestReply_PrependsAndCounts(t *testing.T) {
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			writeJSON(t, w, feedapi.CommentPage{Items: []feedapi.Comment{wireComment("c1", 0)}})
		case r.Method == http.MethodPost:
			if r.URL.Path != "/posts/post-1/comments" {
				t.Errorf("unexpected create path %q", r.URL.Path)
			}
			w.WriteHeader(http.StatusCreated)
			writeJSON(t, w, feedapi.ItemID{ID: "mine"})
		}
	}))

	if err := view.LoadMore(context.Background(), nil); err != nil {
		t.Fatalf("load root: %v", err)
	}

	id, err := view.Reply(context.Background(), nil, "my hot take", postview.User{UserID: "me"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if id != "mine" {
		t.Fatalf("expected created id 'mine', got %q", id)
	}

	root := view.Store().CommentRoot()
	if root.Replies[0].ID != "mine" {
		t.Fatalf("expected authored reply first, got %q", root.Replies[0].ID)
	}
	if root.Replies[0].Author.UserID != "me" {
		t.Fatalf("expected author 'me', got %q", root.Replies[0].Author.UserID)
	}
	if root.Replies[0].CreatedAt.IsZero() {
		t.Fatal("expected authored reply stamped with a creation time")
	}
	if got := view.Store().CommentCount(); got != 3 {
		t.Fatalf("expected comment count 3, got %d", got)
	}
}

func TestReact_OptimisticWithRollback(t *testing.T) {
	var fail atomic.Bool
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	// Happy path.
	if err := view.React(context.Background(), postview.ReactionLove); err != nil {
		t.Fatalf("react: %v", err)
	}
	if got := view.Store().ReactionCount(); got != 4 {
		t.Fatalf("expected count 4, got %d", got)
	}

	// Upstream failure: the optimistic switch to haha is rolled back to love.
	fail.Store(true)
	if err := view.React(context.Background(), postview.ReactionHaha); err == nil {
		t.Fatal("expected upstream error")
	}
	if got := view.Store().UserReaction(); got != postview.ReactionLove {
		t.Fatalf("expected rollback to love, got %q", got)
	}
	if got := view.Store().ReactionCount(); got != 4 {
		t.Fatalf("expected count still 4, got %d", got)
	}
}

func TestReact_FailedFirstReactionRollsBackToNone(t *testing.T) {
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if err := view.React(context.Background(), postview.ReactionLike); err == nil {
		t.Fatal("expected upstream error")
	}
	if got := view.Store().UserReaction(); got != "" {
		t.Fatalf("expected no reaction after rollback, got %q", got)
	}
	if got := view.Store().ReactionCount(); got != 3 {
		t.Fatalf("expected count back at 3, got %d", got)
	}
}

func TestClearReaction_RollbackRestoresKind(t *testing.T) {
	var fail atomic.Bool
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := view.React(context.Background(), postview.ReactionWow); err != nil {
		t.Fatalf("react: %v", err)
	}

	fail.Store(true)
	if err := view.ClearReaction(context.Background()); err == nil {
		t.Fatal("expected upstream error")
	}
	if got := view.Store().UserReaction(); got != postview.ReactionWow {
		t.Fatalf("expected wow restored, got %q", got)
	}
	if got := view.Store().ReactionCount(); got != 4 {
		t.Fatalf("expected count 4, got %d", got)
	}
}

func TestClearReaction_NoReactionIsLocalNoop(t *testing.T) {
	var calls atomic.Int32
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	if err := view.ClearReaction(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no upstream call clearing a non-reaction")
	}
}

func TestToggleReaction_RoundTrip(t *testing.T) {
	view, _ := newView(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := view.ToggleReaction(context.Background()); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if got := view.Store().UserReaction(); got != postview.ReactionLike {
		t.Fatalf("expected like, got %q", got)
	}

	if err := view.ToggleReaction(context.Background()); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if got := view.Store().UserReaction(); got != "" {
		t.Fatalf("expected cleared, got %q", got)
	}
	if got := view.Store().ReactionCount(); got != 3 {
		t.Fatalf("expected count back at 3, got %d", got)
	}
}
