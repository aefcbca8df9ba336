// Package session ties one open post view to the upstream API: it owns
// the postview.Store for that post and performs the fetch-then-merge and
// optimistic-update choreography around it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/feedview/internal/feedapi"
	"github.com/example/feedview/internal/postview"
)

var (
	// ErrEmptyContent rejects a reply with no content before any store or
	// network activity.
	ErrEmptyContent = errors.New("session: reply content must not be empty")

	// ErrLoadInFlight means a load for the same tree node is already
	// running; the caller should wait for it instead of stacking another.
	ErrLoadInFlight = errors.New("session: load already in flight for this node")
)

// DefaultPageSize is requested from the upstream when loading comment
// pages.
const DefaultPageSize = 20

// PostView is one viewer's open post: the post snapshot, the comment-tree
// store, and the client used to feed it.
type PostView struct {
	ID   string
	post feedapi.Post

	store  *postview.Store
	client *feedapi.Client
	log    *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewPostView builds the view session and its store from a fetched post.
func NewPostView(id string, post *feedapi.Post, client *feedapi.Client, log *zap.Logger) *PostView {
	var reaction postview.ReactionKind
	if post.UserReaction != nil {
		reaction = postview.ReactionKind(*post.UserReaction)
	}
	store := postview.NewStore(postview.Seed{
		PostID: post.PostID,
		Reactions: postview.ReactionStats{
			Like:  post.Reactions.Like,
			Love:  post.Reactions.Love,
			Haha:  post.Reactions.Haha,
			Wow:   post.Reactions.Wow,
			Sad:   post.Reactions.Sad,
			Angry: post.Reactions.Angry,
			Care:  post.Reactions.Care,
		},
		ReactionCount: post.ReactionCount,
		CommentCount:  post.CommentCount,
		UserReaction:  reaction,
	})
	return &PostView{
		ID:       id,
		post:     *post,
		store:    store,
		client:   client,
		log:      log,
		inflight: make(map[string]struct{}),
	}
}

// Store exposes the tree store for read access.
func (v *PostView) Store() *postview.Store { return v.store }

// Post returns the post snapshot the session was opened with. Counters on
// the snapshot go stale; current values live on the store.
func (v *PostView) Post() feedapi.Post { return v.post }

// LoadMore fetches the next page of comments for the root (parentID nil)
// or of replies under a comment, and merges it into the tree. The cursor
// recorded from the previous fetch for that node decides where the page
// starts. Per-node loads are single-flight: a second call while one runs
// returns ErrLoadInFlight, which keeps racing "load more" clicks from
// appending overlapping pages out of order.
func (v *PostView) LoadMore(ctx context.Context, parentID *string) error {
	key := postview.RootCursorKey
	if parentID != nil {
		key = *parentID
	}
	if err := v.acquire(key); err != nil {
		return err
	}
	defer v.release(key)

	cursor, _ := v.store.Cursor(key)
	opts := feedapi.PageOpts{Cursor: cursor, PageSize: DefaultPageSize}

	var (
		page *feedapi.CommentPage
		err  error
	)
	if parentID == nil {
		page, err = v.client.GetComments(ctx, v.post.PostID, opts)
	} else {
		page, err = v.client.GetReplies(ctx, v.post.PostID, *parentID, opts)
	}
	if err != nil {
		return err
	}

	args := postview.UpdateCommentsArgs{
		Comments:        mapComments(page.Items),
		ParentCommentID: parentID,
	}
	if page.NextCursor != nil {
		args.Cursor = *page.NextCursor
	}
	if parentID == nil {
		hasMore := page.HasMore
		args.HasMoreReplies = &hasMore
	}
	if err := v.store.UpdateComments(args); err != nil {
		// The node vanished between fetch and merge; drop the page.
		v.log.Warn("merge skipped, parent comment not materialized",
			zap.String("post_id", v.post.PostID),
			zap.String("parent_comment_id", key),
			zap.Error(err))
	}
	return nil
}

// Reply creates a comment (or nested reply) upstream, then surfaces it at
// the top of the target node's replies so the author sees it immediately.
func (v *PostView) Reply(ctx context.Context, parentID *string, content string, author postview.User) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	created, err := v.client.CreateComment(ctx, v.post.PostID, content, parentID)
	if err != nil {
		return "", err
	}

	v.store.IncreaseCommentCount()
	node := &postview.CommentNode{
		ID:        created.ID,
		Content:   &content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
		ParentID:  parentID,
	}
	if err := v.store.UpdateComments(postview.UpdateCommentsArgs{
		Comments:        []*postview.CommentNode{node},
		ParentCommentID: parentID,
		OnTop:           true,
	}); err != nil {
		v.log.Warn("created reply not placed, parent comment not materialized",
			zap.String("post_id", v.post.PostID),
			zap.String("comment_id", created.ID),
			zap.Error(err))
	}
	return created.ID, nil
}

// React optimistically sets the viewer's reaction, then confirms it
// upstream; on failure the store transition is inverted so the local view
// never disagrees with what the server accepted.
func (v *PostView) React(ctx context.Context, kind postview.ReactionKind) error {
	prev := v.store.UserReaction()
	if err := v.store.SetUserReaction(kind); err != nil {
		return err
	}

	if err := v.client.AddPostReaction(ctx, v.post.PostID, string(kind)); err != nil {
		v.rollbackReaction(prev)
		return err
	}
	return nil
}

// ClearReaction optimistically removes the viewer's reaction and confirms
// upstream, restoring the previous kind on failure. Clearing when nothing
// is set is a local no-op.
func (v *PostView) ClearReaction(ctx context.Context) error {
	prev := v.store.UserReaction()
	if prev == "" {
		return nil
	}
	v.store.RemoveUserReaction()

	if err := v.client.RemovePostReaction(ctx, v.post.PostID); err != nil {
		v.rollbackReaction(prev)
		return err
	}
	return nil
}

// ToggleReaction flips between no reaction and the default like.
func (v *PostView) ToggleReaction(ctx context.Context) error {
	if v.store.UserReaction() != "" {
		return v.ClearReaction(ctx)
	}
	return v.React(ctx, postview.ReactionLike)
}

func (v *PostView) rollbackReaction(prev postview.ReactionKind) {
	if prev == "" {
		v.store.RemoveUserReaction()
		return
	}
	_ = v.store.SetUserReaction(prev)
}

func (v *PostView) acquire(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.inflight[key]; busy {
		return ErrLoadInFlight
	}
	v.inflight[key] = struct{}{}
	return nil
}

func (v *PostView) release(key string) {
	v.mu.Lock()
	delete(v.inflight, key)
	v.mu.Unlock()
}

func mapComments(items []feedapi.Comment) []*postview.CommentNode {
	nodes := make([]*postview.CommentNode, len(items))
	for i, c := range items {
		nodes[i] = &postview.CommentNode{
			ID:           c.CommentID,
			Content:      c.Content,
			Author:       mapUser(c.User),
			CreatedAt:    c.CreatedAt,
			ParentID:     c.ParentCommentID,
			TotalReplies: c.TotalReplies,
		}
	}
	return nodes
}

func mapUser(u feedapi.User) postview.User {
	verified := u.VerificationStatus != nil && strings.EqualFold(*u.VerificationStatus, "verified")
	return postview.User{
		UserID:         u.UserID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Verified:       verified,
	}
}
