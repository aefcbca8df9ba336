// Package postview holds the in-memory state of one open post view: the
// comment tree with per-node pagination cursors, and the post-level
// counters the viewer mutates optimistically. One Store exists per view
// session and is discarded with it; nothing here touches the network.
package postview

import (
	"errors"
	"sync"
)

// RootCursorKey keys the cursor-table entry for root-level comment pages.
const RootCursorKey = "root"

var (
	// ErrParentNotFound is returned when a merge targets a comment id that
	// is not materialized anywhere in the tree. The tree is left untouched;
	// callers log it and move on.
	ErrParentNotFound = errors.New("postview: parent comment not found")

	// ErrUnknownReaction is returned for a reaction kind outside the
	// supported set.
	ErrUnknownReaction = errors.New("postview: unknown reaction kind")
)

// Store owns the comment tree, cursor table and reaction counters for a
// single post. All entry points serialize on an internal mutex, so two
// mutations issued in sequence are applied in sequence with nothing
// interleaved between them.
type Store struct {
	mu sync.Mutex

	postID        string
	root          CommentRoot
	cursors       map[string]string
	reactions     ReactionStats
	reactionCount int
	commentCount  int
	userReaction  ReactionKind // "" when the viewer has not reacted
}

// Seed carries the post snapshot a Store starts from.
type Seed struct {
	PostID        string
	Reactions     ReactionStats
	ReactionCount int
	CommentCount  int
	UserReaction  ReactionKind
}

// NewStore creates the store for one post-view session. The root starts
// unloaded (nil replies) with its total taken from the post comment count.
func NewStore(seed Seed) *Store {
	return &Store{
		postID: seed.PostID,
		root: CommentRoot{
			TotalReplies: seed.CommentCount,
		},
		cursors:       make(map[string]string),
		reactions:     seed.Reactions,
		reactionCount: seed.ReactionCount,
		commentCount:  seed.CommentCount,
		userReaction:  seed.UserReaction,
	}
}

// UpdateCommentsArgs describes one merge of fetched or freshly authored
// comments into the tree.
type UpdateCommentsArgs struct {
	// Comments are merged in the given order. May be empty.
	Comments []*CommentNode
	// ParentCommentID targets a comment anywhere in the tree; nil targets
	// the root.
	ParentCommentID *string
	// Cursor, when non-empty, is recorded as the continuation token for the
	// target node.
	Cursor string
	// HasMoreReplies overrides the root's has-more flag. It only applies to
	// root merges; nil leaves the flag unchanged. Non-root nodes always
	// derive the flag from their reply totals instead.
	HasMoreReplies *bool
	// OnTop prepends instead of appends, used when the viewer authors a new
	// reply that must show up immediately rather than at the pagination
	// tail.
	OnTop bool
}

// UpdateComments merges a batch of comments under the target node.
// Existing replies are never reordered or removed; incoming comments whose
// id is already materialized under the target are dropped, so replaying an
// overlapping page cannot duplicate nodes. A miss on ParentCommentID
// returns ErrParentNotFound with the tree untouched.
func (s *Store) UpdateComments(args UpdateCommentsArgs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if args.ParentCommentID == nil {
		s.root.Replies = splice(s.root.Replies, args.Comments, args.OnTop)
		if args.HasMoreReplies != nil {
			s.root.HasMoreReplies = *args.HasMoreReplies
		}
		if args.Cursor != "" {
			s.cursors[RootCursorKey] = args.Cursor
		}
		return nil
	}

	parent := s.findNode(*args.ParentCommentID)
	if parent == nil {
		return ErrParentNotFound
	}
	parent.Replies = splice(parent.Replies, args.Comments, args.OnTop)
	parent.HasMoreReplies = parent.TotalReplies > len(parent.Replies)
	if args.Cursor != "" {
		s.cursors[*args.ParentCommentID] = args.Cursor
	}
	return nil
}

// splice merges incoming into existing, prepending when onTop, skipping
// ids already present. A nil existing slice becomes loaded-empty even when
// incoming is empty.
func splice(existing, incoming []*CommentNode, onTop bool) []*CommentNode {
	if existing == nil {
		existing = []*CommentNode{}
	}
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c.ID] = struct{}{}
	}
	fresh := make([]*CommentNode, 0, len(incoming))
	for _, c := range incoming {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		fresh = append(fresh, c)
	}
	if onTop {
		return append(fresh, existing...)
	}
	return append(existing, fresh...)
}

// findNode resolves a comment id to its node with a breadth-first walk
// over the materialized tree. Unloaded subtrees are not descended into: a
// caller can only reference a comment it has already seen. BFS because the
// common targets sit shallow (top-level or one deep) in a feed UI, and the
// walk is bounded by the materialized node count either way.
func (s *Store) findNode(id string) *CommentNode {
	queue := make([]*CommentNode, len(s.root.Replies))
	copy(queue, s.root.Replies)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.ID == id {
			return current
		}
		queue = append(queue, current.Replies...)
	}
	return nil
}

// IncreaseCommentCount bumps the post-level comment counter. Called once
// per successfully created comment or reply, wherever it lands in the
// tree.
func (s *Store) IncreaseCommentCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commentCount++
}

// PostID returns the post this store belongs to.
func (s *Store) PostID() string { return s.postID }

// CommentRoot returns a deep copy of the tree. Consumers get a stable
// snapshot they can serialize or diff without racing later merges.
func (s *Store) CommentRoot() CommentRoot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := CommentRoot{
		TotalReplies:   s.root.TotalReplies,
		HasMoreReplies: s.root.HasMoreReplies,
	}
	if s.root.Replies != nil {
		out.Replies = make([]*CommentNode, len(s.root.Replies))
		for i, r := range s.root.Replies {
			out.Replies[i] = r.clone()
		}
	}
	return out
}

// Cursor returns the continuation token recorded for key (RootCursorKey or
// a comment id) and whether one exists. Absence means "fetch from the
// beginning".
func (s *Store) Cursor(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cursors[key]
	return cur, ok
}

// Cursors returns a copy of the whole cursor table.
func (s *Store) Cursors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.cursors))
	for k, v := range s.cursors {
		out[k] = v
	}
	return out
}

// ReactionCount returns the post's aggregate reaction count as locally
// tracked.
func (s *Store) ReactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactionCount
}

// CommentCount returns the post's comment count as locally tracked.
func (s *Store) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentCount
}

// UserReaction returns the viewer's current reaction, "" when none.
func (s *Store) UserReaction() ReactionKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userReaction
}

// ReactionStats returns the server-reported per-kind aggregate the store
// was seeded with.
func (s *Store) ReactionStats() ReactionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactions
}
