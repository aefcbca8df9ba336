package postview

import "time"

// User is the author summary copied into a node at creation time.
// The identity service owns the full record; the store never mutates it.
type User struct {
	UserID         string  `json:"user_id"`
	Username       *string `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
	Verified       bool    `json:"verified"`
}

// CommentNode is one comment or reply with its materialized children.
//
// Replies is nil until the first page for this node has been merged;
// a loaded node with zero replies carries an empty non-nil slice. Content
// is nil when the comment was redacted server-side but the node shell
// remains in the conversation.
type CommentNode struct {
	ID             string         `json:"comment_id"`
	Content        *string        `json:"content"`
	Author         User           `json:"author"`
	CreatedAt      time.Time      `json:"created_at"`
	ParentID       *string        `json:"parent_comment_id"`
	TotalReplies   int            `json:"total_replies"`
	Replies        []*CommentNode `json:"replies,omitempty"`
	HasMoreReplies bool           `json:"has_more_replies"`
}

// CommentRoot is the synthetic top of a post's comment tree. It has no
// identity or content of its own; it only anchors the root-level replies
// and their pagination state.
type CommentRoot struct {
	Replies        []*CommentNode `json:"replies,omitempty"`
	TotalReplies   int            `json:"total_replies"`
	HasMoreReplies bool           `json:"has_more_replies"`
}

// clone returns a deep copy of the node and its materialized subtree.
func (n *CommentNode) clone() *CommentNode {
	if n == nil {
		return nil
	}
	out := *n
	if n.Content != nil {
		c := *n.Content
		out.Content = &c
	}
	if n.ParentID != nil {
		p := *n.ParentID
		out.ParentID = &p
	}
	if n.Replies != nil {
		out.Replies = make([]*CommentNode, len(n.Replies))
		for i, r := range n.Replies {
			out.Replies[i] = r.clone()
		}
	}
	return &out
}
