package feedapi

import "time"

// User is the account summary embedded in posts and comments.
type User struct {
	UserID             string     `json:"userId"`
	OauthSub           *string    `json:"oauthSub"`
	Username           *string    `json:"username"`
	Email              *string    `json:"email"`
	ProfilePicture     *string    `json:"profilePicture"`
	Bio                *string    `json:"bio"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLogin          *time.Time `json:"lastLogin"`
	IsActive           bool       `json:"isActive"`
	VerificationStatus *string    `json:"verificationStatus"`
}

// ReactionStats is the per-kind reaction aggregate for a post.
type ReactionStats struct {
	Like  int `json:"like"`
	Love  int `json:"love"`
	Haha  int `json:"haha"`
	Wow   int `json:"wow"`
	Sad   int `json:"sad"`
	Angry int `json:"angry"`
	Care  int `json:"care"`
}

// Post is a feed post as the API returns it.
type Post struct {
	PostID        string        `json:"postId"`
	Content       *string       `json:"content"`
	User          User          `json:"user"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     *time.Time    `json:"updatedAt"`
	Reactions     ReactionStats `json:"reactions"`
	ReactionCount int           `json:"reactionCount"`
	CommentCount  int           `json:"commentCount"`
	MediaURLs     []string      `json:"mediaUrls"`
	UserReaction  *string       `json:"userReaction"`
}

// Comment is one comment or reply as the API returns it. Content is null
// for redacted comments whose shell remains in the thread.
type Comment struct {
	CommentID       string    `json:"commentId"`
	Content         *string   `json:"content"`
	User            User      `json:"user"`
	CreatedAt       time.Time `json:"createdAt"`
	ParentCommentID *string   `json:"parentCommentId"`
	TotalReplies    int       `json:"totalReplies"`
}

// ItemID is the create-response body for posts, comments and messages.
type ItemID struct {
	ID string `json:"id"`
}

// CommentPage is one cursor page of comments.
type CommentPage struct {
	Items      []Comment `json:"items"`
	NextCursor *string   `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
}

// PostPage is one cursor page of posts.
type PostPage struct {
	Items      []Post  `json:"items"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// ChatParticipant is one member of a chat.
type ChatParticipant struct {
	UserID            string    `json:"userId"`
	Username          *string   `json:"username"`
	ProfilePicture    *string   `json:"profilePicture"`
	JoinedAt          time.Time `json:"joinedAt"`
	Role              *string   `json:"role"`
	LastReadMessageID *string   `json:"lastReadMessageId"`
}

// Message is one chat message.
type Message struct {
	MessageID      string    `json:"messageId"`
	ChatID         string    `json:"chatId"`
	UserID         *string   `json:"userId"`
	Username       *string   `json:"username"`
	ProfilePicture *string   `json:"profilePicture"`
	Content        *string   `json:"content"`
	SentAt         time.Time `json:"sentAt"`
	IsDeleted      bool      `json:"isDeleted"`
}

// Chat is a conversation summary.
type Chat struct {
	ChatID       string            `json:"chatId"`
	ChatName     *string           `json:"chatName"`
	ChatType     *string           `json:"chatType"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	MessageCount int               `json:"messageCount"`
	Participants []ChatParticipant `json:"participants"`
	LastMessage  *Message          `json:"lastMessage"`
}

// ChatPage is one cursor page of chats.
type ChatPage struct {
	Items      []Chat  `json:"items"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// MessagePage is one cursor page of chat messages.
type MessagePage struct {
	Items      []Message `json:"items"`
	NextCursor *string   `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
}

// MediaUpload is the signed-URL response for a media upload.
type MediaUpload struct {
	URL      string `json:"url"`
	MediumID string `json:"mediumId"`
}

// CreatePost is the request body for a new post.
type CreatePost struct {
	Content  string   `json:"content"`
	MediaIDs []string `json:"mediaIds"`
}

// PageOpts carries cursor pagination parameters.
type PageOpts struct {
	Cursor   string
	PageSize int
}
