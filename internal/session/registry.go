package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/feedview/internal/feedapi"
)

// ErrViewNotFound means the view id is unknown or the session expired.
var ErrViewNotFound = errors.New("session: view not found")

type entry struct {
	view      *PostView
	expiresAt time.Time
}

// Registry holds the live post-view sessions. Sessions expire after a TTL
// of inactivity; an expired session simply drops its tree, which is
// rebuilt from the network when the post is opened again. Late-resolving
// loads against a dropped session merge into nothing.
type Registry struct {
	mu      sync.Mutex
	views   map[string]*entry
	ttl     time.Duration
	client  *feedapi.Client
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewRegistry creates a registry whose sessions live for ttl past their
// last access.
func NewRegistry(client *feedapi.Client, ttl time.Duration, log *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Registry{
		views:   make(map[string]*entry),
		ttl:     ttl,
		client:  client,
		log:     log,
		nowFunc: time.Now,
	}
}

// Open fetches the post and creates a fresh view session for it. Every
// Open gets its own session and store, matching one mounted post view.
func (r *Registry) Open(ctx context.Context, postID string) (*PostView, error) {
	post, err := r.client.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	view := NewPostView(id, post, r.client, r.log)

	r.mu.Lock()
	r.views[id] = &entry{view: view, expiresAt: r.nowFunc().Add(r.ttl)}
	r.sweepLocked()
	r.mu.Unlock()

	return view, nil
}

// Get returns the live session for id and refreshes its expiry.
func (r *Registry) Get(id string) (*PostView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	if r.nowFunc().After(e.expiresAt) {
		delete(r.views, id)
		return nil, ErrViewNotFound
	}
	e.expiresAt = r.nowFunc().Add(r.ttl)
	return e.view, nil
}

// Close discards a session immediately, the unmount path.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.views, id)
	r.mu.Unlock()
}

// Len reports the number of sessions currently held, expired ones
// included until the next sweep.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// sweepLocked drops expired sessions. Called with the mutex held.
func (r *Registry) sweepLocked() {
	now := r.nowFunc()
	for id, e := range r.views {
		if now.After(e.expiresAt) {
			delete(r.views, id)
		}
	}
}
