package postview

// ReactionKind is one of the reaction types a viewer can put on a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionHaha  ReactionKind = "haha"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

// Valid reports whether k names a known reaction kind.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// ReactionStats mirrors the server-side per-kind aggregate for a post.
// The store carries it read-only; only ReactionCount and the viewer's own
// reaction move locally between refreshes.
type ReactionStats struct {
	Like  int `json:"like"`
	Love  int `json:"love"`
	Haha  int `json:"haha"`
	Wow   int `json:"wow"`
	Sad   int `json:"sad"`
	Angry int `json:"angry"`
	Care  int `json:"care"`
}

// SetUserReaction moves the viewer's reaction to kind and keeps
// ReactionCount consistent: entering a reaction from none adds one,
// switching kinds leaves the count alone (one user, one reaction). The
// empty kind clears, same as RemoveUserReaction.
func (s *Store) SetUserReaction(kind ReactionKind) error {
	if kind == "" {
		s.RemoveUserReaction()
		return nil
	}
	if !kind.Valid() {
		return ErrUnknownReaction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userReaction == "" {
		s.reactionCount++
	}
	s.userReaction = kind
	return nil
}

// RemoveUserReaction clears the viewer's reaction. Clearing when no
// reaction is set is a no-op, so the count cannot go negative.
func (s *Store) RemoveUserReaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userReaction == "" {
		return
	}
	s.reactionCount--
	s.userReaction = ""
}

// ToggleUserReaction flips between no reaction and the default "like":
// any existing reaction is cleared regardless of its kind.
func (s *Store) ToggleUserReaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userReaction != "" {
		s.reactionCount--
		s.userReaction = ""
		return
	}
	s.reactionCount++
	s.userReaction = ReactionLike
}
