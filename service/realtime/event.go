package realtime

import (
	"encoding/json"
	"time"
)

// EventType mirrors the server→client event vocabulary.
type EventType string

const (
	EventNewPost     EventType = "newPost"
	EventLike        EventType = "like"
	EventFollow      EventType = "follow"
	EventComment     EventType = "comment"
	EventTypingStart EventType = "typingStart"
	EventTypingStop  EventType = "typingStop"
)

// Event is the ephemeral fan-out unit. It carries only what delivery needs;
// nothing here is ever persisted.
type Event struct {
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	Ts        int64     `json:"ts"`
}

func NewEvent(t EventType, actorID string) *Event {
	return &Event{Type: t, ActorID: actorID, Ts: time.Now().UnixMilli()}
}

func (e *Event) WithPost(postID string) *Event {
	e.PostID = postID
	return e
}

func (e *Event) WithComment(commentID string) *Event {
	e.CommentID = commentID
	return e
}

func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ===== 频道命名 =====

// UserChannel is the personal notification channel for one user.
func UserChannel(userID string) string { return "user:" + userID }

// FollowersChannel is the broadcast channel a user's followers subscribe to.
func FollowersChannel(userID string) string { return "user:" + userID + ":followers" }
