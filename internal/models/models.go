package models

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTextLength caps thoughtText and reactionBody, counted in characters.
const MaxTextLength = 280

// ReactionTimeLayout is the en-US locale display shape used for reaction timestamps.
const ReactionTimeLayout = "1/2/2006, 3:04:05 PM"

var displayLocation atomic.Pointer[time.Location]

// SetDisplayLocation sets the zone reaction timestamps are rendered in.
func SetDisplayLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	displayLocation.Store(loc)
}

// DisplayLocation returns the zone reaction timestamps are rendered in.
func DisplayLocation() *time.Location {
	if loc := displayLocation.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// User represents a member of the network
type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username string               `bson:"username" json:"username" validate:"required"`
	Email    string               `bson:"email" json:"email" validate:"required,simple_email"`
	Thoughts []primitive.ObjectID `bson:"thoughts" json:"thoughts"`
	Friends  []primitive.ObjectID `bson:"friends" json:"friends"`
}

// FriendCount is derived from the friends list and never stored.
func (u User) FriendCount() int {
	return len(u.Friends)
}

// MarshalJSON adds friendCount and renders empty lists as [].
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	out := plain(u)
	if out.Thoughts == nil {
		out.Thoughts = []primitive.ObjectID{}
	}
	if out.Friends == nil {
		out.Friends = []primitive.ObjectID{}
	}
	return json.Marshal(struct {
		plain
		FriendCount int `json:"friendCount"`
	}{out, u.FriendCount()})
}

// Thought represents a short post owned by a user.
// UserID is the owning foreign key; Username is a copy taken at creation
// time and is not updated when the owner renames.
type Thought struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ThoughtText string             `bson:"thoughtText" json:"thoughtText" validate:"required,max=280"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId,omitzero"`
	Username    string             `bson:"username" json:"username" validate:"required"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Reactions   []Reaction         `bson:"reactions" json:"reactions" validate:"dive"`
}

// ReactionCount is derived from the reactions list and never stored.
func (t Thought) ReactionCount() int {
	return len(t.Reactions)
}

// WithoutOwner returns a copy with UserID cleared, which drops it from JSON output.
func (t Thought) WithoutOwner() Thought {
	t.UserID = primitive.NilObjectID
	return t
}

// MarshalJSON adds reactionCount and renders an empty reaction list as [].
func (t Thought) MarshalJSON() ([]byte, error) {
	type plain Thought
	out := plain(t)
	if out.Reactions == nil {
		out.Reactions = []Reaction{}
	}
	return json.Marshal(struct {
		plain
		ReactionCount int `json:"reactionCount"`
	}{out, t.ReactionCount()})
}

// Reaction is embedded in a Thought and has no life of its own.
type Reaction struct {
	ReactionID   primitive.ObjectID `bson:"reactionId" json:"reactionId"`
	ReactionBody string             `bson:"reactionBody" json:"reactionBody" validate:"required,max=280"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Username     string             `bson:"username" json:"username" validate:"required"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// FormattedCreatedAt renders CreatedAt the way clients display it.
func (r Reaction) FormattedCreatedAt() string {
	return r.CreatedAt.In(DisplayLocation()).Format(ReactionTimeLayout)
}

// MarshalJSON emits createdAt as a display string instead of a timestamp.
func (r Reaction) MarshalJSON() ([]byte, error) {
	type plain Reaction
	return json.Marshal(struct {
		plain
		CreatedAt string `json:"createdAt"`
	}{plain(r), r.FormattedCreatedAt()})
}

// MessageResponse is a plain confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}
