package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	Type        PostType           `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Tags        []string           `bson:"tags" json:"tags"`
	Visibility  Visibility         `bson:"visibility" json:"visibility"`

	// Poll-specific
	PollOptions   []PollOption `bson:"pollOptions" json:"pollOptions"`
	PollExpiresAt *time.Time   `bson:"pollExpiresAt,omitempty" json:"pollExpiresAt,omitempty"`

	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments []Comment            `bson:"comments" json:"comments"`
	Answers  []Comment            `bson:"answers" json:"answers"` // questions only

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	User *UserSummary `bson:"-" json:"user,omitempty"` // populated in responses only
}

type PollOption struct {
	Option string               `bson:"option" json:"option"`
	Votes  []primitive.ObjectID `bson:"votes" json:"votes"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	User *UserSummary `bson:"-" json:"user,omitempty"`
}

// HasVoted reports whether voter appears in any option's vote set.
func (p *Post) HasVoted(voter primitive.ObjectID) bool {
	for _, opt := range p.PollOptions {
		if ContainsID(opt.Votes, voter) {
			return true
		}
	}
	return false
}

// PollExpired reports whether the poll window closed before now.
func (p *Post) PollExpired(now time.Time) bool {
	return p.PollExpiresAt != nil && now.After(*p.PollExpiresAt)
}

// TallyEntry is the derived vote count for one poll option.
type TallyEntry struct {
	Option    string `json:"option"`
	VoteCount int    `json:"voteCount"`
}

// Tally recomputes vote counts from the option vote sets.
func (p *Post) Tally() []TallyEntry {
	out := make([]TallyEntry, len(p.PollOptions))
	for i, opt := range p.PollOptions {
		out[i] = TallyEntry{Option: opt.Option, VoteCount: len(opt.Votes)}
	}
	return out
}
