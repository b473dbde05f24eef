package services

import (
	"context"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPollOptions is the smallest option count a poll can be created with.
const MinPollOptions = 3

// PollEngine records votes on poll posts. A voter gets one vote per poll
// across all of its options.
type PollEngine struct {
	deps Deps
}

type VoteResult struct {
	Post  *models.Post        `json:"post"`
	Tally []models.TallyEntry `json:"pollResult"`
}

func (e *PollEngine) Vote(ctx context.Context, postID primitive.ObjectID, optionIndex int, voterID primitive.ObjectID) (*VoteResult, error) {
	posts := e.deps.Stores.Posts
	err := retryOnConflict(ctx, e.deps.SaveAttempts, func() error {
		p, err := posts.FindByID(ctx, postID)
		if err != nil {
			return notFound(err, ErrPollNotFound)
		}
		if p.Type != models.PostPoll {
			return ErrPollNotFound
		}
		if p.PollExpired(e.deps.Now()) {
			return ErrPollExpired
		}
		if optionIndex < 0 || optionIndex >= len(p.PollOptions) {
			return ErrInvalidOption
		}
		if p.HasVoted(voterID) {
			return ErrAlreadyVoted
		}
		p.PollOptions[optionIndex].Votes = append(p.PollOptions[optionIndex].Votes, voterID)
		return posts.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	// the tally always comes from the stored vote sets
	p, err := posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, ErrPollNotFound)
	}
	if err := e.attachAuthor(ctx, p); err != nil {
		return nil, err
	}
	res := &VoteResult{Post: p, Tally: p.Tally()}

	e.deps.Realtime.Broadcast("poll_voted", map[string]interface{}{
		"postId":     p.ID.Hex(),
		"pollResult": res.Tally,
	})
	return res, nil
}

// Tally returns the current counts of a poll without voting.
func (e *PollEngine) Tally(ctx context.Context, postID primitive.ObjectID) ([]models.TallyEntry, error) {
	p, err := e.deps.Stores.Posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, ErrPollNotFound)
	}
	if p.Type != models.PostPoll {
		return nil, ErrPollNotFound
	}
	return p.Tally(), nil
}

func (e *PollEngine) attachAuthor(ctx context.Context, p *models.Post) error {
	cards, err := summaries(ctx, e.deps.Stores.Users, []primitive.ObjectID{p.UserID}, authorCard)
	if err != nil {
		return err
	}
	p.User = summaryFor(cards, p.UserID)
	return nil
}
