package services

import (
	"context"
	"log"

	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowGraph maintains the following/followers mirror sets across two
// independently stored accounts. The two saves are not atomic: a failure
// after the actor is saved leaves the pair asymmetric until Unfollow
// repairs it.
type FollowGraph struct {
	deps Deps
}

func (g *FollowGraph) Follow(ctx context.Context, actorID, targetID primitive.ObjectID) (*models.User, error) {
	if actorID == targetID {
		return nil, ErrSelfFollow
	}

	users := g.deps.Stores.Users
	var actor *models.User
	err := retryOnConflict(ctx, g.deps.SaveAttempts, func() error {
		a, err := users.FindByID(ctx, actorID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if _, err := users.FindByID(ctx, targetID); err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if a.IsFollowing(targetID) {
			return ErrAlreadyFollowing
		}
		a.Following = append(a.Following, targetID)
		if err := users.Save(ctx, a); err != nil {
			return err
		}
		actor = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := g.mirror(ctx, targetID, func(t *models.User) bool {
		if models.ContainsID(t.Followers, actorID) {
			return false
		}
		t.Followers = append(t.Followers, actorID)
		return true
	}); err != nil {
		log.Printf("[Follow] %s -> %s saved on actor only: %v", actorID.Hex(), targetID.Hex(), err)
		return nil, notFound(err, ErrUserNotFound)
	}

	g.deps.Realtime.Broadcast("user_followed", map[string]interface{}{
		"followerId": actorID.Hex(),
		"userId":     targetID.Hex(),
	})
	name := actor.FullName
	if name == "" {
		name = "Someone"
	}
	g.deps.Push.NotifyUser(targetID, "New follower", name+" started following you")

	return g.refreshed(ctx, actorID)
}

// Unfollow removes both sides of the relation independently. A relation that
// is already absent on either side is not an error.
func (g *FollowGraph) Unfollow(ctx context.Context, actorID, targetID primitive.ObjectID) (*models.User, error) {
	users := g.deps.Stores.Users
	if _, err := users.FindByID(ctx, actorID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if _, err := users.FindByID(ctx, targetID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if err := g.mirror(ctx, actorID, func(a *models.User) bool {
		var removed bool
		a.Following, removed = models.RemoveID(a.Following, targetID)
		return removed
	}); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if err := g.mirror(ctx, targetID, func(t *models.User) bool {
		var removed bool
		t.Followers, removed = models.RemoveID(t.Followers, actorID)
		return removed
	}); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return g.refreshed(ctx, actorID)
}

// mirror applies mutate to a freshly read account and saves it when mutate
// reports a change, retrying on stale writes.
func (g *FollowGraph) mirror(ctx context.Context, id primitive.ObjectID, mutate func(*models.User) bool) error {
	users := g.deps.Stores.Users
	return retryOnConflict(ctx, g.deps.SaveAttempts, func() error {
		u, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !mutate(u) {
			return nil
		}
		return users.Save(ctx, u)
	})
}

func (g *FollowGraph) refreshed(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := g.deps.Stores.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}
