package services

import (
	"context"
	"sync"
	"testing"

	"learnerslogue/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFollowMirrorsBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, models.RoleStudent, "Ada")
	b := f.user(t, models.RoleStudent, "Bo")

	actor, err := f.svc.Follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, actor.Following)
	assert.Equal(t, []primitive.ObjectID{a.ID}, f.reload(t, b.ID).Followers)

	_, err = f.svc.Follow.Follow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.Len(t, f.reload(t, b.ID).Followers, 1)

	assert.Equal(t, []string{"user_followed"}, f.realtime.types())
	require.Len(t, f.push.all(), 1)
	assert.Equal(t, b.ID, f.push.all()[0].UserID)
}

func TestFollowSelfAlwaysFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, models.RoleStudent, "Ada")
	b := f.user(t, models.RoleStudent, "Bo")

	_, err := f.svc.Follow.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)

	_, err = f.svc.Follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Follow.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)

	// unknown ids are rejected the same way before any lookup
	ghost := primitive.NewObjectID()
	_, err = f.svc.Follow.Follow(ctx, ghost, ghost)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestFollowMissingAccount(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, models.RoleStudent, "Ada")

	_, err := f.svc.Follow.Follow(context.Background(), a.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.reload(t, a.ID).Following)

	_, err = f.svc.Follow.Unfollow(context.Background(), primitive.NewObjectID(), a.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, models.RoleStudent, "Ada")
	b := f.user(t, models.RoleTeacher, "Bo")

	_, err := f.svc.Follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	actor, err := f.svc.Follow.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.Empty(t, actor.Following)
	assert.Empty(t, f.reload(t, b.ID).Followers)

	// a relation that is already gone is not an error
	_, err = f.svc.Follow.Unfollow(ctx, a.ID, b.ID)
	assert.NoError(t, err)
}

func TestUnfollowOneOfMany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, models.RoleStudent, "A")
	b := f.user(t, models.RoleStudent, "B")
	c := f.user(t, models.RoleStudent, "C")

	_, err := f.svc.Follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Follow.Follow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Follow.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{c.ID}, f.reload(t, a.ID).Following)
	assert.NotContains(t, f.reload(t, b.ID).Followers, a.ID)
	assert.Contains(t, f.reload(t, c.ID).Followers, a.ID)
}

func TestConcurrentFollowsAllLand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.user(t, models.RoleStudent, "Ada")

	const n = 8
	targets := make([]*models.User, n)
	for i := range targets {
		targets[i] = f.user(t, models.RoleStudent, "target")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Follow.Follow(ctx, actor.ID, targets[i].ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "follow %d", i)
	}
	following := f.reload(t, actor.ID).Following
	assert.Len(t, following, n)
	for _, tgt := range targets {
		assert.Contains(t, following, tgt.ID)
		assert.Equal(t, []primitive.ObjectID{actor.ID}, f.reload(t, tgt.ID).Followers)
	}
}

func TestConcurrentFollowersOfOneTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.user(t, models.RoleSchool, "School")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		follower := f.user(t, models.RoleStudent, "fan")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Follow.Follow(ctx, follower.ID, target.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.reload(t, target.ID).Followers, n)
}
