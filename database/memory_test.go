package database

import (
	"context"
	"sync"
	"testing"

	"learnerslogue/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryUserSaveDetectsStaleWrite(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStores().Users

	u := &models.User{Role: models.RoleStudent, Email: "a@test.test"}
	require.NoError(t, users.Create(ctx, u))

	first, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)

	first.City = "Pune"
	require.NoError(t, users.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.City = "Delhi"
	err = users.Save(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, int64(0), second.Version, "failed save must not bump the version")

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.City)
}

func TestMemoryDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	posts := NewMemoryStores().Posts

	voter := primitive.NewObjectID()
	p := &models.Post{Type: models.PostPoll, PollOptions: []models.PollOption{{Option: "a"}, {Option: "b"}, {Option: "c"}}}
	require.NoError(t, posts.Create(ctx, p))

	got, err := posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	got.PollOptions[0].Votes = append(got.PollOptions[0].Votes, voter)

	again, err := posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.PollOptions[0].Votes)
}

func TestMemoryPostFind(t *testing.T) {
	ctx := context.Background()
	posts := NewMemoryStores().Posts
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	for _, p := range []*models.Post{
		{UserID: a, Title: "one", Visibility: models.VisibilityPublic},
		{UserID: b, Title: "two", Visibility: models.VisibilityPrivate},
		{UserID: a, Title: "three", Visibility: models.VisibilityPublic},
	} {
		require.NoError(t, posts.Create(ctx, p))
	}

	public, err := posts.Find(ctx, PostFilter{Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "three", public[0].Title)
	assert.Equal(t, "one", public[1].Title)

	byB, err := posts.Find(ctx, PostFilter{AuthorID: b})
	require.NoError(t, err)
	require.Len(t, byB, 1)
	assert.Equal(t, "two", byB[0].Title)
}

func TestMemoryFindByEmailOrPhone(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStores().Users
	require.NoError(t, users.Create(ctx, &models.User{Email: "a@test.test"}))
	require.NoError(t, users.Create(ctx, &models.User{Phone: "555"}))

	u, err := users.FindByEmailOrPhone(ctx, "", "555")
	require.NoError(t, err)
	assert.Equal(t, "555", u.Phone)

	_, err = users.FindByEmailOrPhone(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindByEmailOrPhone(ctx, "b@test.test", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConcurrentSavesOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStores().Users
	u := &models.User{Email: "a@test.test"}
	require.NoError(t, users.Create(ctx, u))

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		copies   = make([]*models.User, n)
		startErr error
	)
	for i := range copies {
		copies[i], startErr = users.FindByID(ctx, u.ID)
		require.NoError(t, startErr)
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(doc *models.User) {
			defer wg.Done()
			doc.Followers = append(doc.Followers, primitive.NewObjectID())
			if err := users.Save(ctx, doc); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(copies[i])
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryOTPAndPush(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStores()

	require.NoError(t, s.OTPs.Put(ctx, models.OTP{Email: "a@test.test", Code: "111111"}))
	require.NoError(t, s.OTPs.Put(ctx, models.OTP{Email: "a@test.test", Code: "222222"}))
	otp, err := s.OTPs.Get(ctx, "a@test.test")
	require.NoError(t, err)
	assert.Equal(t, "222222", otp.Code)
	require.NoError(t, s.OTPs.Delete(ctx, "a@test.test"))
	require.NoError(t, s.OTPs.Delete(ctx, "a@test.test"))
	_, err = s.OTPs.Get(ctx, "a@test.test")
	assert.ErrorIs(t, err, ErrNotFound)

	user := primitive.NewObjectID()
	require.NoError(t, s.PushSubs.Upsert(ctx, &models.PushSubscription{UserID: user, Endpoint: "https://push/1"}))
	require.NoError(t, s.PushSubs.Upsert(ctx, &models.PushSubscription{UserID: user, Endpoint: "https://push/2"}))
	sub, err := s.PushSubs.FindByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "https://push/2", sub.Endpoint)
}

func TestMemoryUsersKeepHandlesUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStores().Users

	require.NoError(t, users.Create(ctx, &models.User{Email: "a@example.com"}))
	phoneOnly := &models.User{Phone: "555"}
	require.NoError(t, users.Create(ctx, phoneOnly))
	// accounts without an email do not collide with each other
	require.NoError(t, users.Create(ctx, &models.User{Phone: "556"}))

	assert.ErrorIs(t, users.Create(ctx, &models.User{Email: "a@example.com"}), ErrDuplicate)
	assert.ErrorIs(t, users.Create(ctx, &models.User{Email: "b@example.com", Phone: "555"}), ErrDuplicate)

	stored, err := users.FindByID(ctx, phoneOnly.ID)
	require.NoError(t, err)
	stored.Email = "a@example.com"
	assert.ErrorIs(t, users.Save(ctx, stored), ErrDuplicate)
}

func TestMemoryConcurrentCreatesWithSameEmail(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStores().Users

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = users.Create(ctx, &models.User{Email: "same@example.com"})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestUserIndexesAreUniqueAndPartial(t *testing.T) {
	indexes := userIndexes()
	require.Len(t, indexes, 2)
	for i, field := range []string{"email", "phone"} {
		idx := indexes[i]
		assert.Equal(t, bson.D{{Key: field, Value: 1}}, idx.Keys)
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique)
		assert.Equal(t, bson.M{field: bson.M{"$type": "string"}}, idx.Options.PartialFilterExpression)
	}
}
