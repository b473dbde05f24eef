package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParsePostType(t *testing.T) {
	tests := []struct {
		in      string
		want    PostType
		wantErr bool
	}{
		{in: "", want: PostNormal},
		{in: "poll", want: PostPoll},
		{in: " Question ", want: PostQuestion},
		{in: "homework help", want: PostHomeworkHelp},
		{in: "homework-help", want: PostHomeworkHelp},
		{in: "post", wantErr: true},
		{in: "meme", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePostType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnums(t *testing.T) {
	r, err := ParseRole("School")
	require.NoError(t, err)
	assert.Equal(t, RoleSchool, r)
	_, err = ParseRole("admin")
	assert.Error(t, err)

	et, err := ParseEventType("live-classes")
	require.NoError(t, err)
	assert.Equal(t, EventLiveClasses, et)
	_, err = ParseEventType("party")
	assert.Error(t, err)

	jt, err := ParseJobType("")
	require.NoError(t, err)
	assert.Equal(t, JobInternship, jt)

	v, err := ParseVisibility("")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, v)
	_, err = ParseVisibility("friends")
	assert.Error(t, err)
}

func TestPostTallyAndHasVoted(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	p := Post{PollOptions: []PollOption{
		{Option: "Red"},
		{Option: "Green", Votes: []primitive.ObjectID{u1, u2}},
		{Option: "Blue"},
	}}

	assert.True(t, p.HasVoted(u1))
	assert.False(t, p.HasVoted(primitive.NewObjectID()))
	assert.Equal(t, []TallyEntry{{"Red", 0}, {"Green", 2}, {"Blue", 0}}, p.Tally())
}

func TestPollExpired(t *testing.T) {
	now := time.Now()
	p := Post{}
	assert.False(t, p.PollExpired(now))

	past := now.Add(-time.Minute)
	p.PollExpiresAt = &past
	assert.True(t, p.PollExpired(now))

	future := now.Add(time.Minute)
	p.PollExpiresAt = &future
	assert.False(t, p.PollExpired(now))
}

func TestRemoveID(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	ids := []primitive.ObjectID{a, b}

	out, removed := RemoveID(ids, a)
	assert.True(t, removed)
	assert.Equal(t, []primitive.ObjectID{b}, out)
	assert.Equal(t, []primitive.ObjectID{a, b}, ids, "input must not be modified")

	_, removed = RemoveID(out, a)
	assert.False(t, removed)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.May, d.Month())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}
