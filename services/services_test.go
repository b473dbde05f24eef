package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"learnerslogue/database"
	"learnerslogue/mailer"
	"learnerslogue/meeting"
	"learnerslogue/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) Broadcast(eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{eventType, payload})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type notification struct {
	UserID primitive.ObjectID
	Title  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyUser(userID primitive.ObjectID, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID, title})
}

func (n *fakeNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}

type fakeMailer struct {
	mu   sync.Mutex
	msgs []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return m.err
}

func (m *fakeMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.msgs...)
}

type fakeUploader struct {
	folders []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, r io.Reader, filename, folder string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	u.folders = append(u.folders, folder)
	return "https://cdn.example/" + folder + "/" + filename, nil
}

type fakeMeetings struct {
	calls int
	last  meeting.Request
	err   error
}

func (m *fakeMeetings) CreateMeeting(_ context.Context, req meeting.Request) (*meeting.Meeting, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &meeting.Meeting{ID: 7, JoinURL: "https://zoom.example/j/7", StartURL: "https://zoom.example/s/7"}, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	svc      *Services
	stores   *database.Stores
	realtime *fakeBroadcaster
	push     *fakeNotifier
	mail     *fakeMailer
	uploads  *fakeUploader
	meetings *fakeMeetings
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stores:   database.NewMemoryStores(),
		realtime: &fakeBroadcaster{},
		push:     &fakeNotifier{},
		mail:     &fakeMailer{},
		uploads:  &fakeUploader{},
		meetings: &fakeMeetings{},
		now:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(Deps{
		Stores:   f.stores,
		Mailer:   f.mail,
		Uploader: f.uploads,
		Meetings: f.meetings,
		Realtime: f.realtime,
		Push:     f.push,
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(t *testing.T, role models.Role, name string) *models.User {
	t.Helper()
	u := &models.User{
		Role:       role,
		FullName:   name,
		Email:      primitive.NewObjectID().Hex() + "@example.com",
		Milestones: []models.Milestone{},
		Following:  []primitive.ObjectID{},
		Followers:  []primitive.ObjectID{},
	}
	require.NoError(t, f.stores.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) reload(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := f.stores.Users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
