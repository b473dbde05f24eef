package services

import (
	"context"
	"io"
	"time"

	"learnerslogue/database"
	"learnerslogue/mailer"
	"learnerslogue/meeting"
	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster fans feed activity out to connected realtime clients.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// Notifier delivers a push notification to one user. Implementations must
// not block the caller.
type Notifier interface {
	NotifyUser(userID primitive.ObjectID, title, body string)
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename, folder string) (string, error)
}

// MeetingScheduler books a video meeting with the provider.
type MeetingScheduler interface {
	CreateMeeting(ctx context.Context, req meeting.Request) (*meeting.Meeting, error)
}

type Deps struct {
	Stores   *database.Stores
	Mailer   mailer.Mailer
	Uploader Uploader
	Meetings MeetingScheduler
	Realtime Broadcaster
	Push     Notifier

	// Now defaults to time.Now.
	Now func() time.Time
	// SaveAttempts bounds read-modify-write retries, default 10.
	SaveAttempts int
}

type Services struct {
	Follow     *FollowGraph
	Polls      *PollEngine
	Feed       *Feed
	Accounts   *Accounts
	Milestones *Milestones
	Events     *Events
	Jobs       *Jobs
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.SaveAttempts <= 0 {
		d.SaveAttempts = defaultSaveAttempts
	}
	if d.Realtime == nil {
		d.Realtime = nopBroadcaster{}
	}
	if d.Push == nil {
		d.Push = nopNotifier{}
	}
	if d.Mailer == nil {
		d.Mailer = mailer.NewConsole(nil)
	}

	return &Services{
		Follow:     &FollowGraph{deps: d},
		Polls:      &PollEngine{deps: d},
		Feed:       &Feed{deps: d},
		Accounts:   &Accounts{deps: d},
		Milestones: &Milestones{deps: d},
		Events:     &Events{deps: d},
		Jobs:       &Jobs{deps: d},
	}
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, interface{}) {}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(primitive.ObjectID, string, string) {}

// summaries loads the public card of each referenced account. Accounts that
// no longer exist are skipped.
func summaries(ctx context.Context, users database.UserStore, ids []primitive.ObjectID, card func(*models.User) models.UserSummary) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = card(&found[i])
	}
	return out, nil
}

// socialCard is shown in follower lists.
func socialCard(u *models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
}

// authorCard is shown on feed posts.
func authorCard(u *models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic, School: u.School}
}

// contactCard is shown on comments and event hosts.
func contactCard(u *models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// summaryFor returns the loaded card or a placeholder for a deleted account.
func summaryFor(m map[primitive.ObjectID]models.UserSummary, id primitive.ObjectID) *models.UserSummary {
	if s, ok := m[id]; ok {
		return &s
	}
	return &models.UserSummary{ID: id, FullName: "Unknown User"}
}
