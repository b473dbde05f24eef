package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"learnerslogue/mailer"
	"learnerslogue/meeting"
	"learnerslogue/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultEventDuration = 60

// Events schedules video events hosted by schools.
type Events struct {
	deps Deps
}

type NewEvent struct {
	Title           string
	Type            string
	Description     string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	Duration        int
	Tags            []string
	Price           float64
	MaxParticipants int
}

// EventView is an event as seen by one viewer.
type EventView struct {
	*models.Event
	Host              *models.UserSummary `json:"host"`
	IsRegistered      bool                `json:"isRegistered"`
	RegistrationCount int                 `json:"registrationCount"`
}

func (ev *Events) Create(ctx context.Context, hostID primitive.ObjectID, in NewEvent) (*models.Event, error) {
	host, err := ev.school(ctx, hostID, "Only schools can create events.")
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("Title is required.")
	}
	eventType, err := models.ParseEventType(in.Type)
	if err != nil {
		return nil, validationError("Type must be one of webinar, competitions, live classes or study groups.")
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date))
	if err != nil {
		return nil, validationError("Date must be formatted as YYYY-MM-DD.")
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(in.Time))
	if err != nil {
		return nil, validationError("Time must be formatted as HH:MM.")
	}
	if in.Duration < 0 || in.MaxParticipants < 0 || in.Price < 0 {
		return nil, validationError("Duration, price and participant cap cannot be negative.")
	}
	duration := in.Duration
	if duration == 0 {
		duration = defaultEventDuration
	}
	start := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)

	if ev.deps.Meetings == nil {
		return nil, upstreamError("Video meetings are not configured", nil)
	}
	m, err := ev.deps.Meetings.CreateMeeting(ctx, meeting.Request{Topic: title, StartTime: start, Duration: duration})
	if err != nil {
		log.Printf("[CreateEvent] meeting for %q failed: %v", title, err)
		return nil, upstreamError("Failed to create video meeting", err)
	}

	e := &models.Event{
		Title:              title,
		Type:               eventType,
		Description:        in.Description,
		Date:               day,
		Time:               clock.Format("15:04"),
		Duration:           duration,
		Tags:               cleanTags(in.Tags),
		Price:              in.Price,
		MaxParticipants:    in.MaxParticipants,
		VideoCallStartLink: m.StartURL,
		VideoCallLink:      m.JoinURL,
		HostID:             host.ID,
		Registrations:      []models.Registration{},
	}
	if err := ev.deps.Stores.Events.Create(ctx, e); err != nil {
		return nil, err
	}

	if host.Email != "" {
		err := ev.deps.Mailer.Send(ctx, mailer.Message{
			To:      host.Email,
			Subject: "Your Zoom Event Created: " + title,
			HTML: fmt.Sprintf(`<h2>Your event has been created: %s</h2>
<p><strong>Date:</strong> %s at %s</p>
<p><strong>Start Meeting Link (for you):</strong> <a href="%s">%s</a></p>
<p>Please do not share this link with attendees.</p>`, html.EscapeString(title), in.Date, e.Time, html.EscapeString(m.StartURL), html.EscapeString(m.StartURL)),
		})
		if err != nil {
			log.Printf("[CreateEvent] event %s stored but host mail failed: %v", e.ID.Hex(), err)
			return nil, upstreamError("Event created but the host email could not be sent", err)
		}
	}
	return e, nil
}

// List returns every event, soonest first, marked for the viewer.
func (ev *Events) List(ctx context.Context, viewerID primitive.ObjectID) ([]EventView, error) {
	events, err := ev.deps.Stores.Events.Find(ctx, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	return ev.views(ctx, events, viewerID)
}

// Hosted returns the events a school hosts.
func (ev *Events) Hosted(ctx context.Context, hostID primitive.ObjectID) ([]EventView, error) {
	if _, err := ev.school(ctx, hostID, "Only schools have hosted events"); err != nil {
		return nil, err
	}
	events, err := ev.deps.Stores.Events.Find(ctx, hostID)
	if err != nil {
		return nil, err
	}
	return ev.views(ctx, events, hostID)
}

// Register adds the user unless the event is full. The join link is mailed
// after the registration is stored.
func (ev *Events) Register(ctx context.Context, userID, eventID primitive.ObjectID) (int, error) {
	u, err := ev.deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		return 0, notFound(err, ErrUserNotFound)
	}
	if u.Email == "" {
		return 0, validationError("User email not found.")
	}

	var e *models.Event
	err = retryOnConflict(ctx, ev.deps.SaveAttempts, func() error {
		cur, err := ev.deps.Stores.Events.FindByID(ctx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if cur.IsRegistered(userID) {
			return ErrAlreadyRegistered
		}
		if cur.Full() {
			return ErrEventFull
		}
		cur.Registrations = append(cur.Registrations, models.Registration{UserID: userID, RegisteredAt: ev.deps.Now().UTC()})
		if err := ev.deps.Stores.Events.Save(ctx, cur); err != nil {
			return err
		}
		e = cur
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = ev.deps.Mailer.Send(ctx, mailer.Message{
		To:      u.Email,
		Subject: "Meeting Link: " + e.Title,
		HTML: fmt.Sprintf(`<h2>You have successfully registered for: %s</h2>
<p><strong>When:</strong> %s at %s</p>
<p><strong>Link:</strong> <a href="%s">%s</a></p>
<p>See you there!</p>`, html.EscapeString(e.Title), e.Date.Format("2006-01-02"), e.Time, html.EscapeString(e.VideoCallLink), html.EscapeString(e.VideoCallLink)),
	})
	if err != nil {
		log.Printf("[RegisterEvent] %s registered for %s but mail failed: %v", userID.Hex(), eventID.Hex(), err)
		return 0, upstreamError("Registered, but the meeting link could not be emailed", err)
	}
	log.Printf("✅ Sent meeting link to %s", u.Email)
	return len(e.Registrations), nil
}

func (ev *Events) Unregister(ctx context.Context, userID, eventID primitive.ObjectID) (int, error) {
	var count int
	err := retryOnConflict(ctx, ev.deps.SaveAttempts, func() error {
		e, err := ev.deps.Stores.Events.FindByID(ctx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		kept := make([]models.Registration, 0, len(e.Registrations))
		for _, r := range e.Registrations {
			if r.UserID != userID {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(e.Registrations) {
			return ErrNotRegistered
		}
		e.Registrations = kept
		if err := ev.deps.Stores.Events.Save(ctx, e); err != nil {
			return err
		}
		count = len(kept)
		return nil
	})
	return count, err
}

func (ev *Events) Delete(ctx context.Context, userID, eventID primitive.ObjectID) error {
	if _, err := ev.school(ctx, userID, "Only schools can delete events."); err != nil {
		return err
	}
	e, err := ev.deps.Stores.Events.FindByID(ctx, eventID)
	if err != nil {
		return notFound(err, ErrEventNotFound)
	}
	if e.HostID != userID {
		return forbidden("Only the host can delete this event.")
	}
	return notFound(ev.deps.Stores.Events.Delete(ctx, eventID), ErrEventNotFound)
}

func (ev *Events) school(ctx context.Context, id primitive.ObjectID, msg string) (*models.User, error) {
	u, err := ev.deps.Stores.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if u.Role != models.RoleSchool {
		return nil, forbidden(msg)
	}
	return u, nil
}

func (ev *Events) views(ctx context.Context, events []models.Event, viewerID primitive.ObjectID) ([]EventView, error) {
	ids := make([]primitive.ObjectID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.HostID)
	}
	cards, err := summaries(ctx, ev.deps.Stores.Users, ids, contactCard)
	if err != nil {
		return nil, err
	}
	out := make([]EventView, len(events))
	for i := range events {
		e := &events[i]
		if e.HostID != viewerID {
			e.VideoCallStartLink = ""
		}
		out[i] = EventView{
			Event:             e,
			Host:              summaryFor(cards, e.HostID),
			IsRegistered:      e.IsRegistered(viewerID),
			RegistrationCount: len(e.Registrations),
		}
	}
	return out, nil
}
