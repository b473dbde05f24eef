package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"learnerslogue/database"
	"learnerslogue/models"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sendTimeout = 5 * time.Second

type Keys struct {
	Public  string
	Private string
	// Subject is a mailto: or https: contact for the push service.
	Subject string
}

// Service stores browser subscriptions and sends VAPID web push messages.
type Service struct {
	subs database.PushSubscriptionStore
	keys Keys

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient webpush.HTTPClient
}

func NewService(subs database.PushSubscriptionStore, keys Keys) *Service {
	if keys.Subject == "" {
		keys.Subject = "mailto:admin@learnerslogue.local"
	}
	return &Service{subs: subs, keys: keys}
}

func (s *Service) PublicKey() string { return s.keys.Public }

func (s *Service) Enabled() bool { return s.keys.Public != "" && s.keys.Private != "" }

// Subscribe replaces the user's push endpoint.
func (s *Service) Subscribe(ctx context.Context, userID primitive.ObjectID, endpoint, p256dh, auth string) error {
	if endpoint == "" || p256dh == "" || auth == "" {
		return errors.New("push: endpoint and keys are required")
	}
	return s.subs.Upsert(ctx, &models.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
}

// NotifyUser sends in the background. Failures are logged.
func (s *Service) NotifyUser(userID primitive.ObjectID, title, body string) {
	if !s.Enabled() {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Push] panic sending to %s: %v", userID.Hex(), r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := s.Send(ctx, userID, title, body); err != nil {
			log.Printf("[Push] %s: %v", userID.Hex(), err)
		}
	}()
}

// ErrNoSubscription is returned by Send when the user never subscribed.
var ErrNoSubscription = errors.New("push: no subscription")

// Send delivers one notification and drops the subscription when the push
// service reports it gone.
func (s *Service) Send(ctx context.Context, userID primitive.ObjectID, title, body string) error {
	sub, err := s.subs.FindByUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNoSubscription
	}
	if err != nil {
		return err
	}

	if len(body) > 100 {
		body = body[:100] + "..."
	}
	payload, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"data":  map[string]interface{}{"timestamp": time.Now().Unix()},
	})
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.HTTPClient,
		Subscriber:      strings.TrimPrefix(s.keys.Subject, "mailto:"),
		VAPIDPublicKey:  s.keys.Public,
		VAPIDPrivateKey: s.keys.Private,
		TTL:             30,
	})
	if err != nil {
		return fmt.Errorf("push: send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("[Push] subscription expired for user %s, deleting", userID.Hex())
		if err := s.subs.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("push: delete expired subscription: %w", err)
		}
		return nil
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("push: push service returned %d", resp.StatusCode)
	}
	return nil
}
