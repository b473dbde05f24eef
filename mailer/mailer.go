package mailer

import (
	"context"
	"log"
	"time"
)

// Message is a single outgoing email. At least one of Text and HTML should be set.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// deliverTimeout bounds fire-and-forget sends.
const deliverTimeout = 30 * time.Second

// Deliver sends msg in the background and only logs a failure.
func Deliver(m Mailer, msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		if err := m.Send(ctx, msg); err != nil {
			log.Printf("[Mailer] sending %q to %s: %v", msg.Subject, msg.To, err)
		}
	}()
}
