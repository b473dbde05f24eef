package mailer

import (
	"context"
	"log"
	"sync"
)

// consoleKeep bounds how many recent messages a Console remembers.
const consoleKeep = 100

// Console writes messages to a logger instead of sending them. It keeps a
// copy of the most recent messages for inspection.
type Console struct {
	logger *log.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*Console)(nil)

// NewConsole logs through the standard logger when l is nil.
func NewConsole(l *log.Logger) *Console {
	if l == nil {
		l = log.Default()
	}
	return &Console{logger: l}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	c.logger.Printf("📧 To: %s | Subject: %s\n%s%s", msg.To, msg.Subject, msg.Text, msg.HTML)
	c.mu.Lock()
	if len(c.sent) == consoleKeep {
		copy(c.sent, c.sent[1:])
		c.sent = c.sent[:consoleKeep-1]
	}
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

// Sent returns a copy of the most recent messages, oldest first.
func (c *Console) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}
