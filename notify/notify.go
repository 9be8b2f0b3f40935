// Package notify delivers workflow notifications (request submitted,
// approved, rejected, cancelled). Delivery is fire-and-forget: a failed
// notification is logged and never fails the operation that caused it.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Event string

const (
	EventRequestSubmitted Event = "request_submitted"
	EventRequestApproved  Event = "request_approved"
	EventRequestRejected  Event = "request_rejected"
	EventRequestCancelled Event = "request_cancelled"
)

// Message is one notification to one or more recipients.
type Message struct {
	Event          Event
	OrganizationID string
	SubjectID      string
	To             []mail.Address
	Subject        string
	Body           string
}

func (m Message) HasRecipients() bool { return len(m.To) > 0 }

func (m Message) recipients() string {
	addrs := make([]string, len(m.To))
	for i, a := range m.To {
		addrs[i] = a.Address
	}
	return strings.Join(addrs, ",")
}

// Dispatcher delivers messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// =============================================================================
// LOG DISPATCHER
// =============================================================================

// LogDispatcher writes messages to the log instead of sending them.
type LogDispatcher struct {
	Logger log.FieldLogger
}

func (d LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger.WithFields(log.Fields{
		"component":    "notify",
		"event":        msg.Event,
		"organization": msg.OrganizationID,
		"subject_id":   msg.SubjectID,
		"to":           msg.recipients(),
	}).Info(msg.Subject)
	return nil
}

// =============================================================================
// ASYNC
// =============================================================================

// Async dispatches each message on its own goroutine. Errors are logged.
// Call Wait before shutdown to let in-flight deliveries finish.
type Async struct {
	next   Dispatcher
	logger log.FieldLogger
	wg     sync.WaitGroup
}

func NewAsync(next Dispatcher, logger log.FieldLogger) *Async {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Async{next: next, logger: logger}
}

// Dispatch never blocks and always returns nil. The message is delivered
// with a context detached from ctx's cancellation.
func (a *Async) Dispatch(ctx context.Context, msg Message) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.WithField("event", msg.Event).Errorf("notify: dispatch panicked: %v", r)
			}
		}()
		if err := a.next.Dispatch(ctx, msg); err != nil {
			a.logger.WithError(err).WithFields(log.Fields{
				"event": msg.Event,
				"to":    msg.recipients(),
			}).Warn("notify: delivery failed")
		}
	}()
	return nil
}

// Wait blocks until every dispatched message has been handled.
func (a *Async) Wait() { a.wg.Wait() }

// =============================================================================
// RECORDER
// =============================================================================

// Recorder keeps every dispatched message in memory. Used by tests and
// the demo server.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Dispatch(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Multi fans a message out to several dispatchers and returns the first error.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, msg Message) error {
	var first error
	for _, d := range m {
		if err := d.Dispatch(ctx, msg); err != nil && first == nil {
			first = fmt.Errorf("notify: %w", err)
		}
	}
	return first
}
