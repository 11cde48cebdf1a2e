package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nusely/CFLSMS/server/logger"
	"github.com/nusely/CFLSMS/server/sms"
)

const (
	// Number of sends kept in flight at once. Batch N+1 never starts
	// until every send in batch N has resolved.
	DefaultBatchSize = 5

	// Pause between batches, a courtesy to the provider's rate limits.
	DefaultBatchDelay = 300 * time.Millisecond
)

var (
	ErrNoRecipients = errors.New("at least one valid recipient is required")

	logg = logger.NewLogger()
)

// Contact carries the fields personalization reads. Contacts are matched
// to recipients by phone digits.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
}

// SendError records one recipient's failure within a dispatch run.
type SendError struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// Outcome aggregates a full dispatch run. Every recipient in the input is
// attempted exactly once and accounted for here.
type Outcome struct {
	Scheduled int         `json:"scheduled,omitempty"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []SendError `json:"errors,omitempty"`
}

// Options select the dispatch mode and supply personalization data.
type Options struct {
	// ScheduledAt defers delivery when set strictly in the future;
	// otherwise the run sends immediately.
	ScheduledAt time.Time

	// Contacts used for placeholder substitution. A recipient with no
	// matching contact is sent the template as-is.
	Contacts []Contact

	// OnProgress is invoked once per completed send (success or failure)
	// with the running count and the fixed total. Calls arrive in counter
	// order, serialized under the engine's lock, so observers must be fast.
	OnProgress func(done, total int)
}

// ScheduledWriter inserts one pending scheduled-message row. It never
// blocks on provider delivery.
type ScheduledWriter interface {
	CreateScheduled(ctx context.Context, recipient, message string, scheduledAt time.Time, firstName, lastName string) error
}

// HistoryWriter records the submission outcome of a single send.
type HistoryWriter interface {
	RecordSend(ctx context.Context, recipient, message string, receipt *sms.SendReceipt, sendErr error) error
}

// Engine sends or schedules a message for a list of recipients.
type Engine struct {
	gateway    sms.Gateway
	scheduled  ScheduledWriter
	history    HistoryWriter
	batchSize  int
	batchDelay time.Duration
}

func NewEngine(gateway sms.Gateway, scheduled ScheduledWriter, history HistoryWriter) *Engine {
	return &Engine{
		gateway:    gateway,
		scheduled:  scheduled,
		history:    history,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
	}
}

// Dispatch runs one broadcast. Recipients must already be normalized E.164
// digits, deduplicated by their source. Individual failures never abort
// the run; the outcome reports them.
func (engine *Engine) Dispatch(ctx context.Context, recipients []string, message string, opts Options) (*Outcome, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	if !opts.ScheduledAt.IsZero() && opts.ScheduledAt.After(time.Now()) {
		return engine.scheduleAll(ctx, recipients, message, opts), nil
	}

	return engine.sendAll(ctx, recipients, message, opts), nil
}

// scheduleAll inserts one pending row per recipient, sequentially. The
// contact's names are stored on the row so the sweep can personalize later.
func (engine *Engine) scheduleAll(ctx context.Context, recipients []string, message string, opts Options) *Outcome {
	outcome := &Outcome{}

	for _, recipient := range recipients {
		firstName, lastName, _ := lookupNames(opts.Contacts, recipient)

		err := engine.scheduled.CreateScheduled(ctx, recipient, message, opts.ScheduledAt, firstName, lastName)
		if err != nil {
			logg.Errorf("failed to schedule sms for %v: %v", recipient, err)
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, SendError{Recipient: recipient, Error: err.Error()})
			continue
		}
		outcome.Scheduled++
	}

	return outcome
}

// sendAll partitions recipients into fixed-size batches, sends each batch
// concurrently and waits for it to finish before starting the next.
func (engine *Engine) sendAll(ctx context.Context, recipients []string, message string, opts Options) *Outcome {
	total := len(recipients)
	outcome := &Outcome{}

	var mu sync.Mutex
	done := 0

	for start := 0; start < total; start += engine.batchSize {
		end := start + engine.batchSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for _, recipient := range recipients[start:end] {
			wg.Add(1)
			go func(recipient string) {
				defer wg.Done()

				err := engine.sendOne(ctx, recipient, message, opts.Contacts)

				mu.Lock()
				if err != nil {
					outcome.Failed++
					outcome.Errors = append(outcome.Errors, SendError{Recipient: recipient, Error: err.Error()})
				} else {
					outcome.Succeeded++
				}
				done++
				// Held under the lock so observers see done values in order
				if opts.OnProgress != nil {
					opts.OnProgress(done, total)
				}
				mu.Unlock()
			}(recipient)
		}
		wg.Wait()

		if end < total {
			time.Sleep(engine.batchDelay)
		}
	}

	return outcome
}

func (engine *Engine) sendOne(ctx context.Context, recipient, message string, contacts []Contact) error {
	// An unmatched recipient gets the raw template, tokens untouched.
	personalized := message
	if firstName, lastName, matched := lookupNames(contacts, recipient); matched {
		personalized = Personalize(message, firstName, lastName)
	}

	receipt, sendErr := engine.gateway.Send(ctx, recipient, personalized)
	if sendErr != nil {
		logg.Errorf("failed to send sms to %v: %v", recipient, sendErr)
	}

	// A history insert failure after a successful send is tolerated and
	// surfaced as a warning, never rolled back.
	if err := engine.history.RecordSend(ctx, recipient, personalized, receipt, sendErr); err != nil {
		logg.Warnf("sms to %v sent but history insert failed: %v", recipient, err)
	}

	return sendErr
}

func lookupNames(contacts []Contact, recipient string) (string, string, bool) {
	for _, contact := range contacts {
		if contact.Phone == recipient {
			return contact.FirstName, contact.LastName, true
		}
	}

	return "", "", false
}
