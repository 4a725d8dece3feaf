package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
	"github.com/giygas/medcompanion-api/metrics"
)

// Dispatch settings
const (
	DefaultSendTimeout   = 10 * time.Second
	DefaultMaxConcurrent = 8
)

// ErrDispatcherClosed is returned by Dispatch after Close
var ErrDispatcherClosed = errors.New("email dispatcher is closed")

// Dispatcher implements interfaces.AlertDispatcher. Sends run in the
// background; delivery failures are logged and counted, never returned.
type Dispatcher struct {
	sender      interfaces.EmailSender
	from        string
	sendTimeout time.Duration
	slots       chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ interfaces.AlertDispatcher = (*Dispatcher)(nil)

func NewDispatcher(sender interfaces.EmailSender, from string) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		from:        from,
		sendTimeout: DefaultSendTimeout,
		slots:       make(chan struct{}, DefaultMaxConcurrent),
	}
}

// Dispatch renders alert and queues it for delivery. It only fails when the
// alert cannot be rendered or the dispatcher is shutting down.
func (d *Dispatcher) Dispatch(alert entities.CaregiverAlert) error {
	msg, err := RenderAlert(d.from, alert)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.send(msg, alert)
	return nil
}

func (d *Dispatcher) send(msg entities.EmailMessage, alert entities.CaregiverAlert) {
	defer d.wg.Done()

	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	provider := d.sender.Provider()
	if err := d.sender.Send(ctx, msg); err != nil {
		metrics.EmailDispatchTotal.WithLabelValues(provider, metrics.OutcomeError).Inc()
		logging.Error("Caregiver alert delivery failed",
			"provider", provider,
			"status", alert.Status,
			"medication", alert.MedicationName,
			"error", err,
		)
		return
	}

	metrics.EmailDispatchTotal.WithLabelValues(provider, metrics.OutcomeOK).Inc()
	logging.Info("Caregiver alert sent", "provider", provider, "status", alert.Status)
}

// Close stops accepting alerts and waits for in-flight sends or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
