// Package recorder hands completed navigations and their alerts to the log
// store through a single background writer.
package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"safebrowse/internal/alert"
	"safebrowse/internal/models"
	"safebrowse/internal/notify"
	"safebrowse/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize  = 256
	DefaultAttempts   = 3
	DefaultRetryPause = 200 * time.Millisecond
	appendTimeout     = 5 * time.Second
	notifyTimeout     = 10 * time.Second
)

// SettingsSource yields the alert settings in force right now.
type SettingsSource interface {
	Snapshot() models.AlertSettings
}

// Stats counts what happened to emitted records.
type Stats struct {
	Appended int64 `json:"appended"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan repository.Record, n)
		}
	}
}

// WithRetry sets how many times an append is attempted and the pause between attempts.
func WithRetry(attempts int, pause time.Duration) Option {
	return func(r *Recorder) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.pause = pause
	}
}

func WithPolicy(p alert.Policy) Option {
	return func(r *Recorder) { r.policy = p }
}

// Recorder implements the gate's Emitter. Emit never blocks: records are
// queued and appended by one goroutine, and a full queue drops the record.
type Recorder struct {
	store    repository.Store
	settings SettingsSource
	notifier notify.Notifier
	policy   alert.Policy
	logger   *zap.Logger

	attempts int
	pause    time.Duration
	queue    chan repository.Record

	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
	done   chan struct{}

	appended atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// New starts the writer goroutine. Call Close to drain and stop it.
func New(store repository.Store, settings SettingsSource, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:    store,
		settings: settings,
		notifier: notifier,
		logger:   logger,
		attempts: DefaultAttempts,
		pause:    DefaultRetryPause,
		queue:    make(chan repository.Record, DefaultQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = notify.Nop{}
	}
	go r.writerLoop()
	return r
}

// Emit queues the activity, then evaluates the alert policy against the
// current settings snapshot and queues whatever it raises.
func (r *Recorder) Emit(activity models.Activity) {
	r.enqueue(repository.ActivityRecord(activity))

	for _, log := range r.policy.Evaluate(activity, r.settings.Snapshot()) {
		r.enqueue(repository.AlertRecord(log))
	}
}

// RaiseTest queues the synthetic test alert and returns it.
func (r *Recorder) RaiseTest() models.AlertLog {
	log := r.policy.Test(r.settings.Snapshot())
	r.enqueue(repository.AlertRecord(log))
	return log
}

func (r *Recorder) enqueue(rec repository.Record) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		r.logger.Warn("Recorder closed, dropping record",
			zap.String("collection", string(rec.Collection)),
			zap.String("record_id", rec.ID()))
		return
	}

	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Error("Recorder queue full, dropping record",
			zap.String("collection", string(rec.Collection)),
			zap.String("record_id", rec.ID()),
			zap.Int("queue_size", cap(r.queue)))
	}
}

// Stats returns the running counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Appended: r.appended.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
	}
}

// Close stops accepting records, drains the queue and waits for the writer.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.stop)
	}
	r.mu.Unlock()

	<-r.done
	return nil
}

func (r *Recorder) writerLoop() {
	defer close(r.done)

	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-r.stop:
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec repository.Record) {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		err = r.store.Append(ctx, rec)
		cancel()
		if err == nil {
			break
		}

		r.logger.Warn("Append failed",
			zap.String("collection", string(rec.Collection)),
			zap.String("record_id", rec.ID()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < r.attempts && r.pause > 0 {
			time.Sleep(r.pause)
		}
	}

	if err != nil {
		r.failed.Add(1)
		r.logger.Error("Giving up on record",
			zap.String("collection", string(rec.Collection)),
			zap.String("record_id", rec.ID()),
			zap.Error(err))
		return
	}
	r.appended.Add(1)

	if rec.Alert != nil && rec.Alert.Method == models.MethodSMS {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := r.notifier.Notify(ctx, *rec.Alert); err != nil {
			r.logger.Warn("Alert delivery failed", zap.String("alert_id", rec.Alert.ID), zap.Error(err))
		}
		cancel()
	}
}
