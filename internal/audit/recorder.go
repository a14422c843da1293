package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-audio/internal/control"
)

// defaultQueueSize is the buffer size of the recorder channel. Entries
// beyond this are dropped so a slow disk never holds up a command.
const defaultQueueSize = 256

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder is a control.Observer that writes every outcome to the command
// log asynchronously. Writes are serialised by a single Run loop.
type Recorder struct {
	repo   Repository
	queue  chan *Entry
	logger Logger
}

var _ control.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to repo. A non-positive size
// uses the default queue size.
func NewRecorder(repo Repository, size int) *Recorder {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Recorder{
		repo:   repo,
		queue:  make(chan *Entry, size),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	r.logger = l
}

// Observe enqueues one entry per outcome. It never blocks.
func (r *Recorder) Observe(_ context.Context, ev control.Event) {
	requestID := ev.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	for _, o := range ev.Outcomes {
		e := &Entry{
			RequestID: requestID,
			Action:    string(o.Action),
			Host:      o.Host,
			Device:    o.Name,
			Status:    string(o.Status),
			Previous:  o.Previous,
			Volume:    o.Volume,
			Error:     o.Error,
			Source:    ev.Source,
			CreatedAt: ev.Timestamp.UTC(),
		}
		select {
		case r.queue <- e:
		default:
			r.logger.Warn("command log queue full, dropping entry",
				"action", e.Action, "host", e.Host)
		}
	}
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.queue:
			r.write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.queue:
					r.write(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(e *Entry) {
	// The request that produced e may be long gone.
	if err := r.repo.Create(context.Background(), e); err != nil {
		r.logger.Error("command log write failed",
			"action", e.Action, "host", e.Host, "error", err)
	}
}
