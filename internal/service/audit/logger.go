package audit

import (
	"context"
	"sync"
	"time"
)

// AuditLogger records entries in the background so a slow audit store never
// delays a front desk response.
type AuditLogger struct {
	service *Service
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAuditLogger(service *Service) *AuditLogger {
	return &AuditLogger{
		service: service,
		timeout: 5 * time.Second,
	}
}

// Record implements Recorder.
func (l *AuditLogger) Record(ctx context.Context, e Entry) {
	actor, _ := ActorFrom(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		bg, cancel := context.WithTimeout(WithActor(context.Background(), actor), l.timeout)
		defer cancel()
		if err := l.service.Log(bg, e); err != nil {
			l.service.log.Error(err, "Failed to write audit entry", "action", e.Action, "entity_type", e.EntityType)
		}
	}()
}

// LogSync records an entry and returns the store error.
func (l *AuditLogger) LogSync(ctx context.Context, e Entry) error {
	return l.service.Log(ctx, e)
}

// Flush waits for background writes, e.g. on shutdown.
func (l *AuditLogger) Flush() {
	l.wg.Wait()
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
