package ledger

import "context"

// Publisher fans appended entries out to downstream consumers (compliance
// pipelines, notification workers). The store is the source of truth; a
// publish failure is logged and never affects the append outcome.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
	Close()
}

// NopPublisher is used when no announce stream is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Entry) error { return nil }
func (NopPublisher) Close()                               {}
