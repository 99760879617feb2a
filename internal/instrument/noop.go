package instrument

import "context"

// NoopInstrumenter discards all spans. Used when instrumentation is disabled
// and for one-shot invocations outside the HTTP server.
type NoopInstrumenter struct{}

func (n *NoopInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

func (n *NoopInstrumenter) EmitBusinessEvent(ctx context.Context, action, collection, documentID string, metadata map[string]any) {
}

// NoopSpan discards all data.
type NoopSpan struct{}

func (n *NoopSpan) End()                                      {}
func (n *NoopSpan) SetStatus(status string)                   {}
func (n *NoopSpan) SetMetadata(key string, value any)         {}
func (n *NoopSpan) SetDocument(collection, documentID string) {}
