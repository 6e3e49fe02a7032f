package metrics

import "time"

// NoopSink implements Sink with no-op methods.
// Used when metrics are disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (*NoopSink) PlanCompleted(time.Duration, int, int, error) {}
func (*NoopSink) LifecycleEvent(string, string)                {}
func (*NoopSink) NotificationSent(bool)                        {}
