// Package notify carries changed paths from the watcher to whoever acts on them.
package notify

// Sink accepts one path at a time. Push must not block indefinitely.
type Sink interface {
	Push(path string)
}

var _ Sink = (*Queue[string])(nil)
