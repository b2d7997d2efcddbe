package client

import (
	"fmt"
	"io"
	"sync"
)

// Notifier receives user-facing outcome messages. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// WriterNotifier prints notifications as lines to Out and Err.
type WriterNotifier struct {
	mu  sync.Mutex
	Out io.Writer
	Err io.Writer
}

func (n *WriterNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.Out, msg)
}

func (n *WriterNotifier) Failure(msg string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		fmt.Fprintf(n.Err, "%s: %v\n", msg, err)
		return
	}
	fmt.Fprintln(n.Err, msg)
}

type nopNotifier struct{}

func (nopNotifier) Success(string)        {}
func (nopNotifier) Failure(string, error) {}
