// Package mocktransport provides a scripted Transport for tests: responses
// are queued per method and every call is recorded so tests can assert on
// exactly which RPCs a layer issued.
package mocktransport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethlayer/ethlayer/core/middleware"
)

var _ middleware.Transport = (*Transport)(nil)

// Call records one request issued through the transport.
type Call struct {
	Method string
	Params []any
}

type scripted struct {
	value any
	err   error
}

// Transport replays scripted responses in FIFO order per method. Safe for
// concurrent use.
type Transport struct {
	mu        sync.Mutex
	responses map[string][]scripted
	calls     []Call
}

// New creates an empty scripted transport. A request with no scripted
// response fails.
func New() *Transport {
	return &Transport{responses: make(map[string][]scripted)}
}

// Respond queues a successful response for method. The value is serialized
// and deserialized into the caller's result, mirroring a wire round trip.
func (t *Transport) Respond(method string, value any) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[method] = append(t.responses[method], scripted{value: value})
	return t
}

// Fail queues an error response for method.
func (t *Transport) Fail(method string, err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[method] = append(t.responses[method], scripted{err: err})
	return t
}

// Request pops the next scripted response for method.
func (t *Transport) Request(ctx context.Context, result any, method string, params ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	t.calls = append(t.calls, Call{Method: method, Params: params})
	queue := t.responses[method]
	if len(queue) == 0 {
		t.mu.Unlock()
		return fmt.Errorf("mocktransport: unexpected request %q", method)
	}
	next := queue[0]
	t.responses[method] = queue[1:]
	t.mu.Unlock()

	if next.err != nil {
		return next.err
	}
	raw, err := json.Marshal(next.value)
	if err != nil {
		return fmt.Errorf("mocktransport: cannot serialize scripted response for %q: %w", method, err)
	}
	return json.Unmarshal(raw, result)
}

// Close is a no-op.
func (t *Transport) Close() {}

// Calls returns every recorded request in order.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallCount returns how many times method was requested.
func (t *Transport) CallCount(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
