package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChannel fails a fixed number of times before succeeding, or always
// fails with a fixed error.
type scriptedChannel struct {
	kind     Kind
	failures int
	err      error
	calls    int
	targets  []string
}

func (c *scriptedChannel) Kind() Kind { return c.kind }

func (c *scriptedChannel) Send(ctx context.Context, target string, msg Message) error {
	c.calls++
	c.targets = append(c.targets, target)
	if c.err != nil {
		return c.err
	}
	if c.calls <= c.failures {
		return fmt.Errorf("provider timeout on call %d", c.calls)
	}
	return nil
}

func fastOpts(extra ...Option) []Option {
	opts := []Option{WithBackoffBase(time.Millisecond), WithPerAttemptTimeout(time.Second)}
	return append(opts, extra...)
}

func TestDispatchFirstAttemptSucceeds(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS}
	d := NewDispatcher([]Channel{primary}, fastOpts()...)

	receipt, err := d.Dispatch(context.Background(), Request{
		Primary:       KindSMS,
		PrimaryTarget: "+33612345678",
		Message:       Message{Body: "code inside"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindSMS, receipt.DeliveredVia)
	assert.Equal(t, 1, primary.calls)
	assert.Empty(t, receipt.Attempts)
}

func TestDispatchRetriesTransportFailures(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS, failures: 2}
	d := NewDispatcher([]Channel{primary}, fastOpts()...)

	receipt, err := d.Dispatch(context.Background(), Request{
		Primary:       KindSMS,
		PrimaryTarget: "+33612345678",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, primary.calls)
	assert.Len(t, receipt.Attempts, 2, "failed attempts are recorded even on eventual success")
}

func TestDispatchFallsBackAfterPrimaryExhausted(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS, err: errors.New("gateway down")}
	fallback := &scriptedChannel{kind: KindEmail}
	d := NewDispatcher([]Channel{primary, fallback}, fastOpts()...)

	receipt, err := d.Dispatch(context.Background(), Request{
		Primary:        KindSMS,
		PrimaryTarget:  "+33612345678",
		Fallback:       KindEmail,
		FallbackTarget: "holder@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, KindEmail, receipt.DeliveredVia)
	assert.Equal(t, 3, primary.calls)
	assert.Equal(t, 1, fallback.calls, "fallback gets exactly one attempt")
	assert.Equal(t, []string{"holder@example.com"}, fallback.targets)
}

func TestDispatchInvalidTargetStopsRetries(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS, err: fmt.Errorf("%w: malformed number", ErrInvalidTarget)}
	fallback := &scriptedChannel{kind: KindEmail}
	d := NewDispatcher([]Channel{primary, fallback}, fastOpts()...)

	receipt, err := d.Dispatch(context.Background(), Request{
		Primary:        KindSMS,
		PrimaryTarget:  "nonsense",
		Fallback:       KindEmail,
		FallbackTarget: "holder@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "business rejections are never retried")
	assert.Equal(t, KindEmail, receipt.DeliveredVia)
}

func TestDispatchExhaustedReportsOrderedReasons(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS, err: errors.New("gateway down")}
	fallback := &scriptedChannel{kind: KindEmail, err: errors.New("smtp refused")}
	d := NewDispatcher([]Channel{primary, fallback}, fastOpts(WithMaxAttempts(2))...)

	_, err := d.Dispatch(context.Background(), Request{
		Primary:        KindSMS,
		PrimaryTarget:  "+33612345678",
		Fallback:       KindEmail,
		FallbackTarget: "holder@example.com",
	})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 3)
	assert.Equal(t, KindSMS, exhausted.Attempts[0].Channel)
	assert.Equal(t, KindSMS, exhausted.Attempts[1].Channel)
	assert.Equal(t, KindEmail, exhausted.Attempts[2].Channel)
	assert.Contains(t, err.Error(), "gateway down")
	assert.Contains(t, err.Error(), "smtp refused")
}

func TestDispatchUnknownChannel(t *testing.T) {
	d := NewDispatcher(nil, fastOpts()...)

	_, err := d.Dispatch(context.Background(), Request{
		Primary:       KindSMS,
		PrimaryTarget: "+33612345678",
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 1)
	assert.Equal(t, "channel not configured", exhausted.Attempts[0].Reason)
}

func TestDispatchHonorsContextCancellation(t *testing.T) {
	primary := &scriptedChannel{kind: KindSMS, err: errors.New("gateway down")}
	d := NewDispatcher([]Channel{primary}, WithBackoffBase(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(ctx, Request{Primary: KindSMS, PrimaryTarget: "+33612345678"})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err, "cancellation during backoff aborts the dispatch")
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not stop after context cancellation")
	}
}
