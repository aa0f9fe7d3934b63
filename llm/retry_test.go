package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	args := m.Called(ctx, req)
	if c := args.Get(0); c != nil {
		return c.(*Completion), args.Error(1)
	}
	return nil, args.Error(1)
}

func noSleep(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	m := new(MockClient)
	want := &Completion{FinishReason: FinishStop, Message: AssistantMessage("hi")}
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("503")).Twice()
	m.On("Complete", mock.Anything, mock.Anything).Return(want, nil).Once()

	var sleeps []time.Duration
	c := WithRetry(m, RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Sleep: noSleep(&sleeps)})

	got, err := c.Complete(context.Background(), Request{Model: "m"})
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeps)
	m.AssertNumberOfCalls(t, "Complete", 3)
}

func TestWithRetry_GivesUp(t *testing.T) {
	m := new(MockClient)
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	var sleeps []time.Duration
	c := WithRetry(m, RetryConfig{MaxAttempts: 2, Sleep: noSleep(&sleeps)})

	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "llm retry failed: overloaded")
	m.AssertNumberOfCalls(t, "Complete", 2)
	assert.Len(t, sleeps, 1)
}

func TestWithRetry_PermanentNotRetried(t *testing.T) {
	m := new(MockClient)
	cause := errors.New("401 unauthorized")
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, Permanent(cause))

	c := WithRetry(m, RetryConfig{MaxAttempts: 5, Sleep: noSleep(new([]time.Duration))})

	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, cause)
	m.AssertNumberOfCalls(t, "Complete", 1)
}

func TestWithRetry_ContextErrorsNotRetried(t *testing.T) {
	m := new(MockClient)
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	c := WithRetry(m, RetryConfig{MaxAttempts: 5, Sleep: noSleep(new([]time.Duration))})

	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	m.AssertNumberOfCalls(t, "Complete", 1)
}

func TestWithRetry_CancelledBeforeCall(t *testing.T) {
	m := new(MockClient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := WithRetry(m, RetryConfig{})
	_, err := c.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestWithRetry_CancelledDuringBackoff(t *testing.T) {
	m := new(MockClient)
	m.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	c := WithRetry(m, RetryConfig{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: time.Minute})

	start := time.Now()
	_, err := c.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	m.AssertNumberOfCalls(t, "Complete", 1)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDelay(100*time.Millisecond, time.Second, 0, 0))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(100*time.Millisecond, time.Second, 0, 2))
	assert.Equal(t, time.Second, backoffDelay(100*time.Millisecond, time.Second, 0, 10))

	d := backoffDelay(100*time.Millisecond, time.Second, 0.5, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 150*time.Millisecond)
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, "", Message{Role: RoleAssistant}.Text())
	assert.Equal(t, "hello", UserMessage("hello").Text())

	fr := FunctionResultMessage("clock", "call_1", `{"res":"1:00 PM"}`)
	assert.Equal(t, RoleFunction, fr.Role)
	assert.Equal(t, "clock", fr.Name)
	assert.Equal(t, "call_1", fr.CallID)
}
