package reviewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/pkg/circuitbreaker"
	apperrors "compliance/pkg/errors"
	"compliance/pkg/retry"
)

func collect(t *testing.T, r Reviewer, prompt string) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := r.Stream(context.Background(), prompt, func(chunk string) { sb.WriteString(chunk) })
	return sb.String(), err
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestStaticReviewer_ReplaysText(t *testing.T) {
	r := NewStaticReviewer("the minutes look complete and consistent")
	var chunks []string
	err := r.Stream(context.Background(), "prompt", func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)

	assert.Len(t, chunks, 2)
	assert.Equal(t, "the minutes look complete and consistent", strings.Join(chunks, ""))
}

func TestStaticReviewer_StopsOnCancel(t *testing.T) {
	r := &StaticReviewer{Text: "a b c d", Words: 1, Delay: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Stream(ctx, "p", func(string) { t.Fatal("no chunk expected") })
	assert.ErrorIs(t, err, context.Canceled)
}

func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestOpenAIReviewer_Streams(t *testing.T) {
	srv := sseServer(t, "Attendance ", "is fine.")
	defer srv.Close()

	r := NewOpenAIReviewer(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key", Model: "m"})
	text, err := collect(t, r, "check this")
	require.NoError(t, err)
	assert.Equal(t, "Attendance is fine.", text)
}

func TestOpenAIReviewer_ClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	r := NewOpenAIReviewer(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "test-key"})
	_, err := collect(t, r, "p")
	require.Error(t, err)
	assert.True(t, apperrors.IsAnalysis(err))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.IsFatal())
}

func TestBreakerReviewer_RetriesBeforeFirstChunk(t *testing.T) {
	var calls atomic.Int32
	flaky := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		if calls.Add(1) < 3 {
			return errors.New("connection refused")
		}
		emit("ok")
		return nil
	})

	cfg := circuitbreaker.DefaultConfig("reviewer-retry")
	cfg.ReadyToTrip = circuitbreaker.ConsecutiveFailures(10)
	r := NewBreakerReviewer(flaky, circuitbreaker.NewWrapper(cfg), fastPolicy(), nil)

	text, err := collect(t, r, "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreakerReviewer_NoRetryAfterEmit(t *testing.T) {
	var calls atomic.Int32
	broken := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		calls.Add(1)
		emit("partial ")
		return errors.New("stream reset")
	})

	r := NewBreakerReviewer(broken, circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("reviewer-partial")), fastPolicy(), nil)

	text, err := collect(t, r, "p")
	require.Error(t, err)
	assert.Equal(t, "partial ", text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerReviewer_OpenCircuitRejects(t *testing.T) {
	var calls atomic.Int32
	down := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		calls.Add(1)
		return errors.New("down")
	})

	cfg := circuitbreaker.DefaultConfig("reviewer-open")
	cfg.ReadyToTrip = circuitbreaker.ConsecutiveFailures(1)
	cfg.Timeout = time.Hour
	r := NewBreakerReviewer(down, circuitbreaker.NewWrapper(cfg), fastPolicy(), nil)

	_, err := collect(t, r, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func waitNarrative(t *testing.T, n *Narrative) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Wait(ctx))
}

func TestNarrative_RunCollectsText(t *testing.T) {
	n := NewNarrative(NewStaticReviewer("one two three four"))
	require.NoError(t, n.Run(context.Background(), "p"))
	waitNarrative(t, n)

	state := n.State()
	assert.False(t, state.Streaming)
	assert.NoError(t, state.Err)
	assert.Equal(t, "one two three four", state.Text)
}

func TestNarrative_SingleRun(t *testing.T) {
	release := make(chan struct{})
	blocking := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		emit("first")
		<-release
		return nil
	})

	n := NewNarrative(blocking)
	require.NoError(t, n.Run(context.Background(), "p"))
	assert.True(t, n.Streaming())

	err := n.Run(context.Background(), "p")
	assert.True(t, apperrors.IsConflict(err))

	close(release)
	waitNarrative(t, n)
	assert.False(t, n.Streaming())
}

func TestNarrative_RunClearsBuffer(t *testing.T) {
	var calls atomic.Int32
	r := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		emit(fmt.Sprintf("run %d", calls.Add(1)))
		return nil
	})

	n := NewNarrative(r)
	require.NoError(t, n.Run(context.Background(), "p"))
	waitNarrative(t, n)
	require.NoError(t, n.Run(context.Background(), "p"))
	waitNarrative(t, n)

	assert.Equal(t, "run 2", n.Text())
}

func TestNarrative_Timeout(t *testing.T) {
	hang := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		emit("started ")
		<-ctx.Done()
		return ctx.Err()
	})

	n := NewNarrative(hang, WithTimeout(20*time.Millisecond))
	require.NoError(t, n.Run(context.Background(), "p"))
	waitNarrative(t, n)

	state := n.State()
	assert.False(t, state.Streaming)
	assert.Equal(t, "started ", state.Text)
	require.Error(t, state.Err)
	assert.True(t, apperrors.IsAnalysis(state.Err))
}

func TestNarrative_FailureRecordsAnalysisError(t *testing.T) {
	n := NewNarrative(Func(func(ctx context.Context, prompt string, emit func(string)) error {
		return errors.New("upstream 500")
	}))
	require.NoError(t, n.Run(context.Background(), "p"))
	waitNarrative(t, n)

	assert.True(t, apperrors.IsAnalysis(n.State().Err))
}

func TestNarrative_ClearDropsLateChunks(t *testing.T) {
	emitted := make(chan struct{})
	proceed := make(chan struct{})
	r := Func(func(ctx context.Context, prompt string, emit func(string)) error {
		emit("early")
		close(emitted)
		<-proceed
		emit("late")
		return nil
	})

	n := NewNarrative(r)
	require.NoError(t, n.Run(context.Background(), "p"))
	<-emitted

	done := n.done
	n.Clear()
	close(proceed)
	<-done

	state := n.State()
	assert.Empty(t, state.Text)
	assert.False(t, state.Streaming)
	assert.NoError(t, state.Err)
}

func TestNarrative_CallerCancelDoesNotStopStream(t *testing.T) {
	n := NewNarrative(&StaticReviewer{Text: "a b", Words: 1, Delay: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Run(ctx, "p"))
	cancel()
	waitNarrative(t, n)

	assert.Equal(t, "a b", n.Text())
}
