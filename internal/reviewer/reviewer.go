package reviewer

import (
	"context"
	"strings"
	"time"
)

// Reviewer sends a prompt to an external analysis service and passes each
// piece of the reply to emit as it arrives. The text is never interpreted.
type Reviewer interface {
	Stream(ctx context.Context, prompt string, emit func(chunk string)) error
}

// StaticReviewer replays fixed text in chunks of Words words. It is used
// when no external reviewer is configured and in tests.
type StaticReviewer struct {
	Text  string
	Words int
	Delay time.Duration
}

func NewStaticReviewer(text string) *StaticReviewer {
	return &StaticReviewer{Text: text, Words: 3}
}

func (r *StaticReviewer) Stream(ctx context.Context, prompt string, emit func(chunk string)) error {
	words := strings.SplitAfter(r.Text, " ")
	step := r.Words
	if step <= 0 {
		step = 1
	}

	for i := 0; i < len(words); i += step {
		end := i + step
		if end > len(words) {
			end = len(words)
		}

		if r.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.Delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		emit(strings.Join(words[i:end], ""))
	}
	return nil
}

// Func adapts a function to Reviewer.
type Func func(ctx context.Context, prompt string, emit func(chunk string)) error

func (f Func) Stream(ctx context.Context, prompt string, emit func(chunk string)) error {
	return f(ctx, prompt, emit)
}
