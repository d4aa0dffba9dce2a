// Package sequence models the before/after terminal demo as a finite timeline of typed lines.
package sequence

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindCommand Kind = "command"
	KindOutput  Kind = "output"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

type Line struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

const (
	VariantWithout = "without"
	VariantWith    = "with"
)

var ErrUnknownVariant = errors.New("sequence: unknown variant")

const purchaseCommand = `> agent.purchase("MacBook Pro", $2,499)`

// Lines returns the scripted lines for a variant.
func Lines(variant string) ([]Line, error) {
	switch variant {
	case VariantWithout:
		return []Line{
			{Text: purchaseCommand, Kind: KindCommand},
			{Text: "Connecting to checkout...", Kind: KindOutput},
			{Text: "Processing payment...", Kind: KindOutput},
			{Text: "✗ Purchase completed. Card charged $2,499.00", Kind: KindError},
		}, nil
	case VariantWith:
		return []Line{
			{Text: purchaseCommand, Kind: KindCommand},
			{Text: "Connecting to checkout...", Kind: KindOutput},
			{Text: "🛡 BLOCKED: Unauthorized purchase attempt", Kind: KindSuccess},
			{Text: "→ Action requires explicit user approval", Kind: KindInfo},
		}, nil
	default:
		return nil, ErrUnknownVariant
	}
}

type Timing struct {
	StartDelay       time.Duration
	CommandCharDelay time.Duration
	CharDelay        time.Duration
	LineGap          time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		StartDelay:       300 * time.Millisecond,
		CommandCharDelay: 35 * time.Millisecond,
		CharDelay:        25 * time.Millisecond,
		LineGap:          400 * time.Millisecond,
	}
}

func (t Timing) charDelay(kind Kind) time.Duration {
	if kind == KindCommand {
		return t.CommandCharDelay
	}
	return t.CharDelay
}

// Step is one state of the terminal: line Line shows Visible, and Done marks the line finished.
type Step struct {
	At      time.Duration `json:"at"`
	Line    int           `json:"line"`
	Visible string        `json:"visible"`
	Done    bool          `json:"done"`
}

// Build lays out every step of lines. A line reveals one character per tick, completes one tick
// after its last character, and the next line starts LineGap later.
func Build(lines []Line, timing Timing) []Step {
	var steps []Step
	at := timing.StartDelay

	for i, line := range lines {
		delay := timing.charDelay(line.Kind)
		runes := []rune(line.Text)

		for n := 1; n <= len(runes); n++ {
			at += delay
			steps = append(steps, Step{At: at, Line: i, Visible: string(runes[:n])})
		}

		at += delay
		steps = append(steps, Step{At: at, Line: i, Visible: line.Text, Done: true})

		if i < len(lines)-1 {
			at += timing.LineGap
		}
	}
	return steps
}

// Duration is the offset of the final step.
func Duration(steps []Step) time.Duration {
	if len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].At
}

// Play emits each step at its offset from the call. It stops with ctx.Err() when ctx is done.
func Play(ctx context.Context, steps []Step, emit func(Step)) error {
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, step := range steps {
		if wait := step.At - time.Since(start); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		emit(step)
	}
	return nil
}
