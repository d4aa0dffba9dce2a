package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/clawsec-waitlist/pkg/sequence"
	"github.com/spf13/cobra"
)

func newDemoCommand() *cobra.Command {
	var (
		variant string
		speed   float64
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play the before/after terminal demo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if speed <= 0 {
				return fmt.Errorf("--speed must be positive")
			}

			lines, err := sequence.Lines(variant)
			if err != nil {
				return fmt.Errorf("%w %q (use %q or %q)", err, variant, sequence.VariantWith, sequence.VariantWithout)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			steps := sequence.Build(lines, scaleTiming(sequence.DefaultTiming(), speed))
			err = playTo(ctx, cmd.OutOrStdout(), steps)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&variant, "variant", sequence.VariantWith, "which terminal to play (with, without)")
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed multiplier")

	return cmd
}

func scaleTiming(t sequence.Timing, speed float64) sequence.Timing {
	scale := func(d time.Duration) time.Duration { return time.Duration(float64(d) / speed) }
	return sequence.Timing{
		StartDelay:       scale(t.StartDelay),
		CommandCharDelay: scale(t.CommandCharDelay),
		CharDelay:        scale(t.CharDelay),
		LineGap:          scale(t.LineGap),
	}
}

// playTo redraws the current line on every step and ends it with a newline once done.
func playTo(ctx context.Context, w io.Writer, steps []sequence.Step) error {
	return sequence.Play(ctx, steps, func(step sequence.Step) {
		fmt.Fprintf(w, "\r%s", step.Visible)
		if step.Done {
			fmt.Fprintln(w)
		}
	})
}
