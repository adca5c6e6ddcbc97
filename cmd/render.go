package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/stripnode/internal/animation"
	"github.com/smazurov/stripnode/internal/hardware"
	"github.com/smazurov/stripnode/internal/strip"
)

const defaultExamplePeriod = 100 * time.Millisecond

// CreateRenderCmd creates the render command. It runs the animation engine
// against a console strip on a simulated clock, one line per frame, without
// touching hardware or the network.
func CreateRenderCmd() *cobra.Command {
	var (
		modeName  string
		period    time.Duration
		colorSpec string
		pixels    int
		frames    int
		step      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Preview an animation in the terminal",
		Long: `Renders frames of an animation mode to stdout. The simulated clock advances by --step ` +
			`between frames, so a SCANNER with a 100ms period and a 100ms step moves one pixel per line.`,
		Example: `  stripnode render --mode SCANNER --period 100ms --pixels 16 --frames 30
  stripnode render --mode rainbow --period 2s --step 100ms --color 255,0,0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frames <= 0 {
				return errors.New("--frames must be positive")
			}
			if step <= 0 {
				return errors.New("--step must be positive")
			}
			kind, ok := strip.LookupKind(modeName)
			if !ok {
				return fmt.Errorf("%w: unknown mode %q (want one of %s)", strip.ErrInvalidMode, modeName, strings.Join(strip.Names(), ", "))
			}
			mode := strip.Mode{Kind: kind}
			if kind.Periodic() {
				mode.Period = period
			}
			base, err := strip.ParseColor(colorSpec)
			if err != nil {
				return err
			}

			state, err := strip.NewState(pixels, strip.Defaults{Power: true, Mode: mode, Color: base})
			if err != nil {
				return err
			}
			console := hardware.NewConsole(cmd.OutOrStdout(), false)
			defer console.Close()

			engine, err := animation.NewEngine(state, console)
			if err != nil {
				return err
			}

			var now time.Time
			for i := range frames {
				if err := engine.Tick(now); err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				now = now.Add(step)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeName, "mode", "m", strip.Scanner.String(), "Mode name, see the modes command")
	cmd.Flags().DurationVarP(&period, "period", "p", defaultExamplePeriod, "Period of periodic modes")
	cmd.Flags().StringVar(&colorSpec, "color", "255,255,255", "Base color as r,g,b")
	cmd.Flags().IntVarP(&pixels, "pixels", "n", 16, "Number of pixels")
	cmd.Flags().IntVarP(&frames, "frames", "f", 20, "Number of frames to render")
	cmd.Flags().DurationVar(&step, "step", defaultExamplePeriod, "Simulated time between frames")
	return cmd
}
