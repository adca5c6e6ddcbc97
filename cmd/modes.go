package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/stripnode/internal/strip"
)

// CreateModesCmd creates the modes command, which lists the animation registry.
func CreateModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List animation modes",
		Long:  `Prints every mode name accepted by PUT /strip/mode and whether it takes a period in milliseconds.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODE\tPERIOD\tEXAMPLE")
			for _, k := range strip.Kinds() {
				period, example := "-", k.String()
				if k.Periodic() {
					period = "required"
					example = strip.Mode{Kind: k, Period: defaultExamplePeriod}.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", k, period, example)
			}
			return w.Flush()
		},
	}
}
