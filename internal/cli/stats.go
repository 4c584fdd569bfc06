package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"sbomer-dashboard/internal/delivery/http/dto"
	"sbomer-dashboard/internal/usecase"

	"github.com/spf13/cobra"
)

func newStatsCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show service statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			loader := usecase.NewStatsLoader(e.client)
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			view := dto.NewStatsResponse(loader.Snapshot().Value)
			return e.printer.Print(view, func(tw *tabwriter.Writer) {
				row(tw, "VERSION", view.Version)
				row(tw, "RELEASE", view.Release)
				row(tw, "UPTIME", view.Uptime)
				fmt.Fprintln(tw)
				row(tw, "RESOURCE", "TOTAL", "IN PROGRESS")
				for _, r := range view.Resources {
					row(tw, r.Name, strconv.FormatInt(r.Total, 10), strconv.FormatInt(r.InProgress, 10))
				}
				for _, m := range view.Messaging {
					fmt.Fprintln(tw)
					row(tw, "MESSAGING", m.Name)
					for _, name := range sortedKeys(m.Counters) {
						row(tw, "  "+name, strconv.FormatInt(m.Counters[name], 10))
					}
				}
			})
		},
	}
}
