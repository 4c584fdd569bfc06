package cli

import (
	"fmt"
	"text/tabwriter"

	"sbomer-dashboard/internal/delivery/http/dto"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/usecase"

	"github.com/spf13/cobra"
)

func newEventsCommand(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		Short:   "List and inspect events",
	}
	cmd.AddCommand(
		newEventsListCommand(setup),
		newEventsGetCommand(setup),
		newEventsGenerationsCommand(setup),
	)
	return cmd
}

func newEventsListCommand(setup setupFunc) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := o.state()
			if err != nil {
				return err
			}
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			loader := usecase.NewEventsLoader(e.client, st)
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			return watchLoop(cmd.Context(), o.watch, loader.Retry, func() error {
				snap := loader.Snapshot()
				view := dto.NewListView(dto.NewEventRows(snap.Value), snap.Total, st, filter.Default, "events")
				return e.printer.Print(view, func(tw *tabwriter.Writer) {
					eventTable(tw, view.Items)
					pageFooter(tw, view.Page, view.PageCount, view.Total)
				})
			})
		},
	}
	addListFlags(cmd, o, false)
	return cmd
}

func newEventsGetCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			loader := usecase.NewEventLoader(e.client, args[0])
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			view := dto.NewEventDetail(loader.Snapshot().Value)
			return e.printer.Print(view, func(tw *tabwriter.Writer) {
				row(tw, "ID", view.ID)
				row(tw, "PARENT", view.ParentID)
				row(tw, "STATUS", view.Status)
				row(tw, "REASON", view.Reason)
				row(tw, "CREATED", view.Created)
				row(tw, "FINISHED", view.Finished)
			})
		},
	}
}

// newEventsGenerationsCommand walks every page of the event's generations.
func newEventsGenerationsCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "generations ID",
		Short: "List every generation triggered by an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			page, err := e.client.GetEventGenerations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view := dto.GenerationsSection{Items: dto.NewGenerationRows(page.Data), Total: page.Total}
			return e.printer.Print(view, func(tw *tabwriter.Writer) {
				generationTable(tw, view.Items)
				fmt.Fprintln(tw)
				fmt.Fprintf(tw, "%d total\n", view.Total)
			})
		},
	}
}

func eventTable(tw *tabwriter.Writer, items []dto.EventRow) {
	row(tw, "ID", "STATUS", "PARENT", "REASON", "CREATED")
	for _, ev := range items {
		row(tw, ev.ID, ev.Status, ev.ParentID, ev.Reason, ev.Created)
	}
}
