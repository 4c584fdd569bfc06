package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"sbomer-dashboard/internal/delivery/http/dto"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/usecase"

	"github.com/spf13/cobra"
)

func newGenerationsCommand(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generations",
		Aliases: []string{"generation", "gen"},
		Short:   "List and inspect generations",
	}
	cmd.AddCommand(
		newGenerationsListCommand(setup),
		newGenerationsGetCommand(setup),
		newGenerationsLogsCommand(setup),
	)
	return cmd
}

func newGenerationsListCommand(setup setupFunc) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generations",
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
			loader := usecase.NewGenerationsLoader(e.client, st)
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			return watchLoop(cmd.Context(), o.watch, loader.Retry, func() error {
				snap := loader.Snapshot()
				view := dto.NewListView(dto.NewGenerationRows(snap.Value), snap.Total, st, filter.Default, "generations")
				return e.printer.Print(view, func(tw *tabwriter.Writer) {
					generationTable(tw, view.Items)
					pageFooter(tw, view.Page, view.PageCount, view.Total)
				})
			})
		},
	}
	addListFlags(cmd, o, false)
	return cmd
}

func newGenerationsGetCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a generation with its manifests and log files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			page := usecase.NewGenerationPage(e.client, args[0], e.logger)
			if err := page.Load(cmd.Context()); err != nil {
				return err
			}

			out := dto.GenerationPageResponse{Generation: dto.NewGenerationDetail(page.Generation.Snapshot().Value)}
			manifests := page.Manifests.Snapshot()
			if manifests.Err != nil {
				out.Manifests.Error = &dto.SectionError{Message: manifests.Err.Error()}
			} else {
				rows := dto.NewManifestRows(manifests.Value.Data)
				out.Manifests.Data = &rows
			}
			logs := page.LogPaths.Snapshot()
			if logs.Err != nil {
				out.Logs.Error = &dto.SectionError{Message: logs.Err.Error()}
			} else {
				files := make([]dto.LogFileResponse, 0, len(logs.Value))
				for _, p := range logs.Value {
					files = append(files, dto.LogFileResponse{Path: p})
				}
				out.Logs.Data = &files
			}

			return e.printer.Print(out, func(tw *tabwriter.Writer) {
				g := out.Generation
				row(tw, "ID", g.ID)
				row(tw, "IDENTIFIER", g.Identifier)
				row(tw, "TYPE", g.Type)
				row(tw, "STATUS", g.StatusLabel)
				row(tw, "RESULT", g.Result)
				row(tw, "REASON", g.Reason)
				row(tw, "CREATED", g.Created)
				row(tw, "FINISHED", g.Finished)

				fmt.Fprintln(tw)
				if out.Manifests.Error != nil {
					row(tw, "MANIFESTS", "error: "+out.Manifests.Error.Message)
				} else {
					manifestTable(tw, *out.Manifests.Data)
				}

				fmt.Fprintln(tw)
				if out.Logs.Error != nil {
					row(tw, "LOGS", "error: "+out.Logs.Error.Message)
				} else {
					row(tw, "LOG FILE")
					for _, f := range *out.Logs.Data {
						row(tw, f.Path)
					}
				}
			})
		},
	}
}

func newGenerationsLogsCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logs ID [PATH]",
		Short: "List log files of a generation, or print one of them",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}

			if len(args) == 2 {
				rc, err := usecase.OpenLog(cmd.Context(), e.client, args[0], args[1])
				if err != nil {
					return err
				}
				defer rc.Close()
				_, err = io.Copy(e.out, rc)
				return err
			}

			paths, err := e.client.GetLogPaths(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.printer.Print(paths, func(tw *tabwriter.Writer) {
				if len(paths) == 0 {
					row(tw, "no log files")
					return
				}
				for _, p := range paths {
					row(tw, p)
				}
			})
		},
	}
}

func generationTable(tw *tabwriter.Writer, items []dto.GenerationRow) {
	row(tw, "ID", "STATUS", "RESULT", "IDENTIFIER", "CREATED")
	for _, g := range items {
		row(tw, g.ID, g.StatusLabel, g.Result, g.Identifier, g.Created)
	}
}

func pageFooter(tw *tabwriter.Writer, page, pageCount, total int) {
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "page %d/%d, %d total\n", page, pageCount, total)
}
