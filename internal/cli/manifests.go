package cli

import (
	"text/tabwriter"

	"sbomer-dashboard/internal/delivery/http/dto"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/usecase"

	"github.com/spf13/cobra"
)

func newManifestsCommand(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manifests",
		Aliases: []string{"manifest", "sboms"},
		Short:   "List and inspect manifests",
	}
	cmd.AddCommand(
		newManifestsListCommand(setup),
		newManifestsGetCommand(setup),
	)
	return cmd
}

func newManifestsListCommand(setup setupFunc) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manifests",
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
			loader := usecase.NewManifestsLoader(e.client, st)
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			return watchLoop(cmd.Context(), o.watch, loader.Retry, func() error {
				snap := loader.Snapshot()
				view := dto.NewListView(dto.NewManifestRows(snap.Value), snap.Total, st, filter.Default, "manifests")
				return e.printer.Print(view, func(tw *tabwriter.Writer) {
					manifestTable(tw, view.Items)
					pageFooter(tw, view.Page, view.PageCount, view.Total)
				})
			})
		},
	}
	addListFlags(cmd, o, true)
	return cmd
}

func newManifestsGetCommand(setup setupFunc) *cobra.Command {
	var sbomOnly bool
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			loader := usecase.NewManifestLoader(e.client, args[0])
			if err := loader.Load(cmd.Context()); err != nil {
				return err
			}
			m := loader.Snapshot().Value
			if sbomOnly {
				_, err := e.out.Write(append([]byte(m.SBOM), '\n'))
				return err
			}

			view := dto.NewManifestDetail(m)
			return e.printer.Print(view, func(tw *tabwriter.Writer) {
				row(tw, "ID", view.ID)
				row(tw, "IDENTIFIER", view.Identifier)
				row(tw, "ROOT PURL", view.RootPurl)
				row(tw, "CREATED", view.Created)
				row(tw, "GENERATION", view.GenerationID)
				if view.Generation != nil {
					row(tw, "GENERATION STATUS", view.Generation.StatusLabel)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&sbomOnly, "sbom", false, "print only the raw CycloneDX document")
	return cmd
}

func manifestTable(tw *tabwriter.Writer, items []dto.ManifestRow) {
	row(tw, "ID", "IDENTIFIER", "ROOT PURL", "GENERATION", "CREATED")
	for _, m := range items {
		row(tw, m.ID, m.Identifier, m.RootPurl, m.GenerationID, m.Created)
	}
}
