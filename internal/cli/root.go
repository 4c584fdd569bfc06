// Package cli implements sbomerctl, a terminal client for the SBOMer API
// built on the same client, loaders and view models as the dashboard.
package cli

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	baseURL  string
	api      string
	output   string
	timeout  time.Duration
	logLevel string
}

type listOptions struct {
	page       int
	pageSize   int
	query      string
	queryType  string
	queryValue string
	watch      time.Duration
}

// env is what every command needs once flags are parsed.
type env struct {
	client  sbomerapi.Client
	printer *Printer
	logger  logrus.FieldLogger
	out     io.Writer
}

// clientFactory lets tests swap the backend.
type clientFactory func(opts globalOptions, logger logrus.FieldLogger) (sbomerapi.Client, error)

func defaultClientFactory(opts globalOptions, logger logrus.FieldLogger) (sbomerapi.Client, error) {
	base, err := sbomerapi.ResolveBaseURL(opts.baseURL, "", "")
	if err != nil {
		return nil, err
	}
	version, err := sbomerapi.ParseAPIVersion(opts.api)
	if err != nil {
		return nil, err
	}
	return sbomerapi.New(sbomerapi.Options{
		BaseURL: base,
		Version: version,
		Timeout: opts.timeout,
		Logger:  logger,
	})
}

func NewRootCommand(out io.Writer) *cobra.Command {
	return newRootCommand(out, defaultClientFactory)
}

func newRootCommand(out io.Writer, factory clientFactory) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "sbomerctl",
		Short:         "Browse SBOMer generations, manifests and events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", "", "SBOMer API base URL (default $SBOMER_HOST or $REACT_APP_SBOMER_URL)")
	flags.StringVar(&opts.api, "api", string(sbomerapi.V2), "API version: v1 or v2")
	flags.StringVarP(&opts.output, "output", "o", FormatTable, "output format: table, json or yaml")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level for diagnostics on stderr (default: silent)")

	setup := func(cmd *cobra.Command) (*env, error) {
		logger := applog.Discard()
		if opts.logLevel != "" {
			logger = applog.New("sbomerctl", opts.logLevel)
			logger.SetOutput(os.Stderr)
		}
		printer, err := NewPrinter(cmd.OutOrStdout(), opts.output)
		if err != nil {
			return nil, err
		}
		client, err := factory(*opts, logger)
		if err != nil {
			return nil, err
		}
		return &env{client: client, printer: printer, logger: logger, out: cmd.OutOrStdout()}, nil
	}

	root.AddCommand(
		newStatsCommand(setup),
		newGenerationsCommand(setup),
		newManifestsCommand(setup),
		newEventsCommand(setup),
	)
	return root
}

type setupFunc func(cmd *cobra.Command) (*env, error)

func addListFlags(cmd *cobra.Command, o *listOptions, withQueryType bool) {
	f := cmd.Flags()
	f.IntVar(&o.page, "page", 1, "page number, starting at 1")
	f.IntVar(&o.pageSize, "page-size", filter.Default.DefaultPageSize, "rows per page")
	f.StringVar(&o.query, "query", "", "RSQL query passed to the API")
	if withQueryType {
		f.StringVar(&o.queryType, "query-type", "", "filter field: purl, identifier, id or generation")
		f.StringVar(&o.queryValue, "query-value", "", "value the filter field must equal")
	}
	f.DurationVar(&o.watch, "watch", 0, "re-run the listing at this interval until interrupted")
}

// state runs the flags through the same URL schema the dashboard uses, so
// both front ends accept and reject the same input.
func (o listOptions) state() (filter.State, error) {
	schema := filter.Default
	values := schema.Encode(filter.State{
		Query:      o.query,
		QueryValue: o.queryValue,
		PageSize:   o.pageSize,
	})
	filter.Update(values, map[string]string{
		schema.QueryTypeKey: o.queryType,
		schema.PageKey:      strconv.Itoa(o.page),
	})
	return schema.Parse(values)
}

// watchLoop calls render once, then keeps re-issuing the last request every
// interval until ctx is done.
func watchLoop(ctx context.Context, interval time.Duration, retry func(context.Context) error, render func() error) error {
	if err := render(); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := retry(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := render(); err != nil {
			return err
		}
	}
}
