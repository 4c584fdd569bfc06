package usecase

import (
	"context"
	"io"

	"sbomer-dashboard/internal/domain/sbomer"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
)

func NewGenerationsLoader(client sbomerapi.Client, st filter.State) *ListLoader[sbomer.Generation] {
	return NewListLoader[sbomer.Generation](client.GetGenerations, st.PageIndex, st.PageSize, st.Query)
}

// NewManifestsLoader folds the typed manifest filter into the loader query,
// so Retry and Apply treat it like any other listing query.
func NewManifestsLoader(client sbomerapi.Client, st filter.State) *ListLoader[sbomer.Manifest] {
	query := sbomerapi.ManifestFilter{Query: st.Query, Type: st.QueryType, Value: st.QueryValue}.RSQL()
	fetch := func(ctx context.Context, p sbomerapi.Pagination, q string) (sbomerapi.Page[sbomer.Manifest], error) {
		return client.GetManifests(ctx, p, sbomerapi.ManifestFilter{Query: q})
	}
	return NewListLoader[sbomer.Manifest](fetch, st.PageIndex, st.PageSize, query)
}

func NewEventsLoader(client sbomerapi.Client, st filter.State) *ListLoader[sbomer.Event] {
	return NewListLoader[sbomer.Event](client.GetEvents, st.PageIndex, st.PageSize, st.Query)
}

func NewStatsLoader(client sbomerapi.Client) *DetailLoader[sbomer.Stats] {
	return NewDetailLoader[sbomer.Stats](client.Stats)
}

func NewGenerationLoader(client sbomerapi.Client, id string) *DetailLoader[sbomer.Generation] {
	return NewDetailLoader[sbomer.Generation](func(ctx context.Context) (sbomer.Generation, error) {
		return client.GetGeneration(ctx, id)
	})
}

func NewManifestLoader(client sbomerapi.Client, id string) *DetailLoader[sbomer.Manifest] {
	return NewDetailLoader[sbomer.Manifest](func(ctx context.Context) (sbomer.Manifest, error) {
		return client.GetManifest(ctx, id)
	})
}

func NewEventLoader(client sbomerapi.Client, id string) *DetailLoader[sbomer.Event] {
	return NewDetailLoader[sbomer.Event](func(ctx context.Context) (sbomer.Event, error) {
		return client.GetEvent(ctx, id)
	})
}

// OpenLog streams one log file of a generation; the caller closes it.
func OpenLog(ctx context.Context, client sbomerapi.Client, generationID, path string) (io.ReadCloser, error) {
	return client.OpenLog(ctx, generationID, path)
}
