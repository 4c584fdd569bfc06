package handler

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"sbomer-dashboard/internal/delivery/http/dto"
	"sbomer-dashboard/internal/delivery/http/middleware"
	"sbomer-dashboard/internal/filter"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	applog "sbomer-dashboard/internal/pkg/logger"
	"sbomer-dashboard/internal/pkg/response"
	"sbomer-dashboard/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type ClientProvider interface {
	Version() sbomerapi.APIVersion
	ClientFor(scheme, host string) (sbomerapi.Client, error)
}

// DashboardHandler serves one route tree of the dashboard, backed by a
// single API version.
type DashboardHandler struct {
	provider            ClientProvider
	schema              filter.Schema
	logger              logrus.FieldLogger
	generationFiltering bool
}

type DashboardOptions struct {
	Schema filter.Schema
	Logger logrus.FieldLogger
	// GenerationFiltering passes the query filter through on the generation
	// listing. V1 deployments reject it.
	GenerationFiltering bool
}

func NewDashboardHandler(provider ClientProvider, opts DashboardOptions) *DashboardHandler {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	schema := opts.Schema
	if schema.PageKey == "" {
		schema = filter.Default
	}
	return &DashboardHandler{
		provider:            provider,
		schema:              schema,
		logger:              logger.WithField("api", string(provider.Version())),
		generationFiltering: opts.GenerationFiltering,
	}
}

func (h *DashboardHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/stats", h.HandleStats)
	r.Get("/generations", h.HandleListGenerations)
	r.Get("/generations/:id", h.HandleGetGeneration)
	r.Get("/generations/:id/logs", h.HandleListLogs)
	r.Get("/generations/:id/logs/*", h.HandleStreamLog)
	r.Get("/manifests", h.HandleListManifests)
	r.Get("/manifests/:id", h.HandleGetManifest)
	r.Get("/events", h.HandleListEvents)
	r.Get("/events/:id", h.HandleGetEvent)
}

func (h *DashboardHandler) HandleStats(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}

	loader := usecase.NewStatsLoader(client)
	if err := loader.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}
	return response.Success(c, fiber.StatusOK, "", dto.NewStatsResponse(loader.Snapshot().Value))
}

func (h *DashboardHandler) HandleListGenerations(c fiber.Ctx) error {
	client, st, err := h.listInputs(c)
	if err != nil {
		return err
	}
	if !h.generationFiltering {
		st.Query = ""
	}

	loader := usecase.NewGenerationsLoader(client, st)
	if err := loader.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}
	snap := loader.Snapshot()
	return response.Success(c, fiber.StatusOK, "", dto.NewListView(dto.NewGenerationRows(snap.Value), snap.Total, st, h.schema, c.Path()))
}

func (h *DashboardHandler) HandleGetGeneration(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	page := usecase.NewGenerationPage(client, id, h.logger)
	if err := page.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}

	out := dto.GenerationPageResponse{
		Generation: dto.NewGenerationDetail(page.Generation.Snapshot().Value),
	}

	manifests := page.Manifests.Snapshot()
	if manifests.Err != nil {
		out.Manifests.Error = sectionError(manifests.Err)
	} else {
		rows := dto.NewManifestRows(manifests.Value.Data)
		out.Manifests.Data = &rows
	}

	logs := page.LogPaths.Snapshot()
	if logs.Err != nil {
		out.Logs.Error = sectionError(logs.Err)
	} else {
		files := logFiles(c.Path()+"/logs", logs.Value)
		out.Logs.Data = &files
	}

	return response.Success(c, fiber.StatusOK, "", out)
}

func (h *DashboardHandler) HandleListLogs(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	paths, err := client.GetLogPaths(c.Context(), id)
	if err != nil {
		return mapSbomerError(err)
	}
	return response.Success(c, fiber.StatusOK, "", logFiles(c.Path(), paths))
}

// HandleStreamLog proxies one raw log file. The body is streamed as it
// arrives from the backend.
func (h *DashboardHandler) HandleStreamLog(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}
	path, err := url.PathUnescape(c.Params("*"))
	if err != nil || strings.TrimSpace(path) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid log path", nil, err)
	}

	rc, err := usecase.OpenLog(context.WithoutCancel(c.Context()), client, id, path)
	if err != nil {
		return mapSbomerError(err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendStream(rc)
}

func (h *DashboardHandler) HandleListManifests(c fiber.Ctx) error {
	client, st, err := h.listInputs(c)
	if err != nil {
		return err
	}

	loader := usecase.NewManifestsLoader(client, st)
	if err := loader.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}
	snap := loader.Snapshot()
	return response.Success(c, fiber.StatusOK, "", dto.NewListView(dto.NewManifestRows(snap.Value), snap.Total, st, h.schema, c.Path()))
}

func (h *DashboardHandler) HandleGetManifest(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	loader := usecase.NewManifestLoader(client, id)
	if err := loader.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}
	return response.Success(c, fiber.StatusOK, "", dto.NewManifestDetail(loader.Snapshot().Value))
}

func (h *DashboardHandler) HandleListEvents(c fiber.Ctx) error {
	client, st, err := h.listInputs(c)
	if err != nil {
		return err
	}

	loader := usecase.NewEventsLoader(client, st)
	if err := loader.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}
	snap := loader.Snapshot()
	return response.Success(c, fiber.StatusOK, "", dto.NewListView(dto.NewEventRows(snap.Value), snap.Total, st, h.schema, c.Path()))
}

func (h *DashboardHandler) HandleGetEvent(c fiber.Ctx) error {
	client, err := h.client(c)
	if err != nil {
		return err
	}
	id, err := requiredParam(c, "id")
	if err != nil {
		return err
	}

	page := usecase.NewEventPage(client, id, h.logger)
	if err := page.Load(c.Context()); err != nil {
		return mapSbomerError(err)
	}

	out := dto.EventPageResponse{Event: dto.NewEventDetail(page.Event.Snapshot().Value)}
	gens := page.Generations.Snapshot()
	if gens.Err != nil {
		out.Generations.Error = sectionError(gens.Err)
	} else {
		out.Generations.Data = &dto.GenerationsSection{
			Items: dto.NewGenerationRows(gens.Value.Data),
			Total: gens.Value.Total,
		}
	}
	return response.Success(c, fiber.StatusOK, "", out)
}

func (h *DashboardHandler) client(c fiber.Ctx) (sbomerapi.Client, error) {
	client, err := h.provider.ClientFor(c.Scheme(), c.Host())
	if err != nil {
		return nil, mapSbomerError(err)
	}
	return client, nil
}

func (h *DashboardHandler) listInputs(c fiber.Ctx) (sbomerapi.Client, filter.State, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return nil, filter.State{}, middleware.NewAppError(fiber.StatusBadRequest, "malformed query string", nil, err)
	}
	st, err := h.schema.Parse(values)
	if err != nil {
		return nil, filter.State{}, mapSbomerError(err)
	}
	client, err := h.client(c)
	if err != nil {
		return nil, filter.State{}, err
	}
	return client, st, nil
}

func requiredParam(c fiber.Ctx, key string) (string, error) {
	v, err := url.PathUnescape(c.Params(key))
	if err != nil || strings.TrimSpace(v) == "" {
		return "", middleware.NewAppError(fiber.StatusBadRequest, "missing "+key, nil, err)
	}
	return v, nil
}

func logFiles(base string, paths []string) []dto.LogFileResponse {
	out := make([]dto.LogFileResponse, 0, len(paths))
	for _, p := range paths {
		out = append(out, dto.LogFileResponse{Path: p, URL: base + "/" + strings.TrimLeft(p, "/")})
	}
	return out
}

func sectionError(err error) *dto.SectionError {
	out := &dto.SectionError{Message: err.Error()}
	if httpErr, ok := sbomerapi.AsHTTPError(err); ok {
		out.Status = httpErr.StatusCode
	}
	return out
}

func mapSbomerError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, filter.ErrInvalidFilter):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, sbomerapi.ErrNoBaseURL):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "SBOMer API URL is not configured", nil, err)
	case errors.Is(err, sbomerapi.ErrHostNotAllowed):
		return middleware.NewAppError(fiber.StatusMisdirectedRequest, "host is not an allowed SBOMer deployment", nil, err)
	case sbomerapi.IsNotFound(err):
		return middleware.NewAppError(fiber.StatusNotFound, "not found", nil, err)
	case sbomerapi.IsQueryValidationError(err):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.NewAppError(fiber.StatusGatewayTimeout, "SBOMer API timed out", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusBadGateway, err.Error(), nil, err)
	}
}
