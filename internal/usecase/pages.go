package usecase

import (
	"context"
	"sync"

	"sbomer-dashboard/internal/domain/sbomer"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// GenerationPage backs the generation detail screen. Its sections load in
// parallel and fail independently; only the generation itself decides
// whether the page exists.
type GenerationPage struct {
	Generation *DetailLoader[sbomer.Generation]
	Manifests  *DetailLoader[sbomerapi.Page[sbomer.Manifest]]
	LogPaths   *DetailLoader[[]string]

	id  string
	log logrus.FieldLogger
}

func NewGenerationPage(client sbomerapi.Client, id string, logger logrus.FieldLogger) *GenerationPage {
	if logger == nil {
		logger = applog.Discard()
	}
	return &GenerationPage{
		Generation: NewGenerationLoader(client, id),
		Manifests: NewDetailLoader[sbomerapi.Page[sbomer.Manifest]](func(ctx context.Context) (sbomerapi.Page[sbomer.Manifest], error) {
			return client.GetManifestsForGeneration(ctx, id)
		}),
		LogPaths: NewDetailLoader[[]string](func(ctx context.Context) ([]string, error) {
			return client.GetLogPaths(ctx, id)
		}),
		id:  id,
		log: logger,
	}
}

// Load returns the generation's own error; section errors stay on their
// loaders.
func (p *GenerationPage) Load(ctx context.Context) error {
	var errGeneration, errManifests, errLogs error

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		errGeneration = p.Generation.Load(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errManifests = p.Manifests.Load(ctx)
		if errManifests != nil {
			p.log.WithFields(logrus.Fields{"generation_id": p.id, "section": "manifests"}).WithError(errManifests).Warn("generation page section failed")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errLogs = p.LogPaths.Load(ctx)
		if errLogs != nil {
			p.log.WithFields(logrus.Fields{"generation_id": p.id, "section": "logs"}).WithError(errLogs).Warn("generation page section failed")
		}
	}()

	wg.Wait()
	return errGeneration
}

// EventPage backs the event detail screen: the event plus every generation
// it triggered.
type EventPage struct {
	Event       *DetailLoader[sbomer.Event]
	Generations *DetailLoader[sbomerapi.Page[sbomer.Generation]]

	id  string
	log logrus.FieldLogger
}

func NewEventPage(client sbomerapi.Client, id string, logger logrus.FieldLogger) *EventPage {
	if logger == nil {
		logger = applog.Discard()
	}
	return &EventPage{
		Event: NewEventLoader(client, id),
		Generations: NewDetailLoader[sbomerapi.Page[sbomer.Generation]](func(ctx context.Context) (sbomerapi.Page[sbomer.Generation], error) {
			return client.GetEventGenerations(ctx, id)
		}),
		id:  id,
		log: logger,
	}
}

func (p *EventPage) Load(ctx context.Context) error {
	var errEvent, errGenerations error

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		errEvent = p.Event.Load(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errGenerations = p.Generations.Load(ctx)
		if errGenerations != nil {
			p.log.WithFields(logrus.Fields{"event_id": p.id, "section": "generations"}).WithError(errGenerations).Warn("event page section failed")
		}
	}()

	wg.Wait()
	return errEvent
}
