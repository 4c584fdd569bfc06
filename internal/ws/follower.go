package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"sbomer-dashboard/internal/infrastructure/sbomerapi"
	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	MessageTypeLog   = "log"
	MessageTypeEnd   = "end"
	MessageTypeError = "error"

	// idleChecks is how many polls in a row may find the topic empty before
	// the follower stops. The first poll can run before the hub has
	// processed the subscriber that started it.
	idleChecks = 2
)

type LogMessage struct {
	Type         string `json:"type"`
	GenerationID string `json:"generation_id"`
	Path         string `json:"path"`
	Data         string `json:"data,omitempty"`
	Offset       int64  `json:"offset"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Topic names the stream of one log file on one backend. Scope is the
// backend base URL, so equal generation ids on two deployments never share
// a follower.
func Topic(scope, generationID, path string) string {
	return scope + "|" + generationID + "/" + path
}

// LogFollower polls one log file of a running generation and broadcasts the
// bytes it has not sent yet. It sends a final end message once the
// generation reached a terminal status and the log has been read after
// that point.
type LogFollower struct {
	client       sbomerapi.Client
	hub          *Hub
	generationID string
	path         string
	topic        string
	interval     time.Duration
	logger       logrus.FieldLogger

	offset int64
}

func NewLogFollower(client sbomerapi.Client, hub *Hub, scope, generationID, path string, interval time.Duration, logger logrus.FieldLogger) *LogFollower {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &LogFollower{
		client:       client,
		hub:          hub,
		generationID: generationID,
		path:         path,
		topic:        Topic(scope, generationID, path),
		interval:     interval,
		logger:       logger.WithFields(logrus.Fields{"generation_id": generationID, "path": path}),
	}
}

func (f *LogFollower) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	idle := 0
	for {
		// Status first: bytes read after a terminal status are the whole log.
		gen, err := f.client.GetGeneration(ctx, f.generationID)
		if err != nil {
			return f.fail(ctx, fmt.Errorf("get generation: %w", err))
		}
		if err := f.poll(ctx); err != nil {
			return f.fail(ctx, err)
		}
		if gen.Status.IsTerminal() {
			f.publish(LogMessage{Type: MessageTypeEnd, Status: gen.Status.String()})
			return nil
		}

		if f.hub.ClientCount(f.topic) == 0 {
			idle++
			if idle >= idleChecks {
				f.logger.Debug("log follower idle, stopping")
				return nil
			}
		} else {
			idle = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *LogFollower) poll(ctx context.Context) error {
	rc, err := f.client.OpenLog(ctx, f.generationID, f.path)
	if err != nil {
		if sbomerapi.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("open log: %w", err)
	}
	defer rc.Close()

	if f.offset > 0 {
		skipped, err := io.CopyN(io.Discard, rc, f.offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("skip sent log bytes: %w", err)
		}
		if skipped < f.offset {
			// The log got shorter: it was replaced, start over.
			f.offset = 0
			return nil
		}
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	f.publish(LogMessage{Type: MessageTypeLog, Data: string(data), Offset: f.offset})
	f.offset += int64(len(data))
	return nil
}

func (f *LogFollower) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.logger.WithError(err).Warn("log follower failed")
	f.publish(LogMessage{Type: MessageTypeError, Message: err.Error()})
	return err
}

func (f *LogFollower) publish(msg LogMessage) {
	msg.GenerationID = f.generationID
	msg.Path = f.path
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	f.hub.Broadcast(f.topic, b)
}

type followerEntry struct {
	cancel context.CancelFunc
}

// Followers keeps at most one running follower per topic.
type Followers struct {
	mu      sync.Mutex
	running map[string]*followerEntry
}

func NewFollowers() *Followers {
	return &Followers{running: make(map[string]*followerEntry)}
}

// Ensure starts f unless a follower for the same topic is running. It
// reports whether a new follower was started.
func (s *Followers) Ensure(ctx context.Context, f *LogFollower) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[f.topic]; ok {
		return false
	}

	fctx, cancel := context.WithCancel(ctx)
	entry := &followerEntry{cancel: cancel}
	s.running[f.topic] = entry
	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			if s.running[f.topic] == entry {
				delete(s.running, f.topic)
			}
			s.mu.Unlock()
		}()
		_ = f.Run(fctx)
	}()
	return true
}

func (s *Followers) Running(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[topic]
	return ok
}

func (s *Followers) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, entry := range s.running {
		entry.cancel()
		delete(s.running, topic)
	}
}
