package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"sbomer-dashboard/internal/domain/sbomer"
	"sbomer-dashboard/internal/infrastructure/sbomerapi"
)

func newTestClient(hub *Hub, topic string) *Client {
	return &Client{id: topic + "-client", topic: topic, hub: hub, send: make(chan []byte, sendBuffer)}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func receive(t *testing.T, c *Client) LogMessage {
	t.Helper()
	select {
	case b, ok := <-c.send:
		if !ok {
			t.Fatalf("send channel closed")
		}
		var msg LogMessage
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no message received")
	}
	return LogMessage{}
}

func TestHub_BroadcastsPerTopic(t *testing.T) {
	hub := runHub(t)
	a := newTestClient(hub, "g1/a.log")
	b := newTestClient(hub, "g2/b.log")
	hub.Register(a)
	hub.Register(b)
	waitFor(t, func() bool { return hub.ClientCount("g1/a.log") == 1 && hub.ClientCount("g2/b.log") == 1 })

	hub.Broadcast("g1/a.log", []byte(`{"type":"log"}`))

	select {
	case msg := <-a.send:
		if string(msg) != `{"type":"log"}` {
			t.Fatalf("unexpected message %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber did not receive message")
	}
	select {
	case msg := <-b.send:
		t.Fatalf("other topic received %s", msg)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister(a)
	waitFor(t, func() bool { return hub.ClientCount("g1/a.log") == 0 })
	if _, ok := <-a.send; ok {
		t.Fatalf("send channel should be closed after unregister")
	}
}

type fakeLogClient struct {
	sbomerapi.Client

	mu     sync.Mutex
	log    string
	status sbomer.GenerationStatus
	opens  int
	err    error
}

func (f *fakeLogClient) set(log string, status sbomer.GenerationStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = log
	f.status = status
}

func (f *fakeLogClient) GetGeneration(ctx context.Context, id string) (sbomer.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return sbomer.Generation{}, f.err
	}
	return sbomer.Generation{ID: id, Status: f.status}, nil
}

func (f *fakeLogClient) OpenLog(ctx context.Context, generationID, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return io.NopCloser(strings.NewReader(f.log)), nil
}

func TestLogFollower_SendsOnlyNewBytesThenEnd(t *testing.T) {
	hub := runHub(t)
	topic := Topic("http://sbomer-a", "g1", "build.log")
	sub := newTestClient(hub, topic)
	hub.Register(sub)
	waitFor(t, func() bool { return hub.ClientCount(topic) == 1 })

	backend := &fakeLogClient{log: "step 1\n", status: sbomer.GenerationStatusGenerating}
	f := NewLogFollower(backend, hub, "http://sbomer-a", "g1", "build.log", 20*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background()) }()

	first := receive(t, sub)
	if first.Type != MessageTypeLog || first.Data != "step 1\n" || first.Offset != 0 {
		t.Fatalf("unexpected first message: %+v", first)
	}

	backend.set("step 1\nstep 2\n", sbomer.GenerationStatusFinished)

	second := receive(t, sub)
	if second.Type != MessageTypeLog || second.Data != "step 2\n" || second.Offset != int64(len("step 1\n")) {
		t.Fatalf("unexpected second message: %+v", second)
	}
	end := receive(t, sub)
	if end.Type != MessageTypeEnd || end.Status != "FINISHED" {
		t.Fatalf("unexpected end message: %+v", end)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("follower did not stop after terminal status")
	}
}

func TestLogFollower_StopsWithoutSubscribers(t *testing.T) {
	hub := runHub(t)
	backend := &fakeLogClient{status: sbomer.GenerationStatusGenerating}
	f := NewLogFollower(backend, hub, "http://sbomer-a", "g1", "build.log", 10*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("idle follower kept running")
	}
}

func TestLogFollower_ReportsBackendError(t *testing.T) {
	hub := runHub(t)
	topic := Topic("http://sbomer-a", "g1", "build.log")
	sub := newTestClient(hub, topic)
	hub.Register(sub)
	waitFor(t, func() bool { return hub.ClientCount(topic) == 1 })

	backend := &fakeLogClient{err: errors.New("backend down")}
	f := NewLogFollower(backend, hub, "http://sbomer-a", "g1", "build.log", 10*time.Millisecond, nil)

	if err := f.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	msg := receive(t, sub)
	if msg.Type != MessageTypeError || !strings.Contains(msg.Message, "backend down") {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestFollowers_OnePerTopic(t *testing.T) {
	hub := runHub(t)
	sub := newTestClient(hub, Topic("http://sbomer-a", "g1", "a.log"))
	hub.Register(sub)
	waitFor(t, func() bool { return hub.ClientCount(sub.topic) == 1 })

	backend := &fakeLogClient{status: sbomer.GenerationStatusGenerating}
	s := NewFollowers()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !s.Ensure(ctx, NewLogFollower(backend, hub, "http://sbomer-a", "g1", "a.log", time.Hour, nil)) {
		t.Fatalf("first Ensure should start a follower")
	}
	if s.Ensure(ctx, NewLogFollower(backend, hub, "http://sbomer-a", "g1", "a.log", time.Hour, nil)) {
		t.Fatalf("second Ensure must reuse the running follower")
	}

	s.StopAll()
	if s.Running(sub.topic) {
		t.Fatalf("follower still registered after StopAll")
	}
}

func TestFollowers_SameGenerationOnTwoBackendsStaysApart(t *testing.T) {
	hub := runHub(t)
	a := newTestClient(hub, Topic("http://sbomer-a", "g1", "a.log"))
	b := newTestClient(hub, Topic("http://sbomer-b", "g1", "a.log"))
	if a.topic == b.topic {
		t.Fatalf("topics collide across backends: %q", a.topic)
	}
	hub.Register(a)
	hub.Register(b)
	waitFor(t, func() bool { return hub.ClientCount(a.topic) == 1 && hub.ClientCount(b.topic) == 1 })

	s := NewFollowers()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer s.StopAll()

	backend := &fakeLogClient{status: sbomer.GenerationStatusGenerating}
	if !s.Ensure(ctx, NewLogFollower(backend, hub, "http://sbomer-a", "g1", "a.log", time.Hour, nil)) {
		t.Fatalf("follower for backend a not started")
	}
	if !s.Ensure(ctx, NewLogFollower(backend, hub, "http://sbomer-b", "g1", "a.log", time.Hour, nil)) {
		t.Fatalf("backend b reused the follower of backend a")
	}
	if !s.Running(a.topic) || !s.Running(b.topic) {
		t.Fatalf("expected one follower per backend")
	}
}
