package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/gateway"
	"github.com/shaiso/conduit/internal/telemetry"
)

// fakeTransport отвечает заданным телом и запоминает запросы.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*action.RequestDescriptor
	body     any
	err      error
}

func (f *fakeTransport) Send(_ context.Context, req *action.RequestDescriptor) (*action.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, &action.TransportError{Method: req.Method, URL: req.URL, Err: f.err}
	}
	return &action.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: f.body}, nil
}

func (f *fakeTransport) sent() []*action.RequestDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*action.RequestDescriptor(nil), f.requests...)
}

// memoryRecorder сохраняет записи о вызовах.
type memoryRecorder struct {
	mu   sync.Mutex
	invs []domain.Invocation
}

func (m *memoryRecorder) Name() string { return "memory" }

func (m *memoryRecorder) Record(_ context.Context, inv *domain.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invs = append(m.invs, *inv)
	return nil
}

func (m *memoryRecorder) all() []domain.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Invocation(nil), m.invs...)
}

type fakeLocker struct {
	ok       bool
	unlocked bool
}

func (f *fakeLocker) TryLock(context.Context) (bool, error) { return f.ok, nil }

func (f *fakeLocker) Unlock(context.Context) error {
	f.unlocked = true
	return nil
}

// blockingTransport держит запрос до закрытия release.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, _ *action.RequestDescriptor) (*action.Response, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &action.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: map[string]any{}}, nil
}

func newTestScheduler(t *testing.T, transport action.Transport, rec gateway.Recorder, schedules ...config.ScheduleConfig) *Scheduler {
	t.Helper()
	s, err := New(Config{
		Schedules: schedules,
		Registry:  action.DefaultRegistry(transport),
		Recorders: []gateway.Recorder{rec},
		Metrics:   telemetry.NewMetrics(prometheus.NewRegistry()),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s
}

func TestCalculateNextDue_Cron(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(&domain.Schedule{CronExpr: "0 9 * * *"}, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), next)

	// 09:00 MSK = 06:00 UTC
	next, err = CalculateNextDue(&domain.Schedule{CronExpr: "0 9 * * *", Timezone: "Europe/Moscow"}, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), next)
}

func TestCalculateNextDue_Interval(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(&domain.Schedule{Interval: 90 * time.Second}, from)
	require.NoError(t, err)
	assert.Equal(t, from.Add(90*time.Second), next)
}

func TestCalculateNextDue_Invalid(t *testing.T) {
	from := time.Now()

	_, err := CalculateNextDue(&domain.Schedule{Name: "empty"}, from)
	assert.Error(t, err)

	_, err = CalculateNextDue(&domain.Schedule{Interval: time.Second, Timezone: "Mars/Olympus"}, from)
	assert.Error(t, err)
}

func TestValidateCronExpr(t *testing.T) {
	assert.NoError(t, ValidateCronExpr("*/5 * * * *"))
	assert.Error(t, ValidateCronExpr("every minute"))
	assert.Error(t, ValidateCronExpr("* * * * * *"))
}

func TestNew_InvalidCron(t *testing.T) {
	_, err := New(Config{Schedules: []config.ScheduleConfig{{
		Name:    "bad",
		Cron:    "not a cron",
		Actions: []map[string]any{{"url": "http://localhost"}},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schedule "bad"`)
}

func TestNew_InitialState(t *testing.T) {
	before := time.Now()
	s := newTestScheduler(t, &fakeTransport{}, &memoryRecorder{},
		config.ScheduleConfig{Name: "warmup", Interval: time.Minute, Actions: []map[string]any{{"url": "http://localhost"}}},
		config.ScheduleConfig{Name: "off", Interval: time.Minute, Disabled: true, Actions: []map[string]any{{"url": "http://localhost"}}},
	)

	schedules := s.Schedules()
	require.Len(t, schedules, 2)

	assert.True(t, schedules[0].Enabled)
	require.NotNil(t, schedules[0].NextDueAt)
	assert.False(t, schedules[0].NextDueAt.Before(before.Add(time.Minute)))
	assert.Nil(t, schedules[0].LastRunAt)

	assert.False(t, schedules[1].Enabled)
}

func TestTick_RunsDueSchedule(t *testing.T) {
	transport := &fakeTransport{body: map[string]any{"token": "t-1"}}
	rec := &memoryRecorder{}

	s := newTestScheduler(t, transport, rec, config.ScheduleConfig{
		Name:     "warmup",
		Interval: time.Minute,
		Context:  map[string]any{"region": "eu"},
		Actions: []map[string]any{
			{"name": "login", "url": "http://auth/{{ context.region }}/{{ schedule.name }}"},
			{"name": "ping", "url": "http://api/ping", "headers": map[string]any{"authorization": "Bearer {{ actions.login.token }}"}},
		},
	})

	now := time.Now().Add(2 * time.Minute)
	assert.Equal(t, 1, s.Tick(context.Background(), now))

	sent := transport.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "http://auth/eu/warmup", sent[0].URL)
	assert.Equal(t, "Bearer t-1", sent[1].Headers.Get("Authorization"))

	invs := rec.all()
	require.Len(t, invs, 2)
	assert.Equal(t, "schedule:warmup", invs[0].Route)
	assert.Equal(t, "login", invs[0].Action)
	assert.Equal(t, domain.InvocationStatusSucceeded, invs[0].Status)
	assert.Equal(t, http.StatusOK, invs[0].ResponseStatus)
	assert.False(t, invs[0].Dispatched)

	sched := s.Schedules()[0]
	require.NotNil(t, sched.LastRunAt)
	assert.Equal(t, now, *sched.LastRunAt)
	assert.Equal(t, now.Add(time.Minute).UTC(), *sched.NextDueAt)

	// следующий тик в то же время ничего не запускает
	assert.Equal(t, 0, s.Tick(context.Background(), now))
	assert.Len(t, transport.sent(), 2)
}

func TestTick_NotDue(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestScheduler(t, transport, &memoryRecorder{}, config.ScheduleConfig{
		Name:     "hourly",
		Interval: time.Hour,
		Actions:  []map[string]any{{"url": "http://api/ping"}},
	})

	assert.Equal(t, 0, s.Tick(context.Background(), time.Now()))
	assert.Empty(t, transport.sent())
}

func TestTick_SchedulesAvailableDuringSlowAction(t *testing.T) {
	transport := &blockingTransport{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestScheduler(t, transport, &memoryRecorder{}, config.ScheduleConfig{
		Name:     "slow",
		Interval: time.Minute,
		Actions:  []map[string]any{{"url": "http://api/slow"}},
	})

	now := time.Now().Add(2 * time.Minute)
	done := make(chan int, 1)
	go func() { done <- s.Tick(context.Background(), now) }()

	select {
	case <-transport.started:
	case <-time.After(5 * time.Second):
		t.Fatal("action was not sent")
	}

	listed := make(chan []domain.Schedule, 1)
	go func() { listed <- s.Schedules() }()

	select {
	case scheds := <-listed:
		require.Len(t, scheds, 1)
		assert.Nil(t, scheds[0].LastRunAt)
	case <-time.After(time.Second):
		close(transport.release)
		t.Fatal("Schedules blocked while tick was in flight")
	}

	close(transport.release)

	select {
	case fired := <-done:
		assert.Equal(t, 1, fired)
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not finish")
	}

	sched := s.Schedules()[0]
	require.NotNil(t, sched.LastRunAt)
	assert.Equal(t, now, *sched.LastRunAt)
}

func TestTick_FailureStopsRemainingActions(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	rec := &memoryRecorder{}

	s := newTestScheduler(t, transport, rec, config.ScheduleConfig{
		Name:     "sync",
		Interval: time.Minute,
		Actions: []map[string]any{
			{"name": "first", "url": "http://api/first"},
			{"name": "second", "url": "http://api/second"},
		},
	})

	now := time.Now().Add(2 * time.Minute)
	assert.Equal(t, 1, s.Tick(context.Background(), now))

	require.Len(t, transport.sent(), 1)
	invs := rec.all()
	require.Len(t, invs, 1)
	assert.Equal(t, domain.InvocationStatusFailed, invs[0].Status)
	assert.Equal(t, "http://api/first", invs[0].URL)
	assert.Contains(t, invs[0].Error, "connection refused")

	// расписание продвигается даже после ошибки
	assert.Equal(t, now.Add(time.Minute).UTC(), *s.Schedules()[0].NextDueAt)
}

func TestTick_InvalidDefinitionRecorded(t *testing.T) {
	transport := &fakeTransport{}
	rec := &memoryRecorder{}

	s := newTestScheduler(t, transport, rec, config.ScheduleConfig{
		Name:     "broken",
		Interval: time.Minute,
		Actions:  []map[string]any{{"method": "get"}},
	})

	s.Tick(context.Background(), time.Now().Add(2*time.Minute))

	assert.Empty(t, transport.sent())
	invs := rec.all()
	require.Len(t, invs, 1)
	assert.Equal(t, domain.InvocationStatusFailed, invs[0].Status)
	assert.Equal(t, "0", invs[0].Action)
}

func TestRun_FiresWhenLeader(t *testing.T) {
	transport := &fakeTransport{}
	locker := &fakeLocker{ok: true}

	s, err := New(Config{
		Schedules: []config.ScheduleConfig{{
			Name:     "fast",
			Interval: 10 * time.Millisecond,
			Actions:  []map[string]any{{"url": "http://api/ping"}},
		}},
		Registry:     action.DefaultRegistry(transport),
		Metrics:      telemetry.NewMetrics(prometheus.NewRegistry()),
		Locker:       locker,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		TickInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return len(transport.sent()) > 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.True(t, locker.unlocked)
}

func TestRun_SkipsWhenNotLeader(t *testing.T) {
	transport := &fakeTransport{}

	s, err := New(Config{
		Schedules: []config.ScheduleConfig{{
			Name:     "fast",
			Interval: time.Millisecond,
			Actions:  []map[string]any{{"url": "http://api/ping"}},
		}},
		Registry:     action.DefaultRegistry(transport),
		Metrics:      telemetry.NewMetrics(prometheus.NewRegistry()),
		Locker:       &fakeLocker{ok: false},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		TickInterval: time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	assert.Empty(t, transport.sent())
}
