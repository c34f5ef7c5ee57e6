package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/course"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/runlog"
	"github.com/nerrad567/parkrunner-core/internal/steering"
	"github.com/nerrad567/parkrunner-core/internal/telemetry"
)

// ─── Test Doubles ──────────────────────────────────────────────────

type fakeStatus struct {
	status controller.Status
	panic  bool
}

func (f *fakeStatus) Status() controller.Status {
	if f.panic {
		panic("status exploded")
	}
	return f.status
}

type fakeTuner struct {
	mu    sync.Mutex
	gains steering.Gains
	glue  steering.Glue
}

func (f *fakeTuner) Gains() steering.Gains {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gains
}

func (f *fakeTuner) SetGains(g steering.Gains) {
	f.mu.Lock()
	f.gains = g
	f.mu.Unlock()
}

func (f *fakeTuner) Glue() steering.Glue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glue
}

func (f *fakeTuner) SetGlue(g steering.Glue) {
	f.mu.Lock()
	f.glue = g
	f.mu.Unlock()
}

type fakeGainStore struct {
	saved   *steering.Gains
	saveErr error
}

func (f *fakeGainStore) Load(context.Context) (steering.Gains, error) {
	if f.saved == nil {
		return steering.Gains{}, steering.ErrNoGains
	}
	return *f.saved, nil
}

func (f *fakeGainStore) Save(_ context.Context, g steering.Gains) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &g
	return nil
}

// mockRunRepo serves a fixed set of runs.
type mockRunRepo struct {
	runs      map[string]*runlog.Run
	listLimit int
	listErr   error
}

func (m *mockRunRepo) Create(context.Context, *runlog.Run) error { return nil }
func (m *mockRunRepo) Finish(context.Context, string, runlog.Outcome, string) error {
	return nil
}
func (m *mockRunRepo) AppendAction(context.Context, string, nav.ActionRecord, time.Time) error {
	return nil
}
func (m *mockRunRepo) AppendEvent(context.Context, string, nav.Event) error { return nil }

func (m *mockRunRepo) Get(_ context.Context, id string) (*runlog.Run, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, runlog.ErrRunNotFound
	}
	return run, nil
}

func (m *mockRunRepo) List(_ context.Context, limit int) ([]runlog.Run, error) {
	m.listLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]runlog.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return log
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
}

// testServer creates a Server with every collaborator faked.
func testServer(t *testing.T) (*Server, *fakeTuner, *fakeGainStore, *mockRunRepo) {
	t.Helper()

	tuner := &fakeTuner{gains: steering.Gains{P: 10, I: 20, D: 1}}
	store := &fakeGainStore{}
	runs := &mockRunRepo{runs: map[string]*runlog.Run{
		"run-1": {ID: "run-1", RobotID: "parkrunner-01", Outcome: runlog.OutcomeCompleted},
	}}
	log := testLogger(t)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS:     testWSConfig(),
		Logger: log,
		Status: &fakeStatus{status: controller.Status{
			State:    controller.StateRunning,
			Current:  &nav.ActionRecord{Kind: nav.KindPark, Seq: 4, Side: "right"},
			Position: &course.Position{Index: 2, Node: "L03A", Nodes: []string{"L00A", "I01", "L03A", "I01", "I00"}},
		}},
		Route: &Route{
			Map:   "course.map",
			Base:  "old",
			Lots:  []int{3},
			Nodes: []string{"L00A", "I01", "L03A", "I01", "I00"},
			Cost:  42,
			Turns: []Turn{{Node: "I01", Angle: 90}},
		},
		Gains:       tuner,
		GainStore:   store,
		Runs:        runs,
		RunID:       "run-1",
		ExternalHub: NewHub(testWSConfig(), log, "run-1"),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, tuner, store, runs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

// ─── Constructor ───────────────────────────────────────────────────

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}

// ─── Health and Middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _, _, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
}

func TestRequestID(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestRecovery(t *testing.T) {
	srv, _, _, _ := testServer(t)
	srv.status = &fakeStatus{panic: true}

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", w.Code)
	}
}

func TestNotFound(t *testing.T) {
	srv, _, _, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Status and Route ──────────────────────────────────────────────

func TestStatus(t *testing.T) {
	srv, _, _, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}

	var resp StatusResponse
	decode(t, w, &resp)
	if resp.RunID != "run-1" || resp.State != controller.StateRunning {
		t.Errorf("status = %+v", resp)
	}
	if resp.Current == nil || resp.Current.Kind != nav.KindPark || resp.Current.Side != "right" {
		t.Errorf("current = %+v", resp.Current)
	}
	if resp.Position == nil || resp.Position.Index != 2 || resp.Position.Node != "L03A" {
		t.Errorf("position = %+v, want index 2 at L03A", resp.Position)
	}
}

func TestUnavailableCollaborators(t *testing.T) {
	srv, err := New(Deps{Logger: testLogger(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	router := srv.buildRouter()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/status", ""},
		{http.MethodGet, "/api/v1/route", ""},
		{http.MethodGet, "/api/v1/steering/gains", ""},
		{http.MethodPut, "/api/v1/steering/gains", `{"p":1,"i":2,"d":3}`},
		{http.MethodGet, "/api/v1/steering/glue", ""},
		{http.MethodPut, "/api/v1/steering/glue", `{"glue":"left"}`},
		{http.MethodGet, "/api/v1/runs", ""},
		{http.MethodGet, "/api/v1/runs/run-1", ""},
		{http.MethodGet, "/ws", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", w.Code)
			}
			var e Error
			decode(t, w, &e)
			if e.Code != ErrCodeUnavailable {
				t.Errorf("code = %q, want %q", e.Code, ErrCodeUnavailable)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	srv, _, _, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/route", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var r Route
	decode(t, w, &r)
	if len(r.Nodes) != 5 || r.Nodes[2] != "L03A" || r.Cost != 42 {
		t.Errorf("route = %+v", r)
	}
	if len(r.Turns) != 1 || r.Turns[0].Angle != 90 {
		t.Errorf("turns = %+v", r.Turns)
	}
}

// ─── Steering Gains ────────────────────────────────────────────────

func TestGetGains(t *testing.T) {
	srv, _, _, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/steering/gains", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var g steering.Gains
	decode(t, w, &g)
	if g != (steering.Gains{P: 10, I: 20, D: 1}) {
		t.Errorf("gains = %+v", g)
	}
}

func TestSetGains(t *testing.T) {
	srv, tuner, store, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/steering/gains", `{"p":12,"i":18,"d":0.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	want := steering.Gains{P: 12, I: 18, D: 0.5}
	if got := tuner.Gains(); got != want {
		t.Errorf("live gains = %+v, want %+v", got, want)
	}
	if store.saved == nil || *store.saved != want {
		t.Errorf("saved gains = %+v, want %+v", store.saved, want)
	}
}

func TestSetGains_InvalidJSON(t *testing.T) {
	srv, tuner, store, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/steering/gains", `{"p":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if tuner.Gains().P != 10 || store.saved != nil {
		t.Error("invalid body must not change gains")
	}
}

func TestSetGains_StoreFailure(t *testing.T) {
	srv, tuner, store, _ := testServer(t)
	store.saveErr = errors.New("disk full")

	w := do(t, srv.buildRouter(), http.MethodPut, "/api/v1/steering/gains", `{"p":1,"i":2,"d":3}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if tuner.Gains().P != 1 {
		t.Error("live gains should be applied even when saving fails")
	}
}

func TestSteeringGlue(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantGlue steering.Glue
	}{
		{"left", `{"glue":"left"}`, http.StatusOK, steering.GlueLeft},
		{"right upper case", `{"glue":"RIGHT"}`, http.StatusOK, steering.GlueRight},
		{"release", `{"glue":"none"}`, http.StatusOK, steering.GlueNone},
		{"unknown mode", `{"glue":"up"}`, http.StatusBadRequest, steering.GlueLeft},
		{"invalid JSON", `{"glue":`, http.StatusBadRequest, steering.GlueLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, tuner, store, _ := testServer(t)
			tuner.SetGlue(steering.GlueLeft)
			router := srv.buildRouter()

			w := do(t, router, http.MethodPut, "/api/v1/steering/glue", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if got := tuner.Glue(); got != tt.wantGlue {
				t.Errorf("live glue = %v, want %v", got, tt.wantGlue)
			}
			if store.saved != nil {
				t.Error("glue must not be persisted")
			}

			w = do(t, router, http.MethodGet, "/api/v1/steering/glue", "")
			var body GlueBody
			decode(t, w, &body)
			if body.Glue != tt.wantGlue.String() {
				t.Errorf("GET glue = %q, want %q", body.Glue, tt.wantGlue.String())
			}
		})
	}
}

// ─── Run History ───────────────────────────────────────────────────

func TestListRuns(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{"default limit", "", http.StatusOK, 0},
		{"explicit limit", "?limit=5", http.StatusOK, 5},
		{"zero", "?limit=0", http.StatusBadRequest, -1},
		{"too large", "?limit=501", http.StatusBadRequest, -1},
		{"not a number", "?limit=ten", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _, runs := testServer(t)
			runs.listLimit = -1

			w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/runs"+tt.query, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if runs.listLimit != tt.wantLimit {
				t.Errorf("List limit = %d, want %d", runs.listLimit, tt.wantLimit)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Runs  []runlog.Run `json:"runs"`
				Count int          `json:"count"`
			}
			decode(t, w, &resp)
			if resp.Count != 1 || resp.Runs[0].ID != "run-1" {
				t.Errorf("runs = %+v", resp)
			}
		})
	}
}

func TestListRuns_RepositoryError(t *testing.T) {
	srv, _, _, runs := testServer(t)
	runs.listErr = errors.New("database is locked")

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/runs", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	srv, _, _, _ := testServer(t)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/runs/run-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var run runlog.Run
	decode(t, w, &run)
	if run.ID != "run-1" || run.Outcome != runlog.OutcomeCompleted {
		t.Errorf("run = %+v", run)
	}

	w = do(t, router, http.MethodGet, "/api/v1/runs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", w.Code)
	}
}

// ─── Hub ───────────────────────────────────────────────────────────

func newTestClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: subs,
	}
	hub.Register(client)
	return client
}

// frameMessage is a WSMessage whose payload is a telemetry frame.
type frameMessage struct {
	Type      string          `json:"type"`
	EventType string          `json:"event_type"`
	Payload   telemetry.Frame `json:"payload"`
}

func receive(t *testing.T, c *WSClient) frameMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg frameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}
	return frameMessage{}
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger(t), "run-1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	events := newTestClient(hub, ChannelEvents)
	other := newTestClient(hub, ChannelStatus)

	hub.OnEvent(nav.NewEvent(nav.IntersectionDetected))

	msg := receive(t, events)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelEvents {
		t.Errorf("message = %+v", msg)
	}
	if msg.Payload.Type != telemetry.FrameEvent || msg.Payload.RunID != "run-1" ||
		msg.Payload.Event == nil || msg.Payload.Event.Name != "intersection_detected" {
		t.Errorf("frame = %+v", msg.Payload)
	}

	select {
	case <-other.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ObserverFrames(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger(t), "run-7")
	client := newTestClient(hub, ChannelActions, ChannelStatus)

	hub.OnAction(nav.Intersection{Sequence: 2, Angle: -90})
	hub.OnActionDone(nav.Intersection{Sequence: 2, Angle: -90}, time.Second, nil)
	hub.OnFinish(errors.New("bridge offline"))

	action := receive(t, client)
	if action.EventType != ChannelActions || action.Payload.Action == nil || action.Payload.Action.Angle != -90 {
		t.Errorf("action message = %+v", action)
	}

	running := receive(t, client)
	if running.EventType != ChannelStatus || running.Payload.Status == nil ||
		running.Payload.Status.State != controller.StateRunning || running.Payload.Status.Action == nil {
		t.Errorf("running message = %+v", running)
	}

	final := receive(t, client)
	if st := final.Payload.Status; st == nil || st.State != controller.StateFailed || st.Error != "bridge offline" {
		t.Errorf("final status = %+v", final.Payload.Status)
	}
}

func TestHub_StatusCarriesPosition(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger(t), "run-8")
	hub.SetTracker(course.NewScripted(nav.LineFollow{Sequence: 0, From: "A", To: "B"}))
	client := newTestClient(hub, ChannelStatus)

	hub.OnAction(nav.LineFollow{Sequence: 0, From: "A", To: "B"})
	hub.OnFinish(nil)

	running := receive(t, client)
	if st := running.Payload.Status; st == nil || st.State != controller.StateRunning || st.Index != 0 {
		t.Errorf("running status = %+v", running.Payload.Status)
	}
	final := receive(t, client)
	if st := final.Payload.Status; st == nil || st.State != controller.StateFinished || st.Index != 0 {
		t.Errorf("final status = %+v", final.Payload.Status)
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub(testWSConfig(), testLogger(t), "")

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := newTestClient(hub)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}

	// A second unregister must not close the channel twice.
	hub.Unregister(client)
}

// ─── Lifecycle and WebSocket ───────────────────────────────────────

func TestServer_StartAndClose(t *testing.T) {
	// Reserve a free port, then release it for the server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     port,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS:      testWSConfig(),
		Logger:  testLogger(t),
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if srv.Hub() == nil {
		t.Error("Start should create a hub")
	}

	url := "http://" + srv.server.Addr + "/api/v1/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health check status = %d, want 200", resp.StatusCode)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := http.Get(url); err == nil {
		t.Error("server still responding after Close()")
	}
}

func TestWebSocket_SubscribeAndReceive(t *testing.T) {
	srv, _, _, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?channels=status"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	defer ws.Close() //nolint:errcheck // Test cleanup

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelEvents}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test deadline
	var ack WSMessage
	if err := ws.ReadJSON(&ack); err != nil {
		t.Fatalf("read response: %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "sub-1" {
		t.Errorf("ack = %+v", ack)
	}

	srv.hub.OnEvent(nav.Approaching(0.12))
	srv.hub.OnFinish(nil)

	var evt frameMessage
	if err := ws.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.EventType != ChannelEvents || evt.Payload.Event == nil || evt.Payload.Event.Distance != 0.12 {
		t.Errorf("event = %+v", evt)
	}

	var st frameMessage
	if err := ws.ReadJSON(&st); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.EventType != ChannelStatus || st.Payload.Status == nil || st.Payload.Status.State != controller.StateFinished {
		t.Errorf("status = %+v", st)
	}
}

func TestWebSocket_UnknownMessage(t *testing.T) {
	srv, _, _, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer ws.Close() //nolint:errcheck // Test cleanup

	if err := ws.WriteJSON(WSMessage{Type: "launch", ID: "x-1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test deadline
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != WSTypeError || msg.ID != "x-1" {
		t.Errorf("message = %+v", msg)
	}
}
