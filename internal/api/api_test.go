package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/gjallar/internal/clock"
	"github.com/friendsincode/gjallar/internal/events"
	"github.com/friendsincode/gjallar/internal/jingle"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/playlist"
	"github.com/friendsincode/gjallar/internal/playout"
	"github.com/friendsincode/gjallar/internal/schedule"
)

type nopPlayer struct{}

type nopHandle struct{}

func (nopHandle) State() player.State { return player.StatePlaying }
func (nopHandle) Pause() error        { return nil }
func (nopHandle) Resume() error       { return nil }
func (nopHandle) Stop() error         { return nil }

func (nopPlayer) Play(_ context.Context, _ player.MediaRef) (player.Handle, error) {
	return nopHandle{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *API, context.CancelFunc) {
	t.Helper()

	logger := zerolog.Nop()
	clk := clock.System()
	cursor := playlist.NewCursor()
	pool := jingle.NewPool()
	engine := schedule.NewEngine(clk, logger)
	bus := events.NewBus()
	coord := playout.NewCoordinator(cursor, pool, jingle.NewSeededSelector(1), engine, nopPlayer{}, bus, clk, 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = coord.Run(ctx) }()

	a := New(coord, cursor, pool, engine, nil, bus, nil, logger)
	r := chi.NewRouter()
	a.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)
	return srv, a, cancel
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestPlaylistAddListRemove(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/playlist/", mediaRequest{Path: "/music/a.mp3", Title: "A"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	var created player.MediaRef
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if created.ID == "" {
		t.Fatal("created item has no id")
	}

	resp, err := http.Get(srv.URL + "/api/v1/playlist/")
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Items    []player.MediaRef `json:"items"`
		Position int               `json:"position"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(listed.Items) != 1 || listed.Items[0].Path != "/music/a.mp3" {
		t.Fatalf("listed = %+v", listed)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/playlist/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/playlist/"+created.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second remove status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPlaylistAddRejectsEmptyPath(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/v1/playlist/", mediaRequest{Title: "no path"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSchedulePerHourValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/schedule/per-hour", map[string]int{"per_hour": -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative per_hour status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/v1/schedule/per-hour", map[string]int{"per_hour": 4})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("per_hour status = %d", resp.StatusCode)
	}
	var snap schedule.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap.Mode != schedule.ModePerHour || snap.PerHour != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestScheduleFixedTimes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/schedule/times", map[string]string{"time": "25:00"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad literal status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/schedule/times", map[string]string{"time": "08:30"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add time status = %d", resp.StatusCode)
	}
	var snap schedule.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap.Mode != schedule.ModeFixedTimes || len(snap.FixedTimes) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/schedule/times/08:30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove time status = %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap.Mode != schedule.ModeNone || len(snap.FixedTimes) != 0 {
		t.Fatalf("snapshot after removal = %+v", snap)
	}
}

func TestTransportAndStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/playlist/", mediaRequest{Path: "/music/a.mp3"})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/v1/transport/start", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/api/v1/status")
		if err != nil {
			t.Fatal(err)
		}
		var st playout.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if st.Phase == playout.PhasePlayingMain {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("phase = %s, want playing_main", st.Phase)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp = postJSON(t, srv.URL+"/api/v1/transport/stop", nil)
	resp.Body.Close()
}
