package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-posemix/pkg/control"
	"github.com/teslashibe/go-posemix/pkg/playback"
	"github.com/teslashibe/go-posemix/pkg/visual"
)

type fixedStatus playback.Status

func (f fixedStatus) Status() playback.Status { return playback.Status(f) }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := NewServer(":0", opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { s.Shutdown() })
	return s
}

func do(t *testing.T, s *Server, method, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(method, path, nil))
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestServer_Status(t *testing.T) {
	s := newTestServer(t, Options{Status: fixedStatus{Tick: 42, Mode: "split", Visual: "Skeleton"}})

	resp, body := do(t, s, http.MethodGet, "/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	var got playback.Status
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if got.Tick != 42 || got.Visual != "Skeleton" {
		t.Errorf("status = %+v", got)
	}
}

func TestServer_StatusWithoutLoop(t *testing.T) {
	s := newTestServer(t, Options{})
	resp, _ := do(t, s, http.MethodGet, "/api/status")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", resp.StatusCode)
	}
}

func TestServer_Visuals(t *testing.T) {
	catalog, err := visual.NewCatalog(t.TempDir(), "", visual.Builtins()...)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, Options{Catalog: catalog})

	_, body := do(t, s, http.MethodGet, "/api/visuals")
	var got []VisualInfo
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != catalog.Len() {
		t.Fatalf("len = %d, want %d", len(got), catalog.Len())
	}
	if got[0].Name != "Motion Trails" || got[0].Index != 0 {
		t.Errorf("first visual = %+v", got[0])
	}
	if got[0].Audio {
		t.Error("visual without a sound file reported audio")
	}
	if len(got[0].Keypoints) == 0 {
		t.Error("keypoints missing")
	}
}

func TestServer_Control(t *testing.T) {
	inbox := control.NewInbox(1)
	s := newTestServer(t, Options{Inbox: inbox})

	resp, _ := do(t, s, http.MethodPost, "/api/control/select:3")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202", resp.StatusCode)
	}
	resp, _ = do(t, s, http.MethodPost, "/api/control/next_mode")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("full inbox: status code = %d, want 503", resp.StatusCode)
	}
	resp, _ = do(t, s, http.MethodPost, "/api/control/dance")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action: status code = %d, want 400", resp.StatusCode)
	}

	evs := inbox.Drain()
	if len(evs) != 1 || evs[0] != control.SelectVisual(3) {
		t.Errorf("queued = %v, want [select:3]", evs)
	}
}

func TestServer_Frame(t *testing.T) {
	var frame []byte
	s := newTestServer(t, Options{Preview: func() []byte { return frame }})

	resp, _ := do(t, s, http.MethodGet, "/api/frame.jpg")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("no frame: status code = %d, want 404", resp.StatusCode)
	}

	frame = []byte{0xff, 0xd8, 0xff, 0xd9}
	resp, body := do(t, s, http.MethodGet, "/api/frame.jpg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if len(body) != len(frame) {
		t.Errorf("body len = %d, want %d", len(body), len(frame))
	}
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t, Options{})
	resp, _ := do(t, s, http.MethodGet, "/ws/status")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status code = %d, want 426", resp.StatusCode)
	}
}
