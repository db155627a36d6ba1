package app

import (
	"LoraReport/internal/model"
	"LoraReport/internal/parser"
	"LoraReport/internal/schema"
	"LoraReport/internal/store"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	reg := schema.NewRegistry()
	if err := reg.RegisterTask(1, 12); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterTask(2, 9); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterTemplate(1, []uint8{2, 1}); err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewApp(st, reg, NewHub(parser.NewCSVParser()))
}

func putRecords(t *testing.T, a *App, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := &model.Record{
			Received: time.Date(2026, 10, 14, 9, 0, i, 0, time.UTC),
			Mode:     "key_value",
			Tasks:    []uint8{1},
			Values:   map[uint8][]byte{1: {byte(i), 0x00}},
		}
		if _, err := a.Store.Put(rec); err != nil {
			t.Fatal(err)
		}
	}
}

func get(t *testing.T, a *App, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	a.Mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestLatestEmpty(t *testing.T) {
	a := newTestApp(t)
	if rr := get(t, a, "/api/reports/latest"); rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestLatestAndList(t *testing.T) {
	a := newTestApp(t)
	putRecords(t, a, 3)

	rr := get(t, a, "/api/reports/latest")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var doc parser.Document
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Seq != 3 || doc.Values["1"] != "0200" {
		t.Fatalf("latest = %+v", doc)
	}

	rr = get(t, a, "/api/reports?limit=2")
	var docs []parser.Document
	if err := json.NewDecoder(rr.Body).Decode(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Seq != 3 || docs[1].Seq != 2 {
		t.Fatalf("list = %+v", docs)
	}

	for _, bad := range []string{"0", "-1", "many"} {
		if rr := get(t, a, "/api/reports?limit="+bad); rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d", bad, rr.Code)
		}
	}
}

func TestSchemaEndpoint(t *testing.T) {
	a := newTestApp(t)
	rr := get(t, a, "/api/schema")
	var doc schemaDoc
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Tasks) != 2 || doc.Tasks[1].ReportMessageSize != 9 {
		t.Fatalf("tasks = %+v", doc.Tasks)
	}
	if len(doc.Templates) != 1 || doc.Templates[0].Tasks[0] != 2 {
		t.Fatalf("templates = %+v", doc.Templates)
	}
}

func TestHubBroadcast(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(logRequests(a.Mux))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.Hub.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	a.Hub.Publish(model.Record{
		Seq:    7,
		Mode:   "key_value",
		Tasks:  []uint8{2, 1},
		Values: map[uint8][]byte{1: {0x77, 0xF0}, 2: {0xFF, 0x80}},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if want := "7,key_value,0,2=ff80;1=77f0"; string(msg) != want {
		t.Fatalf("got %q, want %q", msg, want)
	}

	a.Hub.Close()
	if a.Hub.Subscribers() != 0 {
		t.Fatal("subscribers left after Close")
	}
}

func TestStartEmptyAddr(t *testing.T) {
	a := newTestApp(t)
	if err := a.Start(""); err != nil {
		t.Fatal(err)
	}
	a.Stop()
}

func TestStopRightAfterStart(t *testing.T) {
	a := newTestApp(t)
	done := make(chan error, 1)
	go func() { done <- a.Start("127.0.0.1:0") }()
	a.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if addr := a.Addr(); addr != "" {
		if conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
			_ = conn.Close()
			t.Fatalf("server still listening on %s after Stop", addr)
		}
	}
}

func TestStopWhileServing(t *testing.T) {
	a := newTestApp(t)
	done := make(chan error, 1)
	go func() { done <- a.Start("127.0.0.1:0") }()

	deadline := time.Now().Add(2 * time.Second)
	for a.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	addr := a.Addr()
	if addr == "" {
		t.Fatal("server never listened")
	}
	resp, err := http.Get("http://" + addr + "/api/schema")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	a.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if _, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		t.Fatalf("server still listening on %s after Stop", addr)
	}
}
