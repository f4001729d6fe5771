package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// wsPair dials a throwaway server and returns the server-side conn together
// with the client end.
func wsPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- c
	}))
	t.Cleanup(srv.Close)
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	select {
	case sc := <-accepted:
		return sc, c
	case <-time.After(time.Second):
		t.Fatal("server conn never arrived")
		return nil, nil
	}
}

func TestPublishDelivers(t *testing.T) {
	h := NewHub()
	sc, cc := wsPair(t)
	h.Add("rider-1", sc)
	if err := h.Publish("rider-1", Event{Type: "origin_set"}); err != nil {
		t.Fatal(err)
	}
	var ev Event
	_ = cc.SetReadDeadline(time.Now().Add(time.Second))
	if err := cc.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "origin_set" {
		t.Fatalf("got %q", ev.Type)
	}
}

func TestReconnectKeepsFreshSession(t *testing.T) {
	h := NewHub()
	sc1, _ := wsPair(t)
	sc2, cc2 := wsPair(t)
	h.Add("rider-1", sc1)
	h.Add("rider-1", sc2)

	// the replaced connection's read loop dies and detaches; the fresh
	// session must survive
	h.Detach("rider-1", sc1)

	if err := h.Publish("rider-1", Event{Type: "submitted"}); err != nil {
		t.Fatalf("publish after reconnect: %v", err)
	}
	var ev Event
	_ = cc2.SetReadDeadline(time.Now().Add(time.Second))
	if err := cc2.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "submitted" {
		t.Fatalf("got %q", ev.Type)
	}
}

func TestDetachCurrentConn(t *testing.T) {
	h := NewHub()
	sc, _ := wsPair(t)
	h.Add("rider-1", sc)
	h.Detach("rider-1", sc)
	if err := h.Publish("rider-1", Event{Type: "submitted"}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRemoveDropsAnyConn(t *testing.T) {
	h := NewHub()
	sc, _ := wsPair(t)
	h.Add("rider-1", sc)
	h.Remove("rider-1")
	if err := h.Publish("rider-1", Event{Type: "submitted"}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
