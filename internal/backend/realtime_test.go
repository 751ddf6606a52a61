package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestFeedTopic(t *testing.T) {
	tests := []struct {
		name   string
		table  string
		column string
		value  string
		want   string
	}{
		{
			name:   "filtered",
			table:  "notifications",
			column: "profile_id",
			value:  "p1",
			want:   "realtime:public:notifications:profile_id=eq.p1",
		},
		{
			name:  "unfiltered",
			table: "posts",
			want:  "realtime:public:posts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := feedTopic(tt.table, tt.column, tt.value); got != tt.want {
				t.Errorf("feedTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

// feedServer upgrades the test connection and plays back the given
// messages after receiving the join frame.
func feedServer(t *testing.T, messages []feedMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var join feedMessage
		if err := conn.ReadJSON(&join); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		if join.Event != "phx_join" {
			t.Errorf("first frame event = %q, want phx_join", join.Event)
		}

		for _, msg := range messages {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}

		// Hold the connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func insertMessage(topic, id string) feedMessage {
	payload, _ := json.Marshal(map[string]any{"record": map[string]string{"id": id}})
	return feedMessage{Topic: topic, Event: "INSERT", Payload: payload}
}

func TestSubscribeInserts_DeliversInOrder(t *testing.T) {
	topic := feedTopic("notifications", "profile_id", "p1")
	srv := feedServer(t, []feedMessage{
		insertMessage(topic, "n1"),
		// Other-topic noise must be ignored
		insertMessage("realtime:public:posts", "x1"),
		insertMessage(topic, "n2"),
	})
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zap.NewNop())
	sub, err := c.SubscribeInserts(context.Background(), "notifications", "profile_id", "p1")
	if err != nil {
		t.Fatalf("SubscribeInserts() error = %v", err)
	}
	defer sub.Unsubscribe()

	var got []string
	for len(got) < 2 {
		select {
		case ev, ok := <-sub.Inserts:
			if !ok {
				t.Fatalf("Inserts closed early, got %v", got)
			}
			got = append(got, ev.RecordID)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}

	if got[0] != "n1" || got[1] != "n2" {
		t.Errorf("events = %v, want [n1 n2]", got)
	}
}

func TestChangeSub_SerializesConnectionWrites(t *testing.T) {
	srv := feedServer(t, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zap.NewNop())
	sub, err := c.SubscribeInserts(context.Background(), "posts", "", "")
	if err != nil {
		t.Fatalf("SubscribeInserts() error = %v", err)
	}

	// The socket allows one writer at a time and panics on overlap:
	// hammer it from several writers while the teardown sends its
	// leave frame.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			msg := feedMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     fmt.Sprint(n),
			}
			for j := 0; j < 50; j++ {
				_ = sub.writeJSON(msg)
			}
		}(i)
	}
	sub.Unsubscribe()
	wg.Wait()
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	topic := feedTopic("posts", "", "")
	srv := feedServer(t, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zap.NewNop())
	sub, err := c.SubscribeInserts(context.Background(), "posts", "", "")
	if err != nil {
		t.Fatalf("SubscribeInserts() error = %v", err)
	}
	if sub.topic != topic {
		t.Errorf("topic = %q, want %q", sub.topic, topic)
	}

	sub.Unsubscribe()
	// Safe to call twice
	sub.Unsubscribe()

	select {
	case _, ok := <-sub.Inserts:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Error("Inserts not closed after Unsubscribe")
	}
}
