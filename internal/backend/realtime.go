package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// heartbeatInterval keeps the feed socket alive; the server drops
	// silent connections after roughly a minute.
	heartbeatInterval = 25 * time.Second

	insertBufferSize = 32
)

// InsertEvent is delivered for each row inserted into a subscribed table.
// Only the primary key travels on the feed; callers fetch the full row.
type InsertEvent struct {
	Table    string
	RecordID string
}

// ChangeSub is a live subscription to insert events on one table.
// Inserts is closed after Unsubscribe (or a connection loss).
type ChangeSub struct {
	Inserts <-chan InsertEvent

	topic   string
	conn    *websocket.Conn
	inserts chan InsertEvent
	done    chan struct{}
	once    sync.Once
	log     *zap.Logger

	// writeMu serializes connection writes: the socket allows only one
	// concurrent writer, and the heartbeat can tick while a teardown
	// sends the leave frame.
	writeMu sync.Mutex
}

// feedMessage is the wire envelope of the change feed.
type feedMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// insertPayload carries the inserted row; only the id is consumed.
type insertPayload struct {
	Record struct {
		ID string `json:"id"`
	} `json:"record"`
}

// feedTopic builds the subscription topic for a table with an optional
// equality filter, e.g. "realtime:public:notifications:profile_id=eq.42".
func feedTopic(table, filterColumn, filterValue string) string {
	topic := "realtime:public:" + table
	if filterColumn != "" {
		topic += ":" + filterColumn + "=eq." + filterValue
	}
	return topic
}

// SubscribeInserts opens a change-feed subscription for inserts on table,
// optionally filtered by an equality predicate on one column. Pass empty
// filter arguments for an unfiltered subscription.
func (c *Client) SubscribeInserts(ctx context.Context, table, filterColumn, filterValue string) (*ChangeSub, error) {
	wsURL, err := c.feedURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	sub := &ChangeSub{
		topic:   feedTopic(table, filterColumn, filterValue),
		conn:    conn,
		inserts: make(chan InsertEvent, insertBufferSize),
		done:    make(chan struct{}),
		log:     c.log,
	}
	sub.Inserts = sub.inserts

	join := feedMessage{Topic: sub.topic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	if err := sub.writeJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join topic: %w", err)
	}

	go sub.heartbeatLoop()
	go sub.readPump(table)

	c.log.Info("change feed subscribed", zap.String("topic", sub.topic))
	return sub, nil
}

func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}
	u.Path = "/realtime/v1/websocket"
	u.RawQuery = url.Values{"apikey": {c.anonKey}, "vsn": {"1.0.0"}}.Encode()
	return u.String(), nil
}

// readPump decodes feed messages and forwards INSERT events in arrival
// order. It owns closing the Inserts channel.
func (s *ChangeSub) readPump(table string) {
	defer close(s.inserts)

	for {
		var msg feedMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
				// Unsubscribed; the read error is the closed socket
			default:
				s.log.Warn("change feed closed", zap.String("topic", s.topic), zap.Error(err))
				s.shutdown()
			}
			return
		}

		if msg.Topic != s.topic || !strings.EqualFold(msg.Event, "insert") {
			continue
		}

		var payload insertPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Record.ID == "" {
			s.log.Warn("malformed insert event", zap.String("topic", s.topic), zap.Error(err))
			continue
		}

		// Blocking send preserves server order; done unblocks teardown.
		select {
		case s.inserts <- InsertEvent{Table: table, RecordID: payload.Record.ID}:
		case <-s.done:
			return
		}
	}
}

func (s *ChangeSub) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ref := 2
	for {
		select {
		case <-ticker.C:
			msg := feedMessage{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: fmt.Sprint(ref)}
			ref++
			if err := s.writeJSON(msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *ChangeSub) writeJSON(msg feedMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Events returns the insert event channel. Same channel as Inserts.
func (s *ChangeSub) Events() <-chan InsertEvent {
	return s.Inserts
}

// Unsubscribe leaves the topic and closes the socket. Safe to call more
// than once; events for other user contexts can never arrive after it
// returns because the connection itself is gone.
func (s *ChangeSub) Unsubscribe() {
	s.shutdown()
}

func (s *ChangeSub) shutdown() {
	s.once.Do(func() {
		close(s.done)
		leave := feedMessage{Topic: s.topic, Event: "phx_leave", Payload: json.RawMessage(`{}`), Ref: "leave"}
		_ = s.writeJSON(leave)
		_ = s.conn.Close()
	})
}
