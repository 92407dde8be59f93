package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// feedEvent is what the notification service sends per change. Only the
// fact that something changed matters to subscribers; Table and Event
// are logged for debugging.
type feedEvent struct {
	Table string `json:"table"`
	Event string `json:"event"`
}

// Feed is a websocket client for the remote change-notification stream.
// Every received event invokes the subscriber's callback; payload-based
// diffing is deliberately not attempted.
type Feed struct {
	url string
	log *logrus.Entry
}

func NewFeed(url string, log *logrus.Entry) *Feed {
	return &Feed{url: url, log: log}
}

// Subscribe dials the feed and pumps change events to onChange until the
// returned Unsubscribe is called or the connection drops.
func (f *Feed) Subscribe(onChange func()) (Unsubscribe, error) {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return nil, &RemoteError{Op: "subscribe to change feed", Err: err}
	}

	done := make(chan struct{})
	go f.readPump(conn, onChange, done)
	go f.pingLoop(conn, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}, nil
}

func (f *Feed) readPump(conn *websocket.Conn, onChange func(), done <-chan struct{}) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					f.log.WithError(err).Warn("change feed closed unexpectedly")
				}
			}
			return
		}

		var event feedEvent
		if err := json.Unmarshal(message, &event); err != nil {
			f.log.WithError(err).Debug("unparseable feed message, treating as change")
		} else {
			f.log.WithFields(logrus.Fields{"table": event.Table, "event": event.Event}).Debug("remote change")
		}
		onChange()
	}
}

func (f *Feed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
