/**
 * WebSocket Streams.
 *
 * /ws/scan/dynamic (alias /ws/dynamic-scan) streams Finding JSON as
 * they are saved; /ws/device-alerts streams {mac, first_seen} the
 * first time each MAC is ever seen. Each connection owns a Store
 * subscription for its lifetime and unsubscribes on disconnect.
 * See spec.md §6/§9.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 10 * time.Second

func (s *Server) handleWSFindings(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("api: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id, ch := s.store.Subscribe()
	defer s.store.Unsubscribe(id)

	go drainClientReads(conn)

	for finding := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(finding); err != nil {
			return
		}
	}
}

func (s *Server) handleWSDeviceAlerts(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("api: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id, ch := s.store.SubscribeDeviceAlerts()
	defer s.store.UnsubscribeDeviceAlerts(id)

	go drainClientReads(conn)

	for alert := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(alert); err != nil {
			return
		}
	}
}

// drainClientReads discards inbound frames so gorilla/websocket's
// control-frame (ping/close) handling keeps running; this stream is
// write-only from the server's side.
func drainClientReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
