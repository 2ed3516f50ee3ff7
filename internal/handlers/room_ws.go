// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/tienlen/internal/middleware"
	"github.com/jason-s-yu/tienlen/internal/room"
	"github.com/sirupsen/logrus"
)

const (
	subprotocol   = "tienlen"
	maxRoomIDLen  = 64
	pingInterval  = 30 * time.Second
	writeTimeout  = 5 * time.Second
	readLimitSize = 4096
)

// RoomWSHandler serves /ws and /ws/{roomId}. A room id in the path is used
// for join frames that carry none; otherwise the registry's default room is.
func RoomWSHandler(logger *logrus.Logger, reg *room.Registry, outbox int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathRoom := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws"), "/")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if r.Header.Get("Sec-WebSocket-Protocol") != "" && c.Subprotocol() != subprotocol {
			c.Close(BadSubprotocolError, "client must speak the tienlen subprotocol")
			return
		}
		if len(pathRoom) > maxRoomIDLen || strings.Contains(pathRoom, "/") {
			c.Close(InvalidRoomIDError, "invalid room id")
			return
		}
		c.SetReadLimit(readLimitSize)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := room.NewConnection(uuid.NewString(), outbox, cancel, logger)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		go writePump(ctx, c, conn, logger)
		readErr := readPump(ctx, c, reg, conn, pathRoom, logger)

		reg.Disconnect(conn.ID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump decodes frames and hands them to the registry until the socket
// closes. It returns the read error unless the close was normal.
func readPump(ctx context.Context, c *websocket.Conn, reg *room.Registry, conn *room.Connection, pathRoom string, logger *logrus.Logger) error {
	log := logger.WithField("conn", conn.ID)
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		msg, err := room.DecodeInbound(data)
		if err != nil {
			log.Debugf("bad frame: %v", err)
			conn.WriteError(err.Error())
			continue
		}
		if join, ok := msg.(room.JoinRequest); ok && join.RoomID == "" && pathRoom != "" {
			join.RoomID = pathRoom
			msg = join
		}
		reg.Dispatch(conn, msg)
	}
}

// writePump drains the connection's outbox onto the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.Connection, logger *logrus.Logger) {
	log := logger.WithField("conn", conn.ID)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-conn.OutChan:
			data, err := room.Encode(n)
			if err != nil {
				log.Warnf("failed to marshal %s: %v", room.TypeOf(n), err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warnf("failed to write to websocket: %v", err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed: %v, assuming disconnect", err)
				conn.Cancel()
				return
			}
		}
	}
}
