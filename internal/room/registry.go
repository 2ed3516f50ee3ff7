// internal/room/registry.go
package room

import (
	"errors"
	"sort"
	"sync"

	"github.com/jason-s-yu/tienlen/internal/game"
	"github.com/sirupsen/logrus"
)

// Registry owns the live sessions and the connection to room bindings.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	bindings map[string]*Session // connection id -> session
	closed   bool

	opts   Options
	logger *logrus.Logger
}

// NewRegistry creates an empty registry. Sessions are created lazily by Join.
func NewRegistry(logger *logrus.Logger, opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		bindings: make(map[string]*Session),
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// DefaultRoom is the room used for joins without a room id.
func (r *Registry) DefaultRoom() string {
	return r.opts.DefaultRoom
}

// Join seats conn in roomID, creating the room if needed.
func (r *Registry) Join(conn *Connection, roomID, displayName string) (int, error) {
	if roomID == "" {
		roomID = r.opts.DefaultRoom
	}
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return -1, ErrRoomClosed
		}
		if _, ok := r.bindings[conn.ID]; ok {
			r.mu.Unlock()
			return -1, ErrAlreadySeated
		}
		s, ok := r.sessions[roomID]
		if !ok {
			s = newSession(roomID, r.opts, r.logger, r.forget)
			r.sessions[roomID] = s
			r.logger.WithField("room", roomID).Info("room created")
		}
		r.mu.Unlock()

		seat, err := s.Join(conn, displayName)
		if errors.Is(err, ErrRoomClosed) {
			// emptied between lookup and join; forget has dropped it
			r.mu.Lock()
			if r.sessions[roomID] == s {
				delete(r.sessions, roomID)
			}
			r.mu.Unlock()
			continue
		}
		if err != nil {
			return -1, err
		}

		r.mu.Lock()
		r.bindings[conn.ID] = s
		r.mu.Unlock()
		return seat, nil
	}
}

// ToggleReady flips the ready flag of conn's seat.
func (r *Registry) ToggleReady(conn *Connection) error {
	s, err := r.bound(conn.ID)
	if err != nil {
		return err
	}
	return s.ToggleReady(conn.ID)
}

// PlayCards submits a play for conn's seat.
func (r *Registry) PlayCards(conn *Connection, cards []game.Card) error {
	s, err := r.bound(conn.ID)
	if err != nil {
		return err
	}
	return s.PlayCards(conn.ID, cards)
}

// SkipTurn passes for conn's seat.
func (r *Registry) SkipTurn(conn *Connection) error {
	s, err := r.bound(conn.ID)
	if err != nil {
		return err
	}
	return s.SkipTurn(conn.ID)
}

// Leave vacates conn's seat. The room is destroyed when its last seat empties.
func (r *Registry) Leave(conn *Connection) error {
	return r.vacate(conn.ID, "player left")
}

// Disconnect is Leave for a connection whose transport has gone away. It is
// a no-op for unbound connections.
func (r *Registry) Disconnect(connID string) {
	if err := r.vacate(connID, "player disconnected"); err != nil && !errors.Is(err, ErrNotSeated) {
		r.logger.WithField("conn", connID).Warnf("disconnect: %v", err)
	}
}

func (r *Registry) vacate(connID, reason string) error {
	r.mu.Lock()
	s, ok := r.bindings[connID]
	delete(r.bindings, connID)
	r.mu.Unlock()
	if !ok {
		return ErrNotSeated
	}
	return s.Leave(connID, reason)
}

// Dispatch applies a decoded inbound message from conn and reports
// rejections back to conn.
func (r *Registry) Dispatch(conn *Connection, msg Inbound) {
	var err error
	switch m := msg.(type) {
	case JoinRequest:
		roomID := m.RoomID
		if roomID == "" {
			roomID = r.opts.DefaultRoom
		}
		_, err = r.Join(conn, roomID, m.DisplayName)
		switch {
		case errors.Is(err, ErrRoomFull):
			conn.Write(RoomFull{RoomID: roomID})
			return
		case errors.Is(err, ErrAlreadyStarted):
			conn.Write(AlreadyStarted{RoomID: roomID})
			return
		}
	case ToggleReady:
		err = r.ToggleReady(conn)
	case PlayCards:
		err = r.PlayCards(conn, m.Cards)
	case SkipTurn:
		err = r.SkipTurn(conn)
	case Leave:
		err = r.Leave(conn)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrNotSeated):
		conn.WriteError("join a room first")
	case errors.Is(err, ErrAlreadySeated):
		conn.WriteError("already seated in a room")
	default:
		conn.WriteError(err.Error())
	}
}

// Rooms lists live rooms ordered by id.
func (r *Registry) Rooms() []Summary {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		sum, err := s.Summary()
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every session and refuses further joins.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.bindings = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	r.logger.Infof("registry closed %d rooms", len(sessions))
}

func (r *Registry) bound(connID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bindings[connID]
	if !ok {
		return nil, ErrNotSeated
	}
	return s, nil
}

// forget runs on a session's worker as it stops.
func (r *Registry) forget(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.id] == s {
		delete(r.sessions, s.id)
	}
}
