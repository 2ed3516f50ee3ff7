// internal/room/connection.go
package room

import (
	"github.com/sirupsen/logrus"
)

// Connection is one client's outbound sink. The transport drains OutChan;
// sessions only ever call Write.
type Connection struct {
	ID      string
	Cancel  func()
	OutChan chan Notification

	log *logrus.Entry
}

// NewConnection builds a connection with an outbox of the given size.
func NewConnection(id string, outbox int, cancel func(), logger *logrus.Logger) *Connection {
	if outbox <= 0 {
		outbox = 1
	}
	return &Connection{
		ID:      id,
		Cancel:  cancel,
		OutChan: make(chan Notification, outbox),
		log:     logger.WithField("conn", id),
	}
}

// Write queues n without blocking. If the outbox is full the message is dropped.
func (c *Connection) Write(n Notification) {
	select {
	case c.OutChan <- n:
	default:
		c.log.Warnf("outbox full, dropped %s", n.notificationType())
	}
}

// WriteError sends an error notice.
func (c *Connection) WriteError(msg string) {
	c.Write(ErrorNotice{Message: msg})
}
