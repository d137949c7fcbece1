package websocket

import (
	"context"
	"errors"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one subscriber on a family feed. The feed is one way: anything the
// browser sends is read only to notice the close.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	familyID int64
	userID   int64
	send     chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, familyID, userID int64) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		familyID: familyID,
		userID:   userID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Run subscribes the client and blocks until either side hangs up.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := c.deliver(ctx)
		cancel()
		done <- err
	}()

	err := c.drain(ctx)
	cancel()
	if werr := <-done; werr != nil && !errors.Is(werr, context.Canceled) {
		err = werr
	}

	status := ws.CloseStatus(err)
	if status == ws.StatusNormalClosure || status == ws.StatusGoingAway {
		c.hub.logger.Debug("websocket closed", "family_id", c.familyID, "user_id", c.userID)
		return
	}
	c.hub.logger.Debug("websocket dropped", "family_id", c.familyID, "user_id", c.userID, "error", err)
	c.conn.Close(ws.StatusInternalError, "")
}

func (c *Client) drain(ctx context.Context) error {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return err
		}
	}
}

// deliver writes queued notices and pings on an interval so dead peers are
// noticed even when the family is quiet.
func (c *Client) deliver(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.write(ctx, msg); err != nil {
				return err
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
