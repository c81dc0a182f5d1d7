package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/engine"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

// Client is one live editing session. Its engine is only touched by
// ReadPump.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	engine *engine.Engine
	log    *zap.Logger
	ID     string
}

func NewClient(hub *Hub, conn *websocket.Conn, id string, log *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		engine: engine.NewEngine(hub.engineOpts...),
		log:    log.With(zap.String("session", id)),
		ID:     id,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			c.log.Debug("read error", zap.Error(err))
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("invalid message", zap.Error(err))
			c.sendError(errors.New("invalid message"))
			continue
		}
		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.log.Debug("write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("client send buffer full, dropping message", zap.String("type", msg.Type))
	}
}

func (c *Client) sendPayload(typ string, payload interface{}) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		c.log.Error("marshal payload", zap.String("type", typ), zap.Error(err))
		return
	}
	c.Send(msg)
}

func (c *Client) sendState() {
	c.sendPayload(TypeState, c.engine.Snapshot())
}

func (c *Client) sendError(err error) {
	c.sendPayload(TypeError, ErrorPayload{Message: err.Error()})
}

func (c *Client) handleMessage(msg *Message) {
	var err error
	switch msg.Type {
	case TypePointerDown:
		err = c.handlePointerDown(msg.Payload)
	case TypePointerMove:
		err = c.handlePointerMove(msg.Payload)
	case TypePointerUp:
		c.engine.PointerUp()
		c.sendState()
	case TypeRectSet:
		err = c.handleRectSet(msg.Payload)
	case TypeGridSet:
		err = c.handleGridSet(msg.Payload)
	case TypeHandleHit:
		err = c.handleHit(msg.Payload)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		c.log.Debug("message rejected", zap.String("type", msg.Type), zap.Error(err))
		c.sendError(err)
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (c *Client) handlePointerDown(raw json.RawMessage) error {
	var p PointerDownPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if err := c.engine.PointerDown(p.Kind, p.Handle, p.Lat, p.Lng); err != nil {
		return err
	}
	c.sendState()
	return nil
}

// A move that the engine rejects is dropped without a reply.
func (c *Client) handlePointerMove(raw json.RawMessage) error {
	var p PointerPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if c.engine.PointerMove(p.Lat, p.Lng) {
		c.sendState()
	}
	return nil
}

func (c *Client) handleRectSet(raw json.RawMessage) error {
	var p RectSetPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if c.engine.Dragging() {
		return engine.ErrDragInProgress
	}
	if err := c.engine.SetExtents(p.ExtentX, p.ExtentY); err != nil {
		return err
	}
	if err := c.engine.SetOrigin(p.OriginLat, p.OriginLng); err != nil {
		return err
	}
	if err := c.engine.SetRotation(p.Rotation); err != nil {
		return err
	}
	c.sendState()
	return nil
}

func (c *Client) handleGridSet(raw json.RawMessage) error {
	var p engine.GridParams
	if err := decode(raw, &p); err != nil {
		return err
	}
	c.engine.SetGrid(p)
	c.sendState()
	return nil
}

func (c *Client) handleHit(raw json.RawMessage) error {
	var p HandleHitPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	c.sendPayload(TypeHit, HitPayload{Handle: c.engine.HitTest(p.Lat, p.Lng, p.ToleranceKm)})
	return nil
}
