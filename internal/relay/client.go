package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/op/go-logging.v1"
	"nhooyr.io/websocket"

	"parley/internal/domain"
)

// Client is a websocket transport to the relay, scoped to one pairing.
type Client struct {
	conn *websocket.Conn
	log  *logging.Logger
}

// Dial connects to the relay and registers under user, paired with peer.
// base may use an http(s) or ws(s) scheme.
func Dial(ctx context.Context, base string, user, peer domain.Identity, log *logging.Logger) (*Client, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := peer.Validate(); err != nil {
		return nil, err
	}
	u := strings.TrimRight(base, "/") + "/ws/" + url.PathEscape(string(user)+"@"+string(peer))
	conn, resp, err := websocket.Dial(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing relay %s: %w", base, err)
	}
	// Frames are small; the default 32KiB read limit is ample even for a
	// 4096-bit public key frame.
	log.Infof("connected to relay %s as %s (peer %s)", base, user, peer)
	return &Client{conn: conn, log: log}, nil
}

// Send writes one frame.
func (c *Client) Send(ctx context.Context, frame string) error {
	if err := c.conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		return c.mapErr("send", err)
	}
	return nil
}

// Receive blocks for the next frame. Once the relay or peer side goes away
// it returns an error wrapping domain.ErrTransportClosed.
func (c *Client) Receive(ctx context.Context) (string, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return "", c.mapErr("receive", err)
	}
	return string(data), nil
}

// Close tears the connection down; pending reads and writes unblock. The
// error from closing an already-dead socket carries no information, so it
// is dropped.
func (c *Client) Close() error {
	_ = c.conn.Close(websocket.StatusNormalClosure, "session ended")
	return nil
}

// mapErr passes cancellation through and folds every form of connection
// teardown (close frames, EOF, reset sockets) into ErrTransportClosed.
func (c *Client) mapErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if status := websocket.CloseStatus(err); status != -1 {
		c.log.Debugf("relay %s: peer closed with status %v", op, status)
	}
	return fmt.Errorf("relay %s: %w", op, domain.ErrTransportClosed)
}

var _ domain.Transport = (*Client)(nil)
