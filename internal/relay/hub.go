package relay

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"
	"nhooyr.io/websocket"

	"parley/internal/domain"
)

// pendingLimit caps how many frames the hub will hold for a peer that has
// not connected yet. The handshake needs at most two.
const pendingLimit = 32

// Hub pairs connections and forwards frames between them. One Hub serves
// any number of independent conversations; each identity may be connected
// once at a time. Frames are opaque to the hub; identities are the only
// thing it sees.
type Hub struct {
	log *logging.Logger

	mu      sync.Mutex
	conns   map[domain.Identity]*member
	pending map[domain.Identity][]string
}

type member struct {
	conn *websocket.Conn
	peer domain.Identity
	// ready is closed once frames parked before this member connected have
	// been delivered; direct forwards wait on it so per-direction order is
	// preserved.
	ready chan struct{}
}

// NewHub returns an empty hub.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:     log,
		conns:   make(map[domain.Identity]*member),
		pending: make(map[domain.Identity][]string),
	}
}

// ServeHTTP upgrades GET /ws/<user>@<peer> and relays frames until the
// connection drops. When one side goes, the counterpart socket is closed so
// the peer observes transport closure instead of hanging.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, peer, err := parsePairing(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warningf("upgrade failed for %s: %v", user, err)
		return
	}

	me, parked, ok := h.register(user, peer, conn)
	if !ok {
		h.log.Warningf("identity %s is already connected", user)
		conn.Close(websocket.StatusPolicyViolation, "identity already connected")
		return
	}
	h.log.Infof("%s connected, paired with %s", user, peer)

	// Deliver anything the peer sent while this side was absent, then open
	// the gate for live forwards.
	for _, frame := range parked {
		if err := conn.Write(r.Context(), websocket.MessageText, []byte(frame)); err != nil {
			break
		}
	}
	close(me.ready)

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			break
		}
		h.forward(r.Context(), user, peer, string(data))
	}

	h.unregister(user, peer)
	conn.Close(websocket.StatusNormalClosure, "")
	h.log.Infof("%s disconnected", user)
}

// parsePairing extracts and validates the two identities from
// /ws/<user>@<peer>.
func parsePairing(path string) (user, peer domain.Identity, err error) {
	pairing, ok := strings.CutPrefix(path, "/ws/")
	if !ok {
		return "", "", fmt.Errorf("path must be /ws/<user>@<peer>")
	}
	u, p, ok := strings.Cut(pairing, "@")
	if !ok {
		return "", "", fmt.Errorf("pairing must be <user>@<peer>")
	}
	user, peer = domain.Identity(u), domain.Identity(p)
	if err := user.Validate(); err != nil {
		return "", "", err
	}
	if err := peer.Validate(); err != nil {
		return "", "", err
	}
	if user == peer {
		return "", "", fmt.Errorf("cannot pair %q with itself", u)
	}
	return user, peer, nil
}

// register claims the user identity and atomically drains frames parked for
// it, so nothing can slip in between connection and flush.
func (h *Hub) register(user, peer domain.Identity, conn *websocket.Conn) (*member, []string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.conns[user]; taken {
		return nil, nil, false
	}
	me := &member{conn: conn, peer: peer, ready: make(chan struct{})}
	h.conns[user] = me
	parked := h.pending[user]
	delete(h.pending, user)
	return me, parked, true
}

func (h *Hub) unregister(user, peer domain.Identity) {
	h.mu.Lock()
	counterpart := h.conns[peer]
	delete(h.conns, user)
	delete(h.pending, user)
	h.mu.Unlock()

	// Closing the counterpart socket is the disconnect signal; clients map
	// it to their transport-closed error.
	if counterpart != nil && counterpart.peer == user {
		counterpart.conn.Close(websocket.StatusGoingAway, "peer disconnected")
	}
}

// forward delivers one frame to the peer, or parks it if the peer has not
// connected yet. Frames to a peer whose park buffer is full are dropped;
// the protocol above treats loss as a handshake timeout or resend case.
func (h *Hub) forward(ctx context.Context, from, to domain.Identity, frame string) {
	h.mu.Lock()
	target := h.conns[to]
	if target == nil || target.peer != from {
		if len(h.pending[to]) < pendingLimit {
			h.pending[to] = append(h.pending[to], frame)
		} else {
			h.log.Warningf("dropping frame from %s: buffer for %s is full", from, to)
		}
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	select {
	case <-target.ready:
	case <-ctx.Done():
		return
	}
	if err := target.conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		h.log.Warningf("forward from %s to %s failed: %v", from, to, err)
	}
}
