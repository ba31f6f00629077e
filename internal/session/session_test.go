package session_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/log"
	"parley/internal/session"
	"parley/internal/wire"
)

// memTransport is one end of an in-memory duplex channel pair. Closing
// either end closes both, the way the relay drops the counterpart socket.
type memTransport struct {
	in     <-chan string
	out    chan<- string
	closed chan struct{}
	once   *sync.Once
}

func transportPair() (*memTransport, *memTransport) {
	ab := make(chan string, 64)
	ba := make(chan string, 64)
	closed := make(chan struct{})
	once := new(sync.Once)
	a := &memTransport{in: ba, out: ab, closed: closed, once: once}
	b := &memTransport{in: ab, out: ba, closed: closed, once: once}
	return a, b
}

func (t *memTransport) Send(ctx context.Context, frame string) error {
	select {
	case t.out <- frame:
		return nil
	case <-t.closed:
		return fmt.Errorf("send on closed channel: %w", domain.ErrTransportClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTransport) Receive(ctx context.Context) (string, error) {
	select {
	case frame := <-t.in:
		return frame, nil
	case <-t.closed:
		return "", fmt.Errorf("receive on closed channel: %w", domain.ErrTransportClosed)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *memTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

var _ domain.Transport = (*memTransport)(nil)

// recorder captures display output and signals each event on a channel.
type recorder struct {
	mu       sync.Mutex
	messages []string
	alerts   []string
	statuses []string

	gotMessage chan string
	gotAlert   chan string
	gotStatus  chan string
}

func newRecorder() *recorder {
	return &recorder{
		gotMessage: make(chan string, 16),
		gotAlert:   make(chan string, 16),
		gotStatus:  make(chan string, 16),
	}
}

func (r *recorder) Message(from domain.Identity, text string) {
	r.mu.Lock()
	r.messages = append(r.messages, string(from)+": "+text)
	r.mu.Unlock()
	r.gotMessage <- text
}

func (r *recorder) Status(text string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, text)
	r.mu.Unlock()
	r.gotStatus <- text
}

func (r *recorder) Alert(text string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, text)
	r.mu.Unlock()
	r.gotAlert <- text
}

var _ domain.Display = (*recorder)(nil)

func testConfig(local, peer domain.Identity) session.Config {
	return session.Config{
		Local:            local,
		Peer:             peer,
		HandshakeTimeout: 5 * time.Second,
		KeyBits:          1024, // keep the suite fast; live sessions use crypto.KeyBits
	}
}

func newTestSession(t *testing.T, cfg session.Config, tr domain.Transport, d domain.Display) *session.Session {
	t.Helper()
	backend, err := log.New("", "CRITICAL", true)
	require.NoError(t, err)
	s, err := session.New(cfg, tr, d, backend.GetLogger("session"))
	require.NoError(t, err)
	return s
}

func waitFor(t *testing.T, ch <-chan string, what string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

// waitForContains drains ch until an entry contains substr.
func waitForContains(t *testing.T, ch <-chan string, substr, what string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-ch:
			if strings.Contains(v, substr) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func TestSession_AliceAndBobExchangeHello(t *testing.T) {
	ta, tb := transportPair()
	aliceDisplay, bobDisplay := newRecorder(), newRecorder()
	alice := newTestSession(t, testConfig("alice", "bob"), ta, aliceDisplay)
	bob := newTestSession(t, testConfig("bob", "alice"), tb, bobDisplay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- alice.Run(ctx) }()
	go func() { errs <- bob.Run(ctx) }()

	require.NoError(t, alice.Send(ctx, "hello"))
	got := waitFor(t, bobDisplay.gotMessage, "bob to receive the message")
	require.Equal(t, "hello", got)
	require.Equal(t, domain.StateEstablished, alice.State())
	require.Equal(t, domain.StateEstablished, bob.State())

	// Replies flow the other way over the same channel.
	require.NoError(t, bob.Send(ctx, "hi alice"))
	require.Equal(t, "hi alice", waitFor(t, aliceDisplay.gotMessage, "alice to receive the reply"))

	cancel()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, domain.StateClosed, alice.State())
	require.Equal(t, domain.StateClosed, bob.State())
}

// TestSession_WireLevelPeer drives the bob side of the protocol by hand so
// the test controls exactly what arrives, and in what order, on alice's
// transport.
func TestSession_WireLevelPeer(t *testing.T) {
	ta, tb := transportPair()
	display := newRecorder()
	alice := newTestSession(t, testConfig("alice", "bob"), ta, display)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- alice.Run(ctx) }()

	recv := func() domain.Payload {
		t.Helper()
		frame, err := tb.Receive(ctx)
		require.NoError(t, err)
		p, err := wire.DecodePayload(frame)
		require.NoError(t, err)
		return p
	}
	send := func(frame string) {
		t.Helper()
		require.NoError(t, tb.Send(ctx, frame))
	}

	// Alice publishes her public key first.
	pub := recv()
	require.Equal(t, domain.KindPublicKey, pub.Kind)
	alicePub, err := crypto.ParsePublic(pub.Body)
	require.NoError(t, err)

	// An ordinary message before the handshake completes is rejected as a
	// phase violation and must not corrupt the exchange.
	send(wire.Encode("bob", wire.EncodeBody(domain.KindMessage, []byte("too early"))))
	require.Contains(t, waitFor(t, display.gotAlert, "phase violation alert"), "out-of-phase")

	// Bob's side of the handshake, by hand.
	bobKeys, err := crypto.GenerateKeyPair(1024)
	require.NoError(t, err)
	bobContribution, err := crypto.NewContribution()
	require.NoError(t, err)

	send(wire.Encode("bob", wire.EncodeBody(domain.KindPublicKey, bobKeys.PublicDER())))

	wrapped := recv()
	require.Equal(t, domain.KindSessionKey, wrapped.Kind)
	aliceContribution, err := bobKeys.Unwrap(wrapped.Body)
	require.NoError(t, err)

	blob, err := alicePub.Wrap(bobContribution)
	require.NoError(t, err)
	send(wire.Encode("bob", wire.EncodeBody(domain.KindSessionKey, blob)))

	waitForContains(t, display.gotStatus, "established", "establishment status")
	require.Equal(t, domain.StateEstablished, alice.State())

	// Bob derives the same session keys and can open what alice seals.
	bobSessionKeys, err := crypto.DeriveSessionKeys("bob", "alice", bobContribution, aliceContribution)
	require.NoError(t, err)
	bobEngine := crypto.NewEngine(bobSessionKeys)

	require.NoError(t, alice.Send(ctx, "hello"))
	msg := recv()
	require.Equal(t, domain.KindMessage, msg.Kind)
	plaintext, err := bobEngine.Open(msg.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(plaintext))

	// A frame with no delimiter at all is malformed; the session stays up.
	send("bob")
	require.Contains(t, waitFor(t, display.gotAlert, "malformed frame alert"), "malformed")
	require.Equal(t, domain.StateEstablished, alice.State())

	// A message sealed under a different session key fails per-message.
	otherContribution, err := crypto.NewContribution()
	require.NoError(t, err)
	otherKeys, err := crypto.DeriveSessionKeys("bob", "alice", bobContribution, otherContribution)
	require.NoError(t, err)
	sealed, err := crypto.NewEngine(otherKeys).Seal([]byte("garbled"))
	require.NoError(t, err)
	send(wire.Encode("bob", wire.EncodeBody(domain.KindMessage, sealed)))
	require.Contains(t, waitFor(t, display.gotAlert, "decryption alert"), "decrypt")
	require.Equal(t, domain.StateEstablished, alice.State())

	// Handshake payloads after establishment are phase violations too.
	send(wire.Encode("bob", wire.EncodeBody(domain.KindPublicKey, bobKeys.PublicDER())))
	require.Contains(t, waitFor(t, display.gotAlert, "late handshake alert"), "out-of-phase")

	cancel()
	require.NoError(t, <-runErr)
	require.Equal(t, domain.StateClosed, alice.State())
}

func TestSession_HandshakeTimeout(t *testing.T) {
	ta, _ := transportPair()
	cfg := testConfig("alice", "bob")
	cfg.HandshakeTimeout = 100 * time.Millisecond
	alice := newTestSession(t, cfg, ta, newRecorder())

	start := time.Now()
	err := alice.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrHandshakeFailed)
	require.Equal(t, domain.StateFailed, alice.State())
	require.Less(t, time.Since(start), 3*time.Second, "timeout must not hang")

	// Terminal sessions reject further sends.
	err = alice.Send(context.Background(), "anyone there?")
	require.ErrorIs(t, err, domain.ErrProtocolPhase)
}

func TestSession_TransportClosesDuringHandshake(t *testing.T) {
	ta, tb := transportPair()
	alice := newTestSession(t, testConfig("alice", "bob"), ta, newRecorder())

	require.NoError(t, tb.Close())
	err := alice.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrHandshakeFailed)
	require.Equal(t, domain.StateFailed, alice.State())
}

func TestSession_TransportClosesMidConversation(t *testing.T) {
	ta, tb := transportPair()
	aliceDisplay, bobDisplay := newRecorder(), newRecorder()
	alice := newTestSession(t, testConfig("alice", "bob"), ta, aliceDisplay)
	bob := newTestSession(t, testConfig("bob", "alice"), tb, bobDisplay)

	ctx := context.Background()
	errs := make(chan error, 2)
	go func() { errs <- alice.Run(ctx) }()
	go func() { errs <- bob.Run(ctx) }()

	require.NoError(t, alice.Send(ctx, "hello"))
	waitFor(t, bobDisplay.gotMessage, "bob to receive the message")

	// Drop the wire out from under both sides.
	require.NoError(t, ta.Close())
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, domain.StateClosed, alice.State())
	require.Equal(t, domain.StateClosed, bob.State())
}

func TestSession_RejectsBadIdentities(t *testing.T) {
	ta, _ := transportPair()
	backend, err := log.New("", "CRITICAL", true)
	require.NoError(t, err)
	logger := backend.GetLogger("session")

	for _, cfg := range []session.Config{
		{Local: "al|ice", Peer: "bob"},
		{Local: "alice", Peer: "bob@home"},
		{Local: "", Peer: "bob"},
		{Local: "same", Peer: "same"},
	} {
		cfg.KeyBits = 1024
		_, err := session.New(cfg, ta, newRecorder(), logger)
		require.Error(t, err, "config %+v", cfg)
	}
}
