package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/wire"
)

const (
	// DefaultHandshakeTimeout bounds the whole key exchange. Steady-state
	// messaging is not time-bounded.
	DefaultHandshakeTimeout = 30 * time.Second
	// DefaultQueueSize bounds the outbound frame queue.
	DefaultQueueSize = 16
)

// Config carries the explicit knobs of one session. Identities are opaque
// inputs from the settings collaborator; the session only validates them.
type Config struct {
	Local domain.Identity
	Peer  domain.Identity

	// HandshakeTimeout bounds the key exchange; zero means the default.
	HandshakeTimeout time.Duration
	// QueueSize bounds the outbound frame queue; zero means the default.
	QueueSize int
	// KeyBits overrides the RSA modulus size; zero means crypto.KeyBits.
	// Only tests shrink this.
	KeyBits int
}

func (c *Config) applyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.KeyBits == 0 {
		c.KeyBits = crypto.KeyBits
	}
}

// Session is one conversation with one peer over one transport. Create with
// New, drive with Run, feed outbound text through Send.
type Session struct {
	cfg       Config
	transport domain.Transport
	display   domain.Display
	log       *logging.Logger

	machine *Machine
	hs      *handshake

	// engine is written exactly once by the inbound path before established
	// is closed; everyone else reads it only after <-established. keyMu
	// keeps a late Send from racing the final wipe.
	keyMu  sync.RWMutex
	wiped  bool
	engine *crypto.Engine

	established chan struct{}
	done        chan struct{}
	outbound    chan string
}

// New validates the configuration and generates the session's key material.
func New(cfg Config, transport domain.Transport, display domain.Display, log *logging.Logger) (*Session, error) {
	cfg.applyDefaults()
	if err := cfg.Local.Validate(); err != nil {
		return nil, fmt.Errorf("local identity: %w", err)
	}
	if err := cfg.Peer.Validate(); err != nil {
		return nil, fmt.Errorf("peer identity: %w", err)
	}
	if cfg.Local == cfg.Peer {
		return nil, fmt.Errorf("local and peer identity are both %q", cfg.Local)
	}

	hs, err := newHandshake(cfg.Local, cfg.Peer, cfg.KeyBits)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:         cfg,
		transport:   transport,
		display:     display,
		log:         log,
		machine:     NewMachine(),
		hs:          hs,
		established: make(chan struct{}),
		done:        make(chan struct{}),
		outbound:    make(chan string, cfg.QueueSize),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	return s.machine.State()
}

// Run publishes our public key and drives both directions until the
// transport closes, the context is cancelled, or the handshake fails. It
// returns nil on clean closure and a domain.ErrHandshakeFailed-wrapping
// error when the session never established. Key material is released before
// Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.machine.Transition(domain.StateAwaitingPeerKey); err != nil {
		return err
	}

	errc := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.writeLoop(ctx, errc) }()
	go func() { defer wg.Done(); s.readLoop(ctx, errc) }()

	// The queue is empty at this point, so the publish cannot block.
	s.outbound <- s.hs.publicFrame()
	s.log.Infof("%s: published public key, waiting for %s", s.cfg.Local, s.cfg.Peer)
	s.display.Status(fmt.Sprintf("waiting for %s...", s.cfg.Peer))

	timer := time.NewTimer(s.cfg.HandshakeTimeout)
	defer timer.Stop()

	runErr := s.wait(ctx, errc, timer)

	// Unblock both directions, join them, then release every secret so no
	// residual task can touch wiped keys.
	cancel()
	_ = s.transport.Close()
	close(s.done)
	wg.Wait()
	s.release()
	s.log.Infof("%s: session with %s ended in state %s", s.cfg.Local, s.cfg.Peer, s.machine.State())
	return runErr
}

// wait blocks until a termination condition and settles the terminal state.
func (s *Session) wait(ctx context.Context, errc <-chan error, timer *time.Timer) error {
	estCh := s.established
	for {
		select {
		case <-timer.C:
			if s.machine.State() == domain.StateEstablished {
				continue
			}
			_ = s.machine.Transition(domain.StateFailed)
			return fmt.Errorf("peer %q did not complete the key exchange in time: %w",
				s.cfg.Peer, domain.ErrHandshakeFailed)

		case <-estCh:
			timer.Stop()
			estCh = nil

		case <-ctx.Done():
			s.settleClosure()
			return nil

		case err := <-errc:
			switch {
			case errors.Is(err, domain.ErrTransportClosed):
				if s.machine.State() == domain.StateEstablished {
					_ = s.machine.Transition(domain.StateClosed)
					s.display.Status(fmt.Sprintf("%s has disconnected", s.cfg.Peer))
					return nil
				}
				_ = s.machine.Transition(domain.StateFailed)
				return fmt.Errorf("transport closed before the key exchange completed: %w",
					domain.ErrHandshakeFailed)

			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				s.settleClosure()
				return nil

			default:
				_ = s.machine.Transition(domain.StateFailed)
				return err
			}
		}
	}
}

// settleClosure records a user-initiated termination.
func (s *Session) settleClosure() {
	if s.machine.State() == domain.StateEstablished {
		_ = s.machine.Transition(domain.StateClosed)
		return
	}
	_ = s.machine.Transition(domain.StateFailed)
}

// Send seals and queues one plaintext message. It blocks until the session
// is established, the context is cancelled, or the session ends.
func (s *Session) Send(ctx context.Context, text string) error {
	select {
	case <-s.established:
	case <-s.done:
		return fmt.Errorf("session is %s, cannot send: %w", s.machine.State(), domain.ErrProtocolPhase)
	case <-ctx.Done():
		return ctx.Err()
	}

	s.keyMu.RLock()
	if s.wiped {
		s.keyMu.RUnlock()
		return fmt.Errorf("session is %s, cannot send: %w", s.machine.State(), domain.ErrProtocolPhase)
	}
	sealed, err := s.engine.Seal([]byte(text))
	s.keyMu.RUnlock()
	if err != nil {
		return fmt.Errorf("sealing message: %w", err)
	}
	frame := wire.Encode(s.cfg.Local, wire.EncodeBody(domain.KindMessage, sealed))

	select {
	case s.outbound <- frame:
		return nil
	case <-s.done:
		return fmt.Errorf("session ended before the message was queued: %w", domain.ErrTransportClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release wipes all key material. Runs exactly once, after both loops have
// been joined; keyMu holds off any Send still in flight.
func (s *Session) release() {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.wiped = true
	s.hs.wipe()
	if s.engine != nil {
		s.engine.Wipe()
	}
}
