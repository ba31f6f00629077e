package session

import (
	"context"
	"fmt"

	"parley/internal/domain"
	"parley/internal/wire"
)

// readLoop drives the inbound path: receive, decode, phase-checked dispatch.
// It is the only goroutine that mutates session state and key material, and
// only until the session is established.
func (s *Session) readLoop(ctx context.Context, errc chan<- error) {
	for {
		frame, err := s.transport.Receive(ctx)
		if err != nil {
			errc <- err
			return
		}
		if err := s.handleFrame(ctx, frame); err != nil {
			errc <- err
			return
		}
	}
}

// writeLoop drains the outbound queue onto the transport, preserving the
// order in which frames were queued.
func (s *Session) writeLoop(ctx context.Context, errc chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.outbound:
			if err := s.transport.Send(ctx, frame); err != nil {
				errc <- err
				return
			}
		}
	}
}

// handleFrame dispatches one inbound frame. A nil return means the loop
// continues: recoverable conditions (malformed frames, out-of-phase
// payloads, undecryptable messages) are surfaced as notices and discarded.
// A non-nil return is fatal to the session.
func (s *Session) handleFrame(ctx context.Context, frame string) error {
	payload, err := wire.DecodePayload(frame)
	if err != nil {
		s.log.Warningf("%s: discarding inbound frame: %v", s.cfg.Local, err)
		s.display.Alert("received a malformed frame; discarded")
		return nil
	}
	if payload.From != s.cfg.Peer {
		s.log.Warningf("%s: frame claims sender %q, expected %q", s.cfg.Local, payload.From, s.cfg.Peer)
		s.display.Alert(fmt.Sprintf("discarded frame from unexpected sender %q", payload.From))
		return nil
	}

	switch payload.Kind {
	case domain.KindPublicKey:
		return s.handlePeerKey(ctx, payload)
	case domain.KindSessionKey:
		return s.handleSessionKey(payload)
	case domain.KindMessage:
		s.handleMessage(payload)
	}
	return nil
}

// handlePeerKey answers the peer's public key with our wrapped contribution.
func (s *Session) handlePeerKey(ctx context.Context, payload domain.Payload) error {
	if s.machine.State() != domain.StateAwaitingPeerKey {
		s.rejectPhase(payload.Kind)
		return nil
	}
	keyFrame, err := s.hs.acceptPeerKey(payload.Body)
	if err != nil {
		return err
	}
	if err := s.machine.Transition(domain.StateKeyExchangeInFlight); err != nil {
		return err
	}
	s.log.Debugf("%s: accepted public key from %s, sending wrapped contribution", s.cfg.Local, payload.From)
	return s.enqueue(ctx, keyFrame)
}

// handleSessionKey completes the key exchange.
func (s *Session) handleSessionKey(payload domain.Payload) error {
	if s.machine.State() != domain.StateKeyExchangeInFlight {
		s.rejectPhase(payload.Kind)
		return nil
	}
	engine, err := s.hs.acceptContribution(payload.Body)
	if err != nil {
		return err
	}
	s.engine = engine
	if err := s.machine.Transition(domain.StateEstablished); err != nil {
		return err
	}
	close(s.established)
	s.log.Infof("%s: session with %s established", s.cfg.Local, s.cfg.Peer)
	s.display.Status(fmt.Sprintf("secure session with %s established", s.cfg.Peer))
	return nil
}

// handleMessage opens an ordinary encrypted message. Decryption failures are
// per-message: the peer might resend, the session continues.
func (s *Session) handleMessage(payload domain.Payload) {
	if s.machine.State() != domain.StateEstablished {
		s.rejectPhase(payload.Kind)
		return
	}
	plaintext, err := s.engine.Open(payload.Body)
	if err != nil {
		s.log.Warningf("%s: message from %s: %v", s.cfg.Local, payload.From, err)
		s.display.Alert(fmt.Sprintf("could not decrypt a message from %s; discarded", payload.From))
		return
	}
	s.display.Message(payload.From, string(plaintext))
}

// rejectPhase surfaces a protocol-phase violation and discards the frame.
func (s *Session) rejectPhase(kind domain.PayloadKind) {
	state := s.machine.State()
	s.log.Warningf("%s: payload kind %q rejected in state %s: %v", s.cfg.Local, kind, state, domain.ErrProtocolPhase)
	s.display.Alert(fmt.Sprintf("discarded out-of-phase %q payload in state %s", kind, state))
}

// enqueue hands a frame to the writer without blocking past cancellation.
func (s *Session) enqueue(ctx context.Context, frame string) error {
	select {
	case s.outbound <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
