package app

import (
	"context"
	"time"

	"parley/internal/domain"
	"parley/internal/log"
	"parley/internal/relay"
	"parley/internal/session"
)

// Wire bundles the long-lived pieces the commands need.
type Wire struct {
	Cfg Config
	Log *log.Backend
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	backend, err := log.New(cfg.LogFile, cfg.LogLevel, false)
	if err != nil {
		return nil, err
	}
	return &Wire{Cfg: cfg, Log: backend}, nil
}

// Connect dials the relay and builds a session over the resulting
// transport. The caller owns the session's lifecycle; closing happens via
// Session.Run's teardown.
func (w *Wire) Connect(ctx context.Context, local, peer domain.Identity, display domain.Display) (*session.Session, error) {
	transport, err := relay.Dial(ctx, w.Cfg.RelayURL, local, peer, w.Log.GetLogger("transport"))
	if err != nil {
		return nil, err
	}
	sess, err := session.New(session.Config{
		Local:            local,
		Peer:             peer,
		HandshakeTimeout: time.Duration(w.Cfg.HandshakeTimeout),
	}, transport, display, w.Log.GetLogger("session"))
	if err != nil {
		transport.Close()
		return nil, err
	}
	return sess, nil
}
