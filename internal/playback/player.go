package playback

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// State is the playback session state.
type State int

const (
	Idle State = iota
	Checking
	Playing
	Paused
	StateUnavailable
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case StateUnavailable:
		return "unavailable"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Handle is an active audio stream. Implementations wrap whatever actually
// produces sound; the player only needs to start and stop it.
type Handle interface {
	Play(url string) error
	Pause()
	Resume()
	Stop()
}

// HandleFactory creates a fresh Handle per playback attempt.
type HandleFactory func() Handle

// Player serializes playback attempts so at most one audio handle is active
// at any time. Starting a new track stops the previous one first.
type Player struct {
	resolver  *Resolver
	newHandle HandleFactory
	logger    zerolog.Logger

	mu      sync.Mutex
	state   State
	trackID string
	handle  Handle
}

// NewPlayer creates a Player. The factory is invoked once per started track.
func NewPlayer(resolver *Resolver, factory HandleFactory, logger *zerolog.Logger) *Player {
	return &Player{
		resolver:  resolver,
		newHandle: factory,
		logger:    logger.With().Str("component", "player").Logger(),
		state:     Idle,
	}
}

// Play resolves the track's preview and starts it, stopping any prior
// playback first. The returned state is Playing, StateUnavailable, or Failed.
func (p *Player) Play(ctx context.Context, trackID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Toggling the track that is already loaded resumes instead of
	// restarting.
	if p.trackID == trackID {
		switch p.state {
		case Paused:
			p.handle.Resume()
			p.state = Playing
			return Playing
		case Playing:
			return Playing
		}
	}

	p.stopLocked()
	p.state = Checking
	p.trackID = trackID

	outcome := p.resolver.ResolvePreview(ctx, trackID)
	if outcome.Outcome != Playable {
		p.state = StateUnavailable
		return StateUnavailable
	}

	handle := p.newHandle()
	if err := handle.Play(outcome.URL); err != nil {
		p.logger.Warn().Err(err).Str("track", trackID).Msg("audio start failed")
		p.state = Failed
		return Failed
	}

	p.handle = handle
	p.state = Playing
	return Playing
}

// Toggle pauses a playing track or resumes a paused one.
func (p *Player) Toggle() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Playing:
		p.handle.Pause()
		p.state = Paused
	case Paused:
		p.handle.Resume()
		p.state = Playing
	}
	return p.state
}

// Stop releases the active handle, if any, and returns to Idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// TrackEnded transitions to Idle when the current stream finishes naturally.
func (p *Player) TrackEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Playing || p.state == Paused {
		p.stopLocked()
	}
}

// State reports the current session state and loaded track.
func (p *Player) State() (State, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.trackID
}

func (p *Player) stopLocked() {
	if p.handle != nil {
		p.handle.Stop()
		p.handle = nil
	}
	p.state = Idle
	p.trackID = ""
}
