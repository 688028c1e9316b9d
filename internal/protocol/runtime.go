package protocol

import (
	"context"
	"log"
	"sync"
	"time"

	"p2p-social/internal/directory"
	"p2p-social/internal/interaction"
	"p2p-social/internal/message"
	"p2p-social/internal/presence"
	"p2p-social/internal/stream"
	"p2p-social/internal/ui"
)

// DiagnosticFunc receives conditions that are absorbed rather than reported
// to a caller: duplicates, stale pulls, blocked pushes and backend errors.
type DiagnosticFunc func(format string, args ...any)

// Runtime aggregates the long-lived state and collaborators of the client and
// translates backend events and user intents into store mutations.
type Runtime struct {
	ctx       context.Context
	backend   Backend
	directory *directory.Directory
	presence  *presence.Tracker
	streams   *stream.Store
	blocklist *directory.BlockList
	local     LocalStore
	metrics   *Metrics
	machine   *interaction.Machine
	sink      ui.Sink
	diag      DiagnosticFunc
	timeout   time.Duration
	quit      func()

	mu   sync.RWMutex
	self message.MyInfo
	held []message.DirectMessage
}

// RuntimeOptions describes the dependencies needed to construct Runtime.
type RuntimeOptions struct {
	Backend        Backend
	Directory      *directory.Directory
	Presence       *presence.Tracker
	Streams        *stream.Store
	Blocklist      *directory.BlockList
	Local          LocalStore
	Metrics        *Metrics
	Sink           ui.Sink
	Diagnostics    DiagnosticFunc
	RequestTimeout time.Duration
	Quit           func()
	// Self seeds the local identity so pushes routed before StartSession
	// returns are attributed correctly.
	Self           message.MyInfo
}

func NewRuntime(ctx context.Context, opts RuntimeOptions) *Runtime {
	dir := opts.Directory
	if dir == nil {
		dir = directory.New()
	}
	tracker := opts.Presence
	if tracker == nil {
		tracker = presence.NewTracker()
	}
	streams := opts.Streams
	if streams == nil {
		streams = stream.NewStore()
	}
	blocklist := opts.Blocklist
	if blocklist == nil {
		blocklist = directory.NewBlockList()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	diag := opts.Diagnostics
	if diag == nil {
		diag = log.Printf
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rt := &Runtime{
		ctx:       ctx,
		backend:   opts.Backend,
		directory: dir,
		presence:  tracker,
		streams:   streams,
		blocklist: blocklist,
		local:     opts.Local,
		metrics:   metrics,
		sink:      opts.Sink,
		diag:      diag,
		timeout:   timeout,
		quit:      opts.Quit,
		self:      opts.Self,
	}
	rt.machine = interaction.New(rt, rt)
	rt.attachNamer(opts.Sink)
	return rt
}

func (r *Runtime) Context() context.Context        { return r.ctx }
func (r *Runtime) Backend() Backend                { return r.backend }
func (r *Runtime) Directory() *directory.Directory { return r.directory }
func (r *Runtime) Presence() *presence.Tracker     { return r.presence }
func (r *Runtime) Streams() *stream.Store          { return r.streams }
func (r *Runtime) Blocklist() *directory.BlockList { return r.blocklist }
func (r *Runtime) Metrics() *Metrics               { return r.metrics }
func (r *Runtime) Machine() *interaction.Machine   { return r.machine }
func (r *Runtime) Sink() ui.Sink                   { return r.sink }
func (r *Runtime) SetSink(s ui.Sink)               { r.sink = s; r.attachNamer(s) }

func (r *Runtime) attachNamer(s ui.Sink) {
	if ns, ok := s.(ui.NameSetter); ok {
		ns.SetNamer(r.DisplayName)
	}
}

// Self returns the local peer id, empty before StartSession.
func (r *Runtime) Self() message.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self.PeerID
}

// Info returns the identity recorded by the last StartSession or MyInfo.
func (r *Runtime) Info() message.MyInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.self
}

func (r *Runtime) setInfo(info message.MyInfo) {
	r.mu.Lock()
	r.self = info
	var held []message.DirectMessage
	if info.PeerID != "" {
		held, r.held = r.held, nil
	}
	r.mu.Unlock()
	for _, dm := range held {
		r.routeDirectMessage(dm)
	}
}

// holdDirectMessage parks dm while no identity is known, since its partner
// cannot be resolved yet. setInfo replays held messages.
func (r *Runtime) holdDirectMessage(dm message.DirectMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.self.PeerID != "" {
		return false
	}
	r.held = append(r.held, dm)
	return true
}

// DisplayName projects peer through the nickname map.
func (r *Runtime) DisplayName(peer message.PeerID) string {
	return r.directory.DisplayName(peer, r.Self())
}

func (r *Runtime) viewTitle(v stream.View) string {
	switch v.Kind {
	case stream.ViewBoard:
		return "board: " + r.DisplayName(v.Peer)
	case stream.ViewThread:
		return r.DisplayName(v.Peer)
	}
	return "feed"
}

// publishPeers pushes the roster, presence and unread counts to the sink.
// Connected peers that are not friends are listed after the roster.
func (r *Runtime) publishPeers() {
	if r.sink == nil {
		return
	}
	roster := r.directory.Roster()
	seen := make(map[message.PeerID]struct{}, len(roster))
	out := make([]ui.Presence, 0, len(roster))
	for _, p := range roster {
		seen[p] = struct{}{}
		out = append(out, r.presenceOf(p, true))
	}
	for _, p := range r.presence.Snapshot() {
		if _, ok := seen[p]; ok {
			continue
		}
		out = append(out, r.presenceOf(p, false))
	}
	r.sink.UpdatePeers(out)
}

func (r *Runtime) presenceOf(p message.PeerID, friend bool) ui.Presence {
	return ui.Presence{
		PeerID:  p,
		Name:    r.DisplayName(p),
		Online:  r.presence.IsConnected(p),
		Friend:  friend,
		Unread:  r.streams.Unread(p),
		Blocked: r.blocklist.Blocks(p),
	}
}

func (r *Runtime) system(text string) {
	if r.sink != nil {
		r.sink.ShowSystem(text)
	}
}

func (r *Runtime) notify(level string, from message.PeerID, text string) {
	if r.sink == nil {
		return
	}
	r.sink.ShowNotification(ui.Notification{
		ID:        level + ":" + string(from),
		Text:      text,
		Level:     level,
		Timestamp: time.Now(),
		From:      string(from),
	})
}

func (r *Runtime) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.ctx, r.timeout)
}
