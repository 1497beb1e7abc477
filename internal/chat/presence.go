package chat

import (
	"maps"
	"slices"
	"sync"

	"github.com/matheus3301/counsel/internal/bus"
)

// Presence is the set of contact IDs currently online. It is display-only and
// never gates message delivery.
type Presence struct {
	mu     sync.RWMutex
	online map[string]struct{}
	bus    *bus.Bus
}

// NewPresence creates an empty presence set.
func NewPresence(b *bus.Bus) *Presence {
	return &Presence{online: make(map[string]struct{}), bus: b}
}

// IsOnline reports whether id is in the set.
func (p *Presence) IsOnline(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[id]
	return ok
}

// Online returns the online IDs in sorted order.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.online))
}

// Replace sets the online set to exactly ids.
func (p *Presence) Replace(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			next[id] = struct{}{}
		}
	}
	p.mu.Lock()
	changed := !maps.Equal(p.online, next)
	p.online = next
	p.mu.Unlock()
	p.changed(changed)
}

// Union adds ids to the online set.
func (p *Presence) Union(ids []string) {
	changed := false
	p.mu.Lock()
	for _, id := range ids {
		if _, ok := p.online[id]; id != "" && !ok {
			p.online[id] = struct{}{}
			changed = true
		}
	}
	p.mu.Unlock()
	p.changed(changed)
}

// SetOnline adds or removes a single id.
func (p *Presence) SetOnline(id string, online bool) {
	p.mu.Lock()
	_, was := p.online[id]
	if online {
		p.online[id] = struct{}{}
	} else {
		delete(p.online, id)
	}
	p.mu.Unlock()
	p.changed(was != online)
}

func (p *Presence) changed(changed bool) {
	if changed {
		p.bus.Emit(EventPresenceChanged, p.Online())
	}
}
