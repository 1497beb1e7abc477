package chat

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/matheus3301/counsel/internal/bus"
	"go.uber.org/zap"
)

// Directory holds the contacts the current user may message, in backend order.
type Directory struct {
	backend  Backend
	presence *Presence
	bus      *bus.Bus
	logger   *zap.Logger

	mu       sync.RWMutex
	contacts []Contact
}

// NewDirectory creates an empty directory. presence may be nil.
func NewDirectory(backend Backend, presence *Presence, b *bus.Bus, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		backend:  backend,
		presence: presence,
		bus:      b,
		logger:   logger,
	}
}

// Refresh fetches the contact list. On failure the previous snapshot is kept
// and a *FetchError is returned and published.
func (d *Directory) Refresh(ctx context.Context, cred Credential) ([]Contact, error) {
	contacts, err := d.backend.ListContacts(ctx, cred)
	if err != nil {
		ferr := &FetchError{Op: "contacts", Err: err}
		d.logger.Warn("contact list fetch failed", zap.Error(err))
		d.bus.Emit(EventContactsFailed, ferr)
		return d.Contacts(), ferr
	}

	d.mu.Lock()
	d.contacts = slices.Clone(contacts)
	d.mu.Unlock()

	d.logger.Debug("contacts loaded", zap.Int("count", len(contacts)))
	d.bus.Emit(EventContactsLoaded, d.Contacts())

	if src, ok := d.backend.(PresenceSource); ok && d.presence != nil {
		online, err := src.ListOnline(ctx, cred)
		if err != nil {
			d.logger.Warn("presence fetch failed", zap.Error(err))
		} else {
			d.presence.Replace(online)
		}
	}
	return d.Contacts(), nil
}

// Contacts returns the current snapshot.
func (d *Directory) Contacts() []Contact {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.contacts)
}

// Lookup returns the contact with the given id.
func (d *Directory) Lookup(id string) (Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := slices.IndexFunc(d.contacts, func(c Contact) bool { return c.ID == id })
	if i < 0 {
		return Contact{}, false
	}
	return d.contacts[i], true
}

// Filter returns the contacts whose name or handle contains query, ignoring
// case. A blank query returns every contact.
func (d *Directory) Filter(query string) []Contact {
	return FilterContacts(d.Contacts(), query)
}

// FilterContacts is the pure form of Directory.Filter.
func FilterContacts(contacts []Contact, query string) []Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(contacts)
	}
	var out []Contact
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Handle), q) {
			out = append(out, c)
		}
	}
	return out
}
