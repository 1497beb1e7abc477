// Package model is the state the TUI renders: the chat core components for one
// signed-in user plus transient notifications.
package model

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matheus3301/counsel/internal/bus"
	"github.com/matheus3301/counsel/internal/chat"
	"go.uber.org/zap"
)

// ViewModel wires the chat core and signals UI refreshes.
type ViewModel struct {
	cred   chat.Credential
	bus    *bus.Bus
	logger *zap.Logger

	Directory *chat.Directory
	Presence  *chat.Presence
	Store     *chat.Store
	Session   *chat.Session
	Composer  *chat.Composer
	Flash     Flash

	mu     sync.RWMutex
	filter string

	refreshCh chan struct{}
	queue     *commandQueue
}

// NewViewModel creates the chat components for cred on top of backend.
func NewViewModel(backend chat.Backend, cred chat.Credential, opts chat.SessionOptions, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := bus.New()
	presence := chat.NewPresence(b)
	store := chat.NewStore(b)
	session := chat.NewSession(backend, store, b, logger.Named("session"), opts)
	return &ViewModel{
		cred:      cred,
		bus:       b,
		logger:    logger,
		Directory: chat.NewDirectory(backend, presence, b, logger.Named("directory")),
		Presence:  presence,
		Store:     store,
		Session:   session,
		Composer:  chat.NewComposer(session, store, backend, b, logger.Named("composer"), opts),
		refreshCh: make(chan struct{}, 1),
		queue:     newCommandQueue(),
	}
}

// Self returns the signed-in user's ID.
func (vm *ViewModel) Self() string {
	return vm.cred.UserID
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Watch subscribes to core events and, until ctx is done, turns them into
// flash messages and refresh signals in the background.
func (vm *ViewModel) Watch(ctx context.Context) {
	events, unsub := vm.bus.Subscribe("chat.", 64)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-events:
				if msg, level, ok := Notice(evt); ok {
					vm.Flash.Set(msg, level, flashDuration(level))
				}
				vm.signalRefresh()
			}
		}
	}()
}

// LoadContacts refreshes the directory and the presence set.
func (vm *ViewModel) LoadContacts(ctx context.Context) error {
	_, err := vm.Directory.Refresh(ctx, vm.cred)
	return err
}

// SetFilter sets the contact list query.
func (vm *ViewModel) SetFilter(query string) {
	vm.mu.Lock()
	vm.filter = query
	vm.mu.Unlock()
	vm.signalRefresh()
}

// Contacts returns the contacts matching the current filter.
func (vm *ViewModel) Contacts() []chat.Contact {
	vm.mu.RLock()
	q := vm.filter
	vm.mu.RUnlock()
	return vm.Directory.Filter(q)
}

// Open switches the active conversation to peerID. A superseded open is not
// an error.
func (vm *ViewModel) Open(ctx context.Context, peerID string) error {
	err := vm.Session.Open(ctx, vm.cred, peerID)
	if errors.Is(err, chat.ErrSuperseded) {
		return nil
	}
	return err
}

// Close leaves the active conversation.
func (vm *ViewModel) Close() {
	vm.Session.Close()
}

// Send submits text through the composer and returns what is left in the
// input afterwards.
func (vm *ViewModel) Send(ctx context.Context, text string) (string, error) {
	vm.Composer.SetText(text)
	_, err := vm.Composer.Send(ctx, vm.cred)
	return vm.Composer.Text(), err
}

// Groups returns the active conversation grouped by day relative to now.
func (vm *ViewModel) Groups(now time.Time) []chat.DayGroup {
	return chat.GroupByDay(vm.Store.Messages(), now)
}

// PeerName returns the display name of the active conversation's peer.
func (vm *ViewModel) PeerName() string {
	id := vm.Session.PeerID()
	if c, ok := vm.Directory.Lookup(id); ok && c.Name != "" {
		return c.Name
	}
	return id
}

// Shutdown drops queued session requests, closes the session and waits for
// in-flight sends.
func (vm *ViewModel) Shutdown() {
	vm.queue.stop()
	vm.Session.Close()
	vm.Composer.Wait()
}

// Notice maps a core event to a user facing message.
func Notice(evt bus.Event) (string, Level, bool) {
	err, _ := evt.Payload.(error)
	switch evt.Kind {
	case chat.EventSendFailed:
		return "Message not sent: " + describe(err), LevelError, true
	case chat.EventOpenFailed:
		return "Could not open conversation: " + describe(err), LevelError, true
	case chat.EventFetchFailed:
		return "Sync failed: " + describe(err), LevelWarn, true
	case chat.EventContactsFailed:
		return "Could not load contacts: " + describe(err), LevelWarn, true
	}
	return "", LevelInfo, false
}

func describe(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, chat.ErrUnauthorized):
		return "session expired, sign in again"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	var serr *chat.SendError
	if errors.As(err, &serr) {
		return serr.Err.Error()
	}
	var ferr *chat.FetchError
	if errors.As(err, &ferr) {
		return ferr.Err.Error()
	}
	var cerr *chat.ConversationStartError
	if errors.As(err, &cerr) {
		return cerr.Err.Error()
	}
	return err.Error()
}

func flashDuration(level Level) time.Duration {
	switch level {
	case LevelError:
		return 10 * time.Second
	case LevelWarn:
		return 8 * time.Second
	}
	return 5 * time.Second
}
