// Package tui is the terminal client: a contact list and one conversation at
// a time, drawn with tview on top of the chat core.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/tui/keys"
	"github.com/matheus3301/counsel/internal/tui/model"
	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/matheus3301/counsel/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageContacts = "contacts"
	pageChat     = "chat"
	pageHelp     = "help"
)

// Options configures the TUI.
type Options struct {
	Profile string
	// RefreshInterval is how often contacts and presence are reloaded.
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	root      *tview.Flex
	chatFlex  *tview.Flex
	vm        *model.ViewModel
	registry  *keys.Registry
	opts      Options
	logger    *zap.Logger
	statusBar *views.StatusBar
	contacts  *views.ContactList
	filter    *tview.InputField
	msgView   *views.MessageView
	composer  *views.Composer
	helpView  *views.HelpView
	cmdLine   *tview.InputField
	prevPage  string
	navSeq    uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(vm *model.ViewModel, opts Options) *App {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = chat.DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := ui.DefaultTheme()
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        vm,
		registry:  keys.NewRegistry(),
		opts:      opts,
		logger:    logger,
		statusBar: views.NewStatusBar(theme),
		contacts:  views.NewContactList(theme),
		filter:    tview.NewInputField().SetLabel(" / ").SetFieldWidth(0),
		msgView:   views.NewMessageView(theme),
		composer:  views.NewComposer(theme),
		helpView:  views.NewHelpView(theme),
		cmdLine:   tview.NewInputField().SetLabel(" : ").SetFieldWidth(0),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetIdentity(opts.Profile, vm.Self())
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "?:help", Visible: true,
		Handler: a.showHelp,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Description: "::command", Visible: true,
		Handler: a.showCommandLine,
	})

	a.registry.AddPage(pageContacts, &keys.Action{
		Key:         tcell.KeyEnter,
		Description: "Enter:open conversation", Visible: true,
		Handler: func() {
			if id := a.contacts.SelectedContact(); id != "" {
				a.openContact(id)
			}
		},
	})
	a.registry.AddPage(pageContacts, &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Description: "/:filter contacts", Visible: true,
		Handler: func() { a.app.SetFocus(a.filter) },
	})
	a.registry.AddPage(pageContacts, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "r:refresh contacts", Visible: true,
		Handler: func() { go a.loadContacts() },
	})

	a.registry.AddPage(pageChat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "i:focus composer", Visible: true,
		Handler: func() { a.app.SetFocus(a.composer) },
	})
	a.registry.AddPage(pageChat, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "Esc:leave conversation", Visible: true,
		Handler:     a.closeConversation,
	})
}

func (a *App) setupCallbacks() {
	a.contacts.SetSelectedFunc(func(row, col int) {
		if id := a.contacts.SelectedContact(); id != "" {
			a.openContact(id)
		}
	})

	a.filter.SetChangedFunc(func(text string) {
		a.vm.SetFilter(text)
	})
	a.filter.SetDoneFunc(func(key tcell.Key) {
		a.app.SetFocus(a.contacts)
	})

	a.composer.SetOnChange(func(text string) {
		a.vm.Composer.SetText(text)
	})
	a.composer.SetOnSend(func(text string) {
		left, err := a.vm.Send(a.ctx, text)
		if errors.Is(err, chat.ErrNoConversation) {
			a.vm.Flash.Warn("Conversation is not open yet")
		} else if err != nil {
			a.vm.Flash.Set("Message not sent: "+err.Error(), model.LevelError, 10*time.Second)
		}
		a.composer.Reset(left)
		a.renderStatus()
	})

	a.cmdLine.SetDoneFunc(func(key tcell.Key) {
		input := a.cmdLine.GetText()
		a.hideCommandLine()
		if key == tcell.KeyEnter {
			a.execute(ParseCommand(input))
		}
	})
}

func (a *App) setupLayout() {
	contactsFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.filter, 1, 0, false).
		AddItem(a.contacts, 0, 1, true)

	a.chatFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, a.composer.Height(), 0, true)
	a.composer.SetOnResize(func(height int) {
		a.chatFlex.ResizeItem(a.composer, height, 0)
	})

	a.pages.AddPage(pageContacts, contactsFlex, true, true)
	a.pages.AddPage(pageChat, a.chatFlex, true, false)
	a.pages.AddPage(pageHelp, a.helpView, true, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.cmdLine, 0, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(event *tcell.EventKey) *tcell.EventKey {
	page, _ := a.pages.GetFrontPage()
	focused := a.app.GetFocus()

	if focused == a.cmdLine {
		return event
	}
	if event.Key() == tcell.KeyEscape && page == pageHelp {
		a.switchTo(a.prevPage)
		return nil
	}
	if event.Key() == tcell.KeyEscape && page == pageChat {
		a.closeConversation()
		return nil
	}

	// Let text input widgets handle all keys normally.
	switch focused.(type) {
	case *tview.InputField, *views.Composer:
		return event
	}

	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

func (a *App) switchTo(page string) {
	a.pages.SwitchToPage(page)
	switch page {
	case pageChat:
		a.app.SetFocus(a.composer)
	case pageHelp:
		a.app.SetFocus(a.helpView)
	default:
		a.app.SetFocus(a.contacts)
	}
}

func (a *App) showHelp() {
	page, _ := a.pages.GetFrontPage()
	if page == pageHelp {
		return
	}
	a.prevPage = page
	a.helpView.Update([]views.HelpSection{
		{Title: "Contacts", Hints: a.registry.Hints(pageContacts)},
		{Title: "Conversation", Hints: append([]string{
			"Enter:send message",
			"Alt-Enter:line break",
		}, a.registry.Hints(pageChat)...)},
		{Title: "Commands", Hints: commandHints},
	})
	a.switchTo(pageHelp)
}

func (a *App) showCommandLine() {
	a.cmdLine.SetText("")
	a.root.ResizeItem(a.cmdLine, 1, 0)
	a.app.SetFocus(a.cmdLine)
}

func (a *App) hideCommandLine() {
	a.cmdLine.SetText("")
	a.root.ResizeItem(a.cmdLine, 0, 0)
	page, _ := a.pages.GetFrontPage()
	a.switchTo(page)
}

func (a *App) execute(cmd Command) {
	a.logger.Debug("command", zap.String("name", cmd.Name), zap.String("args", cmd.Args))
	switch cmd.Name {
	case "":
	case "open":
		matches := chat.FilterContacts(a.vm.Directory.Contacts(), cmd.Args)
		if cmd.Args == "" || len(matches) == 0 {
			a.vm.Flash.Warn("No contact matches " + cmd.Args)
			break
		}
		a.openContact(matches[0].ID)
	case "refresh":
		go a.loadContacts()
	case "close":
		a.closeConversation()
	case "help":
		a.showHelp()
	case "quit":
		a.app.Stop()
	default:
		a.vm.Flash.Warn("Unknown command: " + cmd.Name)
	}
	a.renderStatus()
}

func (a *App) openContact(id string) {
	a.msgView.Reset()
	a.composer.Reset("")
	a.switchTo(pageChat)
	a.msgView.SetPeer(a.peerName(id))

	a.navSeq++
	seq := a.navSeq
	a.vm.RequestOpen(a.ctx, id, func(err error) {
		if err == nil {
			return
		}
		a.logger.Debug("open failed", zap.String("peer", id), zap.Error(err))
		a.app.QueueUpdateDraw(func() {
			// Only the latest navigation may move the user back.
			if seq == a.navSeq {
				a.switchTo(pageContacts)
			}
		})
	})
}

func (a *App) closeConversation() {
	a.navSeq++
	a.switchTo(pageContacts)
	a.vm.RequestClose(nil)
}

func (a *App) peerName(id string) string {
	if c, ok := a.vm.Directory.Lookup(id); ok && c.Name != "" {
		return c.Name
	}
	return id
}

func (a *App) loadContacts() {
	if err := a.vm.LoadContacts(a.ctx); err != nil {
		a.logger.Debug("contacts refresh failed", zap.Error(err))
	}
}

// render draws the model. It must run on the UI goroutine.
func (a *App) render() {
	a.contacts.Update(a.vm.Contacts(), a.vm.Presence.IsOnline)

	if page, _ := a.pages.GetFrontPage(); page == pageChat {
		if a.vm.Session.PeerID() != "" {
			a.msgView.SetPeer(a.vm.PeerName())
		}
		a.msgView.Update(a.vm.Groups(time.Now()), a.vm.Self(), a.vm.PeerName())
		if text := a.vm.Composer.Text(); text != a.composer.GetText() {
			a.composer.Reset(text)
		}
	}
	a.renderStatus()
}

func (a *App) renderStatus() {
	a.statusBar.SetState(a.vm.Session.State())
	msg, level := a.vm.Flash.Get()
	a.statusBar.SetFlash(msg, level)
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.vm.Watch(a.ctx)
	go a.loadContacts()
	go a.refreshLoop()
	go a.drawLoop()

	defer a.Stop()
	return a.app.Run()
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(a.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.loadContacts()
		case <-a.ctx.Done():
			return
		}
	}
}

// drawLoop redraws on model changes, and once a second so the clock and
// expired flash messages update.
func (a *App) drawLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.render)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderStatus)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.vm.Shutdown()
	a.app.Stop()
}
