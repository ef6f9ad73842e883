package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/session"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/store"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProbingView ViewState = iota
	LoginView
	DashboardView
	CreateView
	EditView
	DeleteView
)

// eventBuffer bounds the store events waiting for the program. Events beyond it are dropped; the
// pending ones already cause a full resync.
const eventBuffer = 32

// Options are the dependencies of a [Model].
type Options struct {
	Session     *session.Session
	Store       *store.Store
	WebURL      string
	RecentLimit int
	OpenBrowser func(url string) error
	Now         func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	session     *session.Session
	store       *store.Store
	webURL      string
	recentLimit int
	openBrowser func(string) error
	now         func() time.Time

	width     int
	height    int
	spinner   spinner.Model
	password  textinput.Model
	loginErr  string
	loggingIn bool

	list    list.Model
	showAll bool
	stats   models.Stats
	form    notebookForm
	target  *models.Notebook
	status  string
	failed  bool

	events      chan store.Event
	unbind      func()
	unsubscribe func()
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model and binds the store to the session.
//
// Call [Model.Close] once the program exits.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = store.RecentLimit
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	notebooks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	notebooks.Title = "Recent notebooks"
	notebooks.SetShowHelp(false)
	notebooks.DisableQuitKeybindings()

	m := &Model{
		ctx:         ctx,
		view:        ProbingView,
		session:     opts.Session,
		store:       opts.Store,
		webURL:      opts.WebURL,
		recentLimit: opts.RecentLimit,
		openBrowser: opts.OpenBrowser,
		now:         opts.Now,
		spinner:     sp,
		password:    password,
		list:        notebooks,
		events:      make(chan store.Event, eventBuffer),
		help:        help.New(),
		keys:        newKeyMap(),
	}

	m.unbind = opts.Store.Bind(opts.Session)
	m.unsubscribe = opts.Store.Subscribe(func(_ context.Context, ev store.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})
	return m
}

// Close detaches the model from the store and session.
func (m *Model) Close() {
	m.unsubscribe()
	m.unbind()
}

// Init starts the session probe.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		switch m.view {
		case ProbingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case CreateView, EditView:
			return m.handleFormKeys(msg)
		case DeleteView:
			return m.handleDeleteKeys(msg)
		}
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case ProbingView:
		body = fmt.Sprintf("%s Checking notebook API...", m.spinner.View())
	case LoginView:
		body = m.renderLogin()
	case DashboardView:
		body = m.renderDashboard()
	case CreateView, EditView:
		body = m.renderForm()
	case DeleteView:
		body = m.renderDelete()
	}
	return styles.frame.Render(body)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStarted:
		if err := msg.Err(); err != nil {
			m.loginErr = session.UserMessage(err)
		}
		return m, m.enterSessionView()

	case MsgLoginResult:
		m.loggingIn = false
		m.password.Reset()
		if err := msg.Err(); err != nil {
			m.loginErr = session.UserMessage(err)
			return m, nil
		}
		m.loginErr = ""
		return m, m.enterSessionView()

	case MsgLoggedOut:
		m.setStatus("", nil)
		if err := msg.Err(); err != nil {
			m.setStatus("Logged out, but the saved password could not be removed", err)
		}
		return m, m.enterSessionView()

	case MsgStoreEvent:
		ev, _ := msg.data.(store.Event)
		switch ev.Kind {
		case store.EventLoadFailed:
			m.setStatus("Failed to load notebooks", ev.Err)
		case store.EventUpdateMismatch:
			m.setStatus("Notebook changed on the server, reloading", nil)
		}
		return m, tea.Batch(m.syncList(), m.waitForEvent())

	case MsgMutationDone:
		res, _ := msg.data.(mutationResult)
		return m.handleMutation(res)

	case MsgOpened:
		if err := msg.Err(); err != nil {
			m.setStatus("Could not open browser", err)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMutation(res mutationResult) (tea.Model, tea.Cmd) {
	if res.err != nil {
		var verr *store.ValidationError
		if errors.As(res.err, &verr) && (m.view == CreateView || m.view == EditView) {
			m.form.err = "Notebook name is required"
			return m, nil
		}

		if m.view == CreateView || m.view == EditView {
			m.form.err = fmt.Sprintf("Failed to %s notebook. Please try again.", res.op)
			return m, nil
		}

		m.view = DashboardView
		m.setStatus(fmt.Sprintf("Failed to %s notebook", res.op), res.err)
		return m, nil
	}

	m.view = DashboardView
	m.target = nil

	switch res.op {
	case OpCreate:
		m.setStatus(fmt.Sprintf("Created %q", res.notebook.Name), nil)
		return m, m.syncList()
	case OpUpdate:
		m.setStatus(fmt.Sprintf("Saved %q", res.notebook.Name), nil)
		return m, m.refresh()
	case OpArchive:
		verb := "Restored"
		if res.notebook.Archived {
			verb = "Archived"
		}
		m.setStatus(fmt.Sprintf("%s %q", verb, res.notebook.Name), nil)
		return m, m.refresh()
	case OpDelete:
		m.setStatus("Notebook deleted", nil)
		return m, m.refresh()
	case OpRefresh:
		if m.failed {
			m.setStatus("", nil)
		}
		return m, m.syncList()
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, m.login(m.password.Value())
	}

	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.create):
		m.form = newNotebookForm(m.width)
		m.view = CreateView
		return m, textinput.Blink

	case key.Matches(msg, m.keys.edit):
		if nb, ok := m.selected(); ok {
			m.form = newNotebookForm(m.width)
			m.form.fill(nb)
			m.target = &nb
			m.view = EditView
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keys.remove):
		if nb, ok := m.selected(); ok {
			m.target = &nb
			m.view = DeleteView
		}
		return m, nil

	case key.Matches(msg, m.keys.archive):
		if nb, ok := m.selected(); ok {
			return m, m.update(OpArchive, nb.ID, models.NotebookPatch{Archived: models.Ptr(!nb.Archived)})
		}
		return m, nil

	case key.Matches(msg, m.keys.toggle):
		m.showAll = !m.showAll
		return m, m.syncList()

	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.open):
		if nb, ok := m.selected(); ok {
			return m, m.open(nb.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		m.target = nil
		return m, nil

	case key.Matches(msg, m.keys.next):
		return m, m.form.toggleFocus()

	case msg.String() == "enter" && !m.form.focusDesc:
		return m, m.form.toggleFocus()

	case key.Matches(msg, m.keys.save):
		if !m.form.validate() {
			return m, nil
		}

		in := m.form.input()
		if m.view == CreateView {
			return m, m.create(in)
		}
		patch := models.NotebookPatch{Name: &in.Name, Description: &in.Description}
		return m, m.update(OpUpdate, m.target.ID, patch)
	}

	return m, m.form.update(msg)
}

func (m *Model) handleDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		if m.target == nil {
			m.view = DashboardView
			return m, nil
		}
		return m, m.remove(m.target.ID)
	case key.Matches(msg, m.keys.no):
		m.view = DashboardView
		m.target = nil
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		m.password, cmd = m.password.Update(msg)
	case DashboardView:
		m.list, cmd = m.list.Update(msg)
	case CreateView, EditView:
		cmd = m.form.update(msg)
	}
	return m, cmd
}

// enterSessionView shows the dashboard when the session may fetch and the login form otherwise.
func (m *Model) enterSessionView() tea.Cmd {
	if m.session.CanFetch() {
		m.view = DashboardView
		return m.syncList()
	}
	m.view = LoginView
	return m.password.Focus()
}

func (m *Model) syncList() tea.Cmd {
	notebooks := m.store.Notebooks()
	m.stats = store.ComputeStats(notebooks)

	visible := store.Recent(notebooks, m.recentLimit)
	m.list.Title = "Recent notebooks"
	if m.showAll {
		visible = notebooks
		m.list.Title = "All notebooks"
	}

	now := m.now()
	items := make([]list.Item, len(visible))
	for i, nb := range visible {
		items[i] = notebookItem{notebook: nb, now: now}
	}
	return m.list.SetItems(items)
}

func (m *Model) selected() (models.Notebook, bool) {
	item, ok := m.list.SelectedItem().(notebookItem)
	if !ok {
		return models.Notebook{}, false
	}
	return item.notebook, true
}

func (m *Model) setStatus(text string, err error) {
	m.failed = err != nil
	if err != nil {
		text = fmt.Sprintf("%s: %v", text, err)
	}
	m.status = text
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		return startedMsg(m.session.Start(m.ctx))
	}
}

func (m *Model) login(password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg(m.session.Login(m.ctx, password))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg(m.session.Logout(m.ctx))
	}
}

func (m *Model) create(in models.NotebookInput) tea.Cmd {
	return func() tea.Msg {
		nb, err := m.store.Create(m.ctx, in.Name, in.Description)
		return mutationDoneMsg(OpCreate, nb, err)
	}
}

func (m *Model) update(op Operation, id string, patch models.NotebookPatch) tea.Cmd {
	return func() tea.Msg {
		nb, err := m.store.Update(m.ctx, id, patch)
		return mutationDoneMsg(op, nb, err)
	}
}

func (m *Model) remove(id string) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg(OpDelete, nil, m.store.Delete(m.ctx, id))
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg(OpRefresh, nil, m.store.Refresh(m.ctx))
	}
}

func (m *Model) open(id string) tea.Cmd {
	return func() tea.Msg {
		url, err := shared.NotebookURL(m.webURL, id)
		if err != nil {
			return openedMsg(err)
		}
		return openedMsg(m.openBrowser(url))
	}
}

// waitForEvent blocks until the store publishes an event or the context ends.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return storeEventMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("nbx")
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString("This notebook server is password protected.\n\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loggingIn:
		b.WriteString(m.spinner.View() + " Checking password...")
	case m.loginErr != "":
		b.WriteString(styles.error.Render(m.loginErr))
	}

	quit := key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, quit})
	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}

func (m *Model) renderDashboard() string {
	header := "Dashboard"
	if user := m.session.User(); user != "" {
		header = fmt.Sprintf("Dashboard · Welcome back, %s", user)
	}

	var status string
	switch {
	case m.store.Loading():
		status = m.spinner.View() + " Loading..."
	case m.failed:
		status = styles.error.Render(m.status)
	case m.status != "":
		status = styles.success.Render(m.status)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s",
		styles.title.Render(header),
		formatter.StatsLine(m.stats),
		m.list.View(),
		status,
		m.help.View(m.keys),
	)
}

func (m *Model) renderForm() string {
	title := "New notebook"
	if m.view == EditView {
		title = "Edit notebook"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.save, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", styles.title.Render(title), m.form.view(), helpView)
}

func (m *Model) renderDelete() string {
	if m.target == nil {
		return ""
	}

	title := styles.warning.Render(fmt.Sprintf("Delete %q?", m.target.Name))
	info := fmt.Sprintf("\n%d sources and %d notes in this notebook will be removed.\n", m.target.SourcesCount, m.target.NotesCount)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
