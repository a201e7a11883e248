package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/moodtunes/internal/auth"
	"github.com/desertthunder/moodtunes/internal/formatter"
	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/services"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	ChatView
	ResultView
)

// Auth is the part of the auth coordinator the TUI drives.
type Auth interface {
	Snapshot() auth.Snapshot
	UserID() string
	Login(ctx context.Context) error
	Wait(ctx context.Context) error
	ResumeRedirect(ctx context.Context, rawURL string) (string, error)
	Logout(ctx context.Context)
	Subscribe(fn func(auth.Event)) func()
}

// Chat is the part of the chat engine the TUI drives.
type Chat interface {
	Snapshot() models.ChatState
	Progress() (count, threshold int)
	SendMessage(ctx context.Context, content string) error
	LoadMoodResult(ctx context.Context, userID string) (models.MoodResult, bool)
	ResetChat(ctx context.Context)
}

// Playlists resolves playlist metadata for the result view.
type Playlists interface {
	PlaylistFromURL(ctx context.Context, raw string) (*services.SpotifyPlaylist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	auth      Auth
	chat      Chat
	playlists Playlists
	open      func(url string) error
	link      *LoginLink

	events      chan auth.Event
	unsubscribe func()

	width         int
	height        int
	input         textinput.Model
	resume        textinput.Model
	loginURL      string
	transcript    viewport.Model
	spinner       spinner.Model
	tracks        list.Model
	hasTracks     bool
	result        models.MoodResult
	hasResult     bool
	loadingResult bool
	loggingIn     bool
	sending       bool
	notice        string
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model. playlists may be nil, in which case the result view shows no
// track list.
func NewModel(ctx context.Context, a Auth, c Chat, playlists Playlists) *Model {
	input := textinput.New()
	input.Placeholder = "How are you feeling today?"
	input.CharLimit = 500
	input.Width = 60

	resume := textinput.New()
	resume.Placeholder = "http://127.0.0.1:8765/callback?user_id=..."
	resume.CharLimit = 2048
	resume.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	m := &Model{
		ctx:        ctx,
		view:       LoginView,
		auth:       a,
		chat:       c,
		playlists:  playlists,
		open:       shared.OpenBrowser,
		events:     make(chan auth.Event, 64),
		input:      input,
		resume:     resume,
		transcript: viewport.New(80, 16),
		spinner:    s,
		help:       help.New(),
		keys:       newKeyMap(),
	}

	m.unsubscribe = a.Subscribe(func(e auth.Event) {
		select {
		case m.events <- e:
		case <-ctx.Done():
		}
	})

	if a.Snapshot().IsAuthenticated {
		m.view = ChatView
		m.input.Focus()
	}
	return m
}

// Close stops listening to coordinator events.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// UseLoginLink makes redirect logins render their URL in the login view, where the user pastes
// back the address the browser lands on. link must also be the coordinator's navigator.
func (m *Model) UseLoginLink(link *LoginLink) {
	m.link = link
}

// State returns the active view.
func (m *Model) State() ViewState { return m.view }

// Init starts listening for coordinator events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), textinput.Blink, m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = max(msg.Width-4, 20)
		m.transcript.Height = max(msg.Height-10, 5)
		m.input.Width = max(msg.Width-8, 20)
		m.resume.Width = max(msg.Width-8, 20)
		if m.hasTracks {
			m.tracks.SetSize(msg.Width-4, msg.Height-14)
		}
		m.syncTranscript()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case ChatView:
			return m.handleChatKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncTranscript()
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAuthEvent:
		m.handleEvent(msg.data.(auth.Event))
		return m, tea.Batch(m.waitForEvent(), m.enterView())

	case MsgLoginDone:
		if !m.loggingIn {
			return m, nil
		}
		m.loggingIn = false
		if err := errOf(msg); err != nil && m.view == LoginView {
			m.err = err
		}
		return m, nil

	case MsgRedirectStarted:
		if !m.loggingIn {
			return m, nil
		}
		m.loggingIn = false
		m.loginURL = msg.data.(string)
		m.resume.Reset()
		return m, m.resume.Focus()

	case MsgResumeDone:
		if err := errOf(msg); err != nil {
			m.err = err
			if m.auth.Snapshot().Status != auth.StatusAuthPending {
				m.clearLogin()
			}
		}
		return m, nil

	case MsgMessageSent:
		m.sending = false
		m.err = errOf(msg)
		m.syncTranscript()
		if m.chat.Snapshot().IsFinished && m.view == ChatView {
			m.view = ResultView
			return m, m.enterView()
		}
		return m, nil

	case MsgResultLoaded:
		m.loadingResult = false
		data := msg.data.(struct {
			result models.MoodResult
			ok     bool
		})
		m.result, m.hasResult = data.result, data.ok
		if m.hasResult && m.playlists != nil {
			return m, m.fetchTracks(m.result.PlaylistURL)
		}
		return m, nil

	case MsgTracksFetched:
		data := msg.data.(struct {
			playlist *services.SpotifyPlaylist
			err      error
		})
		if data.err != nil {
			m.notice = fmt.Sprintf("Could not load tracks: %v", data.err)
			return m, nil
		}
		m.tracks = list.New(trackItems(data.playlist), list.NewDefaultDelegate(), 0, 0)
		m.tracks.Title = data.playlist.Name
		m.tracks.SetSize(max(m.width-4, 20), max(m.height-14, 5))
		m.hasTracks = true
		return m, nil

	case MsgOpened:
		if err := errOf(msg); err != nil {
			m.notice = fmt.Sprintf("Could not open browser: %v", err)
		}
		return m, nil
	}
	return m, nil
}

// handleEvent applies a coordinator event; routes are followed, notices are shown.
func (m *Model) handleEvent(e auth.Event) {
	switch e.Kind {
	case auth.EventNavigate:
		switch e.Route {
		case auth.RouteChat:
			if m.view == LoginView {
				m.view = ChatView
			}
		case auth.RouteResult:
			m.view = ResultView
		default:
			m.view = LoginView
		}
	case auth.EventNotify:
		if e.Err != nil {
			m.err = e.Err
		} else {
			m.notice = e.Message
		}
	}
}

// enterView prepares the active view. The result view loads the result when it has none.
func (m *Model) enterView() tea.Cmd {
	switch m.view {
	case ChatView:
		m.clearLogin()
		m.syncTranscript()
		return m.input.Focus()
	case ResultView:
		m.input.Blur()
		if m.hasResult || m.loadingResult {
			return nil
		}
		m.loadingResult = true
		return m.loadResult()
	default:
		m.input.Blur()
		m.clearLogin()
		m.hasResult, m.hasTracks = false, false
		return nil
	}
}

// clearLogin forgets any login in progress.
func (m *Model) clearLogin() {
	m.loggingIn = false
	m.loginURL = ""
	m.resume.Reset()
	m.resume.Blur()
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.loggingIn || m.loginURL != ""

	switch {
	case pending && key.Matches(msg, m.keys.cancel):
		m.auth.Logout(m.ctx)
		m.clearLogin()
		m.err, m.notice = nil, "Login cancelled"
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.loginURL != "" && key.Matches(msg, m.keys.resume):
		raw := strings.TrimSpace(m.resume.Value())
		if raw == "" {
			return m, nil
		}
		m.err = nil
		return m, m.resumeLogin(raw)
	case m.loginURL != "":
		var cmd tea.Cmd
		m.resume, cmd = m.resume.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.login):
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		m.err, m.notice = nil, ""
		return m, tea.Batch(m.login(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.auth.Logout(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.up, m.keys.down):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.send):
		content := strings.TrimSpace(m.input.Value())
		if content == "" || m.sending {
			return m, nil
		}
		m.input.Reset()
		m.sending = true
		m.err = nil
		return m, tea.Batch(m.send(content), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.auth.Logout(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.open):
		if !m.hasResult {
			return m, nil
		}
		return m, m.openPlaylist(m.result.PlaylistURL)
	case key.Matches(msg, m.keys.restart):
		m.chat.ResetChat(m.ctx)
		m.result, m.hasResult, m.hasTracks = models.MoodResult{}, false, false
		m.err, m.notice = nil, ""
		m.view = ChatView
		return m, m.enterView()
	}

	if m.hasTracks {
		var cmd tea.Cmd
		m.tracks, cmd = m.tracks.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.events:
			return authEventMsg(e)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) login() tea.Cmd {
	return func() tea.Msg {
		if err := m.auth.Login(m.ctx); err != nil && !errors.Is(err, shared.ErrAuthPending) {
			return loginDoneMsg(err)
		}
		if url, ok := m.link.take(); ok {
			return redirectStartedMsg(url)
		}
		return loginDoneMsg(m.auth.Wait(m.ctx))
	}
}

func (m *Model) resumeLogin(raw string) tea.Cmd {
	return func() tea.Msg {
		userID, _, err := auth.CaptureRedirect(raw)
		if err == nil && userID == "" {
			err = fmt.Errorf("%w: no %s in %q", shared.ErrInvalidArgument, auth.RedirectParam, raw)
		}
		if err != nil {
			return resumeDoneMsg(err)
		}
		_, err = m.auth.ResumeRedirect(m.ctx, raw)
		return resumeDoneMsg(err)
	}
}

func (m *Model) send(content string) tea.Cmd {
	return func() tea.Msg {
		return messageSentMsg(m.chat.SendMessage(m.ctx, content))
	}
}

func (m *Model) loadResult() tea.Cmd {
	userID := m.auth.UserID()
	return func() tea.Msg {
		return resultLoadedMsg(m.chat.LoadMoodResult(m.ctx, userID))
	}
}

func (m *Model) fetchTracks(playlistURL string) tea.Cmd {
	return func() tea.Msg {
		return tracksFetchedMsg(m.playlists.PlaylistFromURL(m.ctx, playlistURL))
	}
}

func (m *Model) openPlaylist(raw string) tea.Cmd {
	target := raw
	if id, ok := services.PlaylistID(raw); ok {
		target = services.OpenURL(id)
	}
	return func() tea.Msg {
		return openedMsg(m.open(target))
	}
}

func (m *Model) syncTranscript() {
	state := m.chat.Snapshot()
	width := max(m.transcript.Width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, msg := range state.Messages {
		if msg.IsUser() {
			b.WriteString(styles.user.Render("You"))
		} else {
			b.WriteString(styles.assistant.Render("MoodTunes"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Content))
		b.WriteString("\n\n")
	}
	if state.IsLoading {
		b.WriteString(m.spinner.View() + " thinking...")
	}

	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case ChatView:
		return m.renderChat()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) footer(keys ...key.Binding) string {
	var parts []string
	if m.notice != "" {
		parts = append(parts, styles.warn.Render(m.notice))
	}
	if m.err != nil {
		parts = append(parts, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	parts = append(parts, m.help.ShortHelpView(keys))
	return strings.Join(parts, "\n")
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("🎵 MoodTunes")
	body := "Tell us how you feel and get a Spotify playlist that matches your mood."

	switch {
	case m.loginURL != "":
		status := fmt.Sprintf("Open this URL in a browser to log in:\n\n  %s\n\nThen paste the address you land on:\n\n%s",
			styles.ok.Render(m.loginURL), m.resume.View())
		return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, body, status, m.footer(m.keys.resume, m.keys.cancel))
	case m.loggingIn:
		status := fmt.Sprintf("%s Waiting for Spotify login in your browser...", m.spinner.View())
		return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, body, status, m.footer(m.keys.cancel))
	default:
		return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.footer(m.keys.login, m.keys.quit))
	}
}

func (m *Model) renderChat() string {
	count, threshold := m.chat.Progress()
	title := styles.title.Render(fmt.Sprintf("🎵 MoodTunes  %s", styles.help.Render(fmt.Sprintf("%d/%d interactions", count, threshold))))

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s",
		title,
		m.transcript.View(),
		m.input.View(),
		m.footer(m.keys.send, m.keys.up, m.keys.down, m.keys.logout, m.keys.quit),
	)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.open, m.keys.restart, m.keys.logout, m.keys.quit}

	if m.loadingResult {
		return fmt.Sprintf("%s Loading your result...\n\n%s", m.spinner.View(), m.footer(helpKeys...))
	}
	if !m.hasResult {
		msg := styles.warn.Render("No result yet. Start a conversation to get your playlist.")
		return fmt.Sprintf("%s\n\n%s", msg, m.footer(m.keys.restart, m.keys.logout, m.keys.quit))
	}

	link := m.result.PlaylistURL
	if id, ok := services.PlaylistID(link); ok {
		link = services.OpenURL(id)
	}

	card := styles.card.Render(fmt.Sprintf("%s\n\n%s %s\n\n%s",
		styles.title.Render("Your mood"),
		formatter.MoodEmoji(m.result.Mood),
		styles.ok.Render(m.result.Mood),
		link,
	))

	tracks := ""
	if m.hasTracks {
		tracks = "\n" + m.tracks.View()
	}

	return fmt.Sprintf("%s%s\n\n%s", card, tracks, m.footer(helpKeys...))
}
