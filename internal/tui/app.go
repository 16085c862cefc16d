package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"memochat/internal/api"
	"memochat/internal/auth"
	"memochat/internal/chat"
	"memochat/internal/config"
	"memochat/internal/directory"
	"memochat/internal/memory"
	"memochat/internal/tokens"
	"memochat/internal/transcript"
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenChat
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusSessions
	focusMemory
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNewSession
	promptRenameSession
	promptNewMemory
	promptEditMemory
)

// Deps bundles the collaborators the TUI drives.
type Deps struct {
	Config    config.Config
	Client    *api.Client
	Auth      *auth.Manager
	Directory *directory.Directory
	Store     *transcript.Store
	Pipeline  *transcript.Pipeline
	Memories  *memory.Manager
	Counter   *tokens.Counter
}

// App is the Bubble Tea model for the whole client.
type App struct {
	width  int
	height int

	screen screen
	focus  focusArea
	prompt promptKind

	cfg      config.Config
	client   *api.Client
	auth     *auth.Manager
	dir      *directory.Directory
	store    *transcript.Store
	pipeline *transcript.Pipeline
	memories *memory.Manager
	counter  *tokens.Counter

	chatView      viewport.Model
	composer      textarea.Model
	sessionCursor int
	memoryCursor  int
	showMemory    bool

	loginForm    form
	registerForm form

	promptInput    textinput.Model
	promptTargetID string

	sending        bool
	loadingHistory bool
	errText        string

	theme Theme
	keys  KeyMap
}

// NewApp builds the model. The starting screen depends on whether a
// persisted token exists; Init verifies it against the server.
func NewApp(deps Deps) App {
	composer := textarea.New()
	composer.Placeholder = "Type a message..."
	composer.CharLimit = 8192
	composer.SetHeight(3)
	composer.Focus()

	prompt := textinput.New()
	prompt.CharLimit = 256

	a := App{
		screen:   screenLogin,
		cfg:      deps.Config,
		client:   deps.Client,
		auth:     deps.Auth,
		dir:      deps.Directory,
		store:    deps.Store,
		pipeline: deps.Pipeline,
		memories: deps.Memories,
		counter:  deps.Counter,
		composer: composer,
		loginForm: newForm(
			formField{Label: "Username"},
			formField{Label: "Password", Secret: true},
		),
		registerForm: newForm(
			formField{Label: "Username"},
			formField{Label: "Email"},
			formField{Label: "Full name"},
			formField{Label: "Password", Secret: true},
		),
		promptInput: prompt,
		theme:       DarkTheme(),
		keys:        DefaultKeyMap(),
	}
	if deps.Auth != nil && deps.Auth.LoggedIn() {
		a.screen = screenChat
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.screen == screenChat {
		return tea.Batch(textarea.Blink, a.verifyCmd())
	}
	return textinput.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
	}

	switch a.screen {
	case screenLogin:
		return a.updateLogin(msg)
	case screenRegister:
		return a.updateRegister(msg)
	default:
		return a.updateChat(msg)
	}
}

// --- Login / register screens ---

func (a App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			a.loginForm.next()
			return a, nil
		case "shift+tab", "up":
			a.loginForm.prev()
			return a, nil
		case "ctrl+r":
			a.screen = screenRegister
			a.errText = ""
			a.registerForm.reset()
			return a, nil
		case "enter":
			if !a.loginForm.atLast() {
				a.loginForm.next()
				return a, nil
			}
			username := a.loginForm.value(0)
			password := a.loginForm.rawValue(1)
			a.errText = ""
			return a, a.loginCmd(username, password)
		}

	case AuthDoneMsg:
		return a.handleAuthDone(msg)
	}

	cmd := a.loginForm.update(msg)
	return a, cmd
}

func (a App) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			a.registerForm.next()
			return a, nil
		case "shift+tab", "up":
			a.registerForm.prev()
			return a, nil
		case "esc":
			a.screen = screenLogin
			a.errText = ""
			return a, nil
		case "enter":
			if !a.registerForm.atLast() {
				a.registerForm.next()
				return a, nil
			}
			reg := api.RegisterRequest{
				Username: a.registerForm.value(0),
				Email:    a.registerForm.value(1),
				FullName: a.registerForm.value(2),
				Password: a.registerForm.rawValue(3),
			}
			a.errText = ""
			return a, a.registerCmd(reg)
		}

	case AuthDoneMsg:
		return a.handleAuthDone(msg)
	}

	cmd := a.registerForm.update(msg)
	return a, cmd
}

func (a App) handleAuthDone(msg AuthDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// A rejected persisted token sends the user back to login quietly;
		// an explicit login failure shows the reason.
		var authErr *api.AuthError
		if a.screen == screenChat && errors.As(msg.Err, &authErr) {
			a.screen = screenLogin
			a.loginForm.reset()
			return a, textinput.Blink
		}
		a.errText = humanError(msg.Err)
		return a, nil
	}
	a.screen = screenChat
	a.errText = ""
	a.composer.Focus()
	return a, tea.Batch(textarea.Blink, a.refreshSessionsCmd(), a.loadMemoriesCmd())
}

// --- Chat screen ---

func (a App) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.prompt != promptNone {
			return a.updatePrompt(msg)
		}
		return a.updateChatKeys(msg)

	case AuthDoneMsg:
		if msg.Err != nil {
			return a.handleAuthDone(msg)
		}
		return a, tea.Batch(a.refreshSessionsCmd(), a.loadMemoriesCmd())

	case SessionsLoadedMsg:
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		a.errText = ""
		a.clampSessionCursor()
		return a, a.loadHistoryCmd(a.dir.ActiveID())

	case HistoryLoadedMsg:
		a.loadingHistory = false
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		if a.store.ApplyLoad(msg.Gen, msg.Messages) {
			a.refreshChatView()
		}
		return a, nil

	case SendDoneMsg:
		a.sending = false
		a.refreshChatView()
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		return a, nil

	case SessionMutatedMsg:
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		a.errText = ""
		a.clampSessionCursor()
		return a, a.loadHistoryCmd(a.dir.ActiveID())

	case MemoriesLoadedMsg:
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		a.clampMemoryCursor()
		return a, nil

	case MemoryMutatedMsg:
		if msg.Err != nil {
			return a.fail(msg.Err)
		}
		a.errText = ""
		a.clampMemoryCursor()
		return a, nil
	}

	return a.updateWidgets(msg)
}

func (a App) updateChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.NextPane):
		a.cyclePane()
		return a, nil

	case key.Matches(msg, a.keys.ToggleMemory):
		a.showMemory = !a.showMemory
		if a.showMemory {
			a.focus = focusMemory
			a.composer.Blur()
			return a, a.loadMemoriesCmd()
		}
		a.focus = focusComposer
		a.composer.Focus()
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a, tea.Batch(a.refreshSessionsCmd(), a.loadMemoriesCmd())

	case key.Matches(msg, a.keys.Logout):
		a.auth.Logout()
		a.screen = screenLogin
		a.loginForm.reset()
		a.store.StartLoad("")
		a.errText = ""
		return a, textinput.Blink

	case key.Matches(msg, a.keys.NewSession):
		return a.openPrompt(promptNewSession, "Session name", "")

	case key.Matches(msg, a.keys.RenameSession):
		session, ok := a.sessionUnderCursor()
		if !ok {
			return a, nil
		}
		a.promptTargetID = session.ID
		return a.openPrompt(promptRenameSession, "New name", session.Name)
	}

	switch a.focus {
	case focusSessions:
		return a.updateSessionKeys(msg)
	case focusMemory:
		return a.updateMemoryKeys(msg)
	default:
		return a.updateComposerKeys(msg)
	}
}

func (a App) updateSessionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := a.dir.Sessions()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.sessionCursor > 0 {
			a.sessionCursor--
		}
		return a, nil
	case key.Matches(msg, a.keys.Down):
		if a.sessionCursor < len(sessions)-1 {
			a.sessionCursor++
		}
		return a, nil
	case key.Matches(msg, a.keys.Submit):
		if session, ok := a.sessionUnderCursor(); ok {
			a.dir.Select(session.ID)
			a.loadingHistory = true
			return a, a.loadHistoryCmd(session.ID)
		}
		return a, nil
	case key.Matches(msg, a.keys.DeleteSession):
		if session, ok := a.sessionUnderCursor(); ok {
			return a, a.deleteSessionCmd(session.ID)
		}
		return a, nil
	}
	return a, nil
}

func (a App) updateMemoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.memories.Items()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.memoryCursor > 0 {
			a.memoryCursor--
		}
		return a, nil
	case key.Matches(msg, a.keys.Down):
		if a.memoryCursor < len(items)-1 {
			a.memoryCursor++
		}
		return a, nil
	case key.Matches(msg, a.keys.DeleteSession):
		if a.memoryCursor < len(items) {
			return a, a.deleteMemoryCmd(items[a.memoryCursor].ID)
		}
		return a, nil
	case msg.String() == "n":
		return a.openPrompt(promptNewMemory, "Memory content", "")
	case msg.String() == "e":
		if a.memoryCursor < len(items) {
			item := items[a.memoryCursor]
			a.promptTargetID = item.ID
			return a.openPrompt(promptEditMemory, "Memory content", item.Content)
		}
		return a, nil
	case key.Matches(msg, a.keys.Cancel):
		a.showMemory = false
		a.focus = focusComposer
		a.composer.Focus()
		return a, nil
	}
	return a, nil
}

func (a App) updateComposerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Submit) && !msg.Alt {
		content := a.composer.Value()
		sessionID := a.dir.ActiveID()
		tempID, ok := a.pipeline.Begin(sessionID, content)
		if !ok {
			return a, nil
		}
		a.composer.SetValue("")
		a.sending = true
		a.refreshChatView()
		return a, a.resolveSendCmd(sessionID, content, tempID)
	}

	var cmd tea.Cmd
	a.composer, cmd = a.composer.Update(msg)
	return a, cmd
}

func (a App) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.prompt = promptNone
		a.promptInput.Blur()
		a.composer.Focus()
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		value := strings.TrimSpace(a.promptInput.Value())
		kind := a.prompt
		targetID := a.promptTargetID
		a.prompt = promptNone
		a.promptInput.Blur()
		a.composer.Focus()
		if value == "" {
			return a, nil
		}
		switch kind {
		case promptNewSession:
			return a, a.createSessionCmd(value)
		case promptRenameSession:
			return a, a.renameSessionCmd(targetID, value)
		case promptNewMemory:
			return a, a.createMemoryCmd(value, chat.MemoryTypeCore)
		case promptEditMemory:
			return a, a.updateMemoryCmd(targetID, value)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.promptInput, cmd = a.promptInput.Update(msg)
	return a, cmd
}

func (a App) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	cmds = append(cmds, cmd)
	if a.focus == focusComposer && a.prompt == promptNone {
		a.composer, cmd = a.composer.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// --- Helpers ---

func (a *App) cyclePane() {
	switch a.focus {
	case focusComposer:
		a.focus = focusSessions
		a.composer.Blur()
	case focusSessions:
		if a.showMemory {
			a.focus = focusMemory
		} else {
			a.focus = focusComposer
			a.composer.Focus()
		}
	default:
		a.focus = focusComposer
		a.composer.Focus()
	}
}

func (a App) openPrompt(kind promptKind, placeholder, initial string) (tea.Model, tea.Cmd) {
	a.prompt = kind
	a.promptInput.Placeholder = placeholder
	a.promptInput.SetValue(initial)
	a.promptInput.Focus()
	a.composer.Blur()
	return a, textinput.Blink
}

func (a *App) sessionUnderCursor() (chat.Session, bool) {
	sessions := a.dir.Sessions()
	if a.sessionCursor < 0 || a.sessionCursor >= len(sessions) {
		return chat.Session{}, false
	}
	return sessions[a.sessionCursor], true
}

func (a *App) clampSessionCursor() {
	n := len(a.dir.Sessions())
	if a.sessionCursor >= n {
		a.sessionCursor = n - 1
	}
	if a.sessionCursor < 0 {
		a.sessionCursor = 0
	}
}

func (a *App) clampMemoryCursor() {
	n := len(a.memories.Items())
	if a.memoryCursor >= n {
		a.memoryCursor = n - 1
	}
	if a.memoryCursor < 0 {
		a.memoryCursor = 0
	}
}

// fail records the error and forces logout on a 401.
func (a App) fail(err error) (tea.Model, tea.Cmd) {
	a.errText = humanError(err)
	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		a.auth.Logout()
		a.screen = screenLogin
		a.loginForm.reset()
		return a, textinput.Blink
	}
	return a, nil
}

func (a *App) refreshChatView() {
	content := renderTranscript(a.store.Messages(), a.theme, a.chatWidth(), a.cfg.UI.Markdown)
	a.chatView.SetContent(content)
	a.chatView.GotoBottom()
}

func (a *App) relayout() {
	chatHeight := a.height - 7
	if chatHeight < 3 {
		chatHeight = 3
	}
	a.chatView = viewport.New(a.chatWidth(), chatHeight)
	a.composer.SetWidth(a.chatWidth() - 2)
	a.refreshChatView()
}

func (a App) sidebarWidth() int {
	w := a.width * 25 / 100
	if w < 22 {
		w = 22
	}
	if w > 40 {
		w = 40
	}
	if a.width < 70 {
		return 0
	}
	return w
}

func (a App) chatWidth() int {
	w := a.width - a.sidebarWidth()
	if a.sidebarWidth() > 0 {
		w--
	}
	if w < 20 {
		w = 20
	}
	return w
}

func humanError(err error) string {
	var vErr *api.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "cannot reach server: " + netErr.Err.Error()
	}
	return err.Error()
}

// --- View ---

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}
	switch a.screen {
	case screenLogin:
		return a.viewAuth("Sign in", a.loginForm, "enter: sign in · ctrl+r: register · ctrl+c: quit")
	case screenRegister:
		return a.viewAuth("Create account", a.registerForm, "enter: register · esc: back · ctrl+c: quit")
	default:
		return a.viewChat()
	}
}

func (a App) viewAuth(title string, f form, help string) string {
	var b strings.Builder
	b.WriteString("\n  " + a.theme.TitleStyle.Render("memochat") + "\n\n")
	b.WriteString("  " + title + "\n\n")
	b.WriteString(f.view(a.theme))
	if a.errText != "" {
		b.WriteString("  " + a.theme.ErrorStyle.Render(a.errText) + "\n\n")
	}
	b.WriteString("  " + a.theme.MutedStyle.Render(help) + "\n")
	return b.String()
}

func (a App) viewChat() string {
	main := a.chatView.View()
	if a.showMemory {
		main = a.viewMemoryPanel()
	}

	composer := a.theme.InputStyle.Width(a.chatWidth()).Render(a.composer.View())
	if a.prompt != promptNone {
		composer = a.theme.InputStyle.Width(a.chatWidth()).Render(
			a.theme.TitleStyle.Render(a.promptInput.Placeholder) + "\n" + a.promptInput.View())
	}

	left := lipgloss.JoinVertical(lipgloss.Left, main, composer)

	if w := a.sidebarWidth(); w > 0 {
		sidebar := a.viewSidebar(w)
		left = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, left)
	}

	return lipgloss.JoinVertical(lipgloss.Left, left, a.viewStatusBar())
}

func (a App) viewSidebar(width int) string {
	var parts []string
	parts = append(parts, a.theme.TitleStyle.Render(" Sessions"))
	parts = append(parts, "")

	sessions := a.dir.Sessions()
	activeID := a.dir.ActiveID()
	if len(sessions) == 0 {
		parts = append(parts, a.theme.MutedStyle.Render("  none yet (ctrl+n)"))
	}
	for i, session := range sessions {
		marker := "  "
		if session.ID == activeID {
			marker = "* "
		}
		line := marker + truncate(session.Name, width-4)
		if a.focus == focusSessions && i == a.sessionCursor {
			line = a.theme.SelectedStyle.Render(line)
		}
		parts = append(parts, line)
	}

	if user := a.auth.User(); user.Username != "" {
		parts = append(parts, "")
		parts = append(parts, a.theme.MutedStyle.Render(" @"+user.Username))
	}

	height := a.height - 1
	return a.theme.SidebarStyle.Width(width).Height(height).Render(strings.Join(parts, "\n"))
}

func (a App) viewMemoryPanel() string {
	var b strings.Builder
	b.WriteString(a.theme.TitleStyle.Render(" Memory") + "  " +
		a.theme.MutedStyle.Render("n: new · e: edit · ctrl+d: delete · esc: close") + "\n\n")
	b.WriteString(renderMemoryList(a.memories.Items(), a.memoryCursor, a.theme))
	height := a.height - 7
	if height < 3 {
		height = 3
	}
	return lipgloss.NewStyle().Width(a.chatWidth()).Height(height).Render(b.String())
}

func (a App) viewStatusBar() string {
	status := "ready"
	switch {
	case a.sending:
		status = "sending..."
	case a.loadingHistory:
		status = "loading..."
	}

	left := " " + status
	if session, ok := a.dir.Active(); ok {
		left += " · " + session.Name
	}
	if a.errText != "" {
		left += " · " + a.theme.ErrorStyle.Render(a.errText)
	}

	right := ""
	if a.counter != nil {
		right = fmt.Sprintf("~%d tokens  ", a.counter.CountText(a.composer.Value()))
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return a.theme.StatusBarStyle.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}

// truncate shortens s to at most max runes. Byte slicing would split
// multi-byte session names.
func truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// Run starts the TUI.
func Run(deps Deps) error {
	app := NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
