package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"logmerge/internal/adapters/tui/views"
	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// ViewState represents the current view
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewResolve
	ViewHelp
)

// App is the main TUI application model. Files queued at startup are parsed
// one at a time; a file whose header diff carries rename proposals detours
// through the resolution view before it is attached.
type App struct {
	ws     *application.Workspace
	testID string

	state   ViewState
	browser *views.BrowserModel
	resolve *views.ResolveModel
	help    *views.HelpModel

	pending  []string
	current  *parsedFile
	imported int

	width  int
	height int
}

type parsedFile struct {
	path string
	file *domain.DataFile
	diff *domain.HeaderDiff
}

// NewApp creates a new TUI application. The paths are imported into the
// given test when the program starts.
func NewApp(ws *application.Workspace, testID string, paths []string) *App {
	return &App{
		ws:      ws,
		testID:  testID,
		state:   ViewBrowser,
		browser: views.NewBrowserModel(ws),
		resolve: views.NewResolveModel(),
		help:    views.NewHelpModel(),
		pending: paths,
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.browser.Init(), a.importNext())
}

type fileParsedMsg struct {
	path string
	file *domain.DataFile
	diff *domain.HeaderDiff
	err  error
}

type fileAttachedMsg struct {
	name string
	err  error
}

func (a *App) importNext() tea.Cmd {
	if len(a.pending) == 0 {
		return nil
	}
	path := a.pending[0]
	a.pending = a.pending[1:]

	return func() tea.Msg {
		file, err := a.ws.ParseFile(context.Background(), path)
		if err != nil {
			return fileParsedMsg{path: path, err: err}
		}
		diff, err := a.ws.DiffAgainst(a.testID, file.Channels)
		if err != nil {
			return fileParsedMsg{path: path, err: err}
		}
		return fileParsedMsg{path: path, file: file, diff: diff}
	}
}

func (a *App) attachFile(file *domain.DataFile, resolve application.Resolver) tea.Cmd {
	return func() tea.Msg {
		err := a.ws.AttachParsed(a.testID, file, resolve)
		return fileAttachedMsg{name: file.Name, err: err}
	}
}

// replayResolver applies recorded accept/reject decisions to a fresh diff.
func replayResolver(decisions map[string]bool) application.Resolver {
	return func(_ *domain.DataFile, diff *domain.HeaderDiff) error {
		for _, p := range diff.Proposals() {
			if decisions[p.SourceID] {
				diff.Accept(p.SourceID)
			} else {
				diff.Reject(p.SourceID)
			}
		}
		return nil
	}
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.browser.SetSize(msg.Width, msg.Height)
		a.resolve.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case fileParsedMsg:
		if msg.err != nil {
			a.browser.SetMessage(fmt.Sprintf("%s: %v", msg.path, msg.err), true)
			return a, a.importNext()
		}
		if len(msg.diff.Proposals()) == 0 {
			return a, a.attachFile(msg.file, nil)
		}
		canonical, err := a.ws.Channels(a.testID)
		if err != nil {
			a.browser.SetMessage(err.Error(), true)
			return a, a.importNext()
		}
		a.current = &parsedFile{path: msg.path, file: msg.file, diff: msg.diff}
		a.resolve.Load(msg.file, msg.diff, canonical)
		a.state = ViewResolve
		return a, a.resolve.Init()

	case fileAttachedMsg:
		a.state = ViewBrowser
		if msg.err != nil {
			a.browser.SetMessage(fmt.Sprintf("%s: %v", msg.name, msg.err), true)
		} else {
			a.imported++
			a.browser.SetMessage(fmt.Sprintf("Attached %s (%d imported)", msg.name, a.imported), false)
		}
		return a, tea.Batch(a.browser.Reload(), a.importNext())

	case views.ResolveDoneMsg:
		if a.current == nil {
			a.state = ViewBrowser
			return a, nil
		}
		file := a.current.file
		a.current = nil
		return a, a.attachFile(file, replayResolver(msg.Decisions))

	case views.ResolveCancelMsg:
		if a.current != nil {
			a.browser.SetMessage(fmt.Sprintf("Skipped %s", a.current.file.Name), false)
			a.current = nil
		}
		a.state = ViewBrowser
		return a, a.importNext()

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToBrowserMsg:
		a.state = ViewBrowser
		return a, a.browser.Reload()
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewBrowser:
		_, cmd = a.browser.Update(msg)
	case ViewResolve:
		_, cmd = a.resolve.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewResolve:
		return a.resolve.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.browser.View()
	}
}
