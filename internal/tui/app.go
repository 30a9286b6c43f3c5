package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/TomasB/ip2geo/internal/handler/lookup"
	"github.com/TomasB/ip2geo/internal/output"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	pageMain   = "main"
	pageNotice = "notice"

	noInputMessage = "No IP addresses were provided."
)

// Resolve runs one batch from the text box contents. It returns the text for
// the results pane (one row per input line) and a summary. ok is false when
// the box held nothing but whitespace.
func Resolve(ctx context.Context, r lookup.Resolver, p geo.Projection, text string) (rows string, summary output.Summary, ok bool, err error) {
	lines := strings.Split(text, "\n")
	results, err := r.RunBatch(ctx, lines)
	if err != nil {
		return "", output.Summary{}, false, err
	}
	if output.Blank(results) {
		return "", output.Summary{}, false, nil
	}
	return output.Text(p, results), output.Summarize(results), true, nil
}

// App is the interactive session. It keeps one resolver, and so one cache,
// for its whole lifetime.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	input      *tview.TextArea
	results    *tview.TextView
	status     *tview.TextView
	resolver   lookup.Resolver
	projection geo.Projection
	logger     *slog.Logger
	busy       atomic.Bool
}

// New builds the session UI.
func New(resolver lookup.Resolver, p geo.Projection, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		app:        tview.NewApplication(),
		resolver:   resolver,
		projection: p,
		logger:     logger,
	}

	a.input = tview.NewTextArea().SetPlaceholder("Paste IP addresses, one per line")
	a.input.SetBorder(true).SetTitle(" IP addresses ")

	a.results = tview.NewTextView().SetScrollable(true).SetWrap(false)
	a.results.SetBorder(true).SetTitle(" Results (" + strings.Join(p, ", ") + ") ")

	a.status = tview.NewTextView().SetText("Ctrl-L lookup | Ctrl-K clear cache | Tab switch pane | Ctrl-C quit")

	buttons := tview.NewFlex().
		AddItem(tview.NewButton("Lookup IPs").SetSelectedFunc(a.lookup), 0, 1, false).
		AddItem(nil, 1, 0, false).
		AddItem(tview.NewButton("Clear cache").SetSelectedFunc(a.clearCache), 0, 1, false).
		AddItem(nil, 1, 0, false).
		AddItem(tview.NewButton("Quit").SetSelectedFunc(a.app.Stop), 0, 1, false)

	panes := tview.NewFlex().
		AddItem(a.input, 0, 1, true).
		AddItem(a.results, 0, 2, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(panes, 0, 1, true).
		AddItem(buttons, 1, 0, false).
		AddItem(a.status, 1, 0, false)

	a.pages = tview.NewPages().AddPage(pageMain, root, true, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlL:
			a.lookup()
			return nil
		case tcell.KeyCtrlK:
			a.clearCache()
			return nil
		case tcell.KeyTab:
			if a.pages.HasPage(pageNotice) {
				return event
			}
			if a.input.HasFocus() {
				a.app.SetFocus(a.results)
			} else {
				a.app.SetFocus(a.input)
			}
			return nil
		}
		return event
	})
	a.app.SetRoot(a.pages, true).SetFocus(a.input).EnableMouse(true)
	return a
}

// Run blocks until the user quits.
func (a *App) Run() error {
	return a.app.Run()
}

func (a *App) lookup() {
	if !a.busy.CompareAndSwap(false, true) {
		return
	}
	text := a.input.GetText()
	a.status.SetText("Looking up...")

	go func() {
		defer a.busy.Store(false)
		start := time.Now()
		rows, summary, ok, err := Resolve(context.Background(), a.resolver, a.projection, text)
		elapsed := time.Since(start).Round(time.Millisecond)

		a.app.QueueUpdateDraw(func() {
			switch {
			case err != nil:
				a.logger.Error("batch lookup failed", "error", err)
				a.status.SetText("Lookup failed: " + err.Error())
			case !ok:
				a.status.SetText("")
				a.notice(noInputMessage)
			default:
				a.results.SetText(rows).ScrollToBeginning()
				a.status.SetText(fmt.Sprintf("%s in %s; cache holds %d addresses",
					summary, elapsed, a.resolver.Stats().CacheSize))
			}
		})
	}()
}

func (a *App) clearCache() {
	a.resolver.ClearCache()
	a.status.SetText("Cache cleared")
}

func (a *App) notice(text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			a.pages.RemovePage(pageNotice)
			a.app.SetFocus(a.input)
		})
	a.pages.AddPage(pageNotice, modal, false, true)
	a.app.SetFocus(modal)
}
