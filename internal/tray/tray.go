// Package tray hosts the shell's system tray icon and menu.
//
// The menu routing is separated from the systray glue so the click handlers
// can be exercised without a display server.
package tray

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/getlantern/systray"
	"github.com/pkg/browser"
)

// Menu describes the static tray entries.
type Menu struct {
	Tooltip    string
	OpenLabel  string
	BriefLabel string
	QuitLabel  string
}

// Actions wires menu selections to shell behaviour.
type Actions struct {
	// FrontendURL is opened on the Open entry and on tray icon clicks.
	FrontendURL string
	// BriefPath is joined onto FrontendURL for the Daily Brief entry.
	BriefPath string
	// OnQuit is invoked when Quit is selected, before the tray loop ends.
	// It must stop the backend; the caller terminates the shell afterwards.
	OnQuit func()
	// OpenBrowser opens a URL in the user's browser. Defaults to the system
	// browser.
	OpenBrowser func(url string) error
	// ReportError receives non-fatal tray failures (browser launch, URL
	// construction). Optional.
	ReportError func(error)
}

func (a Actions) openBrowser(target string) {
	open := a.OpenBrowser
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(target); err != nil && a.ReportError != nil {
		a.ReportError(fmt.Errorf("open %s: %w", target, err))
	}
}

// Open opens the frontend in the browser.
func (a Actions) Open() {
	a.openBrowser(a.FrontendURL)
}

// Brief opens the daily brief view in the browser.
func (a Actions) Brief() {
	target, err := BriefURL(a.FrontendURL, a.BriefPath)
	if err != nil {
		if a.ReportError != nil {
			a.ReportError(err)
		}
		return
	}
	a.openBrowser(target)
}

// Quit runs the quit hook.
func (a Actions) Quit() {
	if a.OnQuit != nil {
		a.OnQuit()
	}
}

// BriefURL joins the brief path onto the frontend URL.
func BriefURL(frontendURL, briefPath string) (string, error) {
	parsed, err := url.Parse(frontendURL)
	if err != nil {
		return "", fmt.Errorf("parse frontend url %q: %w", frontendURL, err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + briefPath
	return parsed.String(), nil
}

// Run starts the tray loop and blocks until Quit is selected or the tray is
// torn down via systray.Quit. It must be called from the main goroutine on
// platforms that require UI calls there.
func Run(menu Menu, actions Actions) {
	systray.Run(func() {
		systray.SetTitle(menu.Tooltip)
		systray.SetTooltip(menu.Tooltip)

		mOpen := systray.AddMenuItem(menu.OpenLabel, menu.OpenLabel)
		mBrief := systray.AddMenuItem(menu.BriefLabel, menu.BriefLabel)
		systray.AddSeparator()
		mQuit := systray.AddMenuItem(menu.QuitLabel, menu.QuitLabel)

		go func() {
			for {
				select {
				case <-mOpen.ClickedCh:
					actions.Open()
				case <-mBrief.ClickedCh:
					actions.Brief()
				case <-mQuit.ClickedCh:
					actions.Quit()
					systray.Quit()
					return
				}
			}
		}()
	}, nil)
}

// Quit tears down the tray loop from outside (e.g. on a shutdown signal).
func Quit() {
	systray.Quit()
}
