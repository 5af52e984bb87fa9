// Package tui renders a terminal dashboard for a running shell by polling
// its control API.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const pollInterval = 2 * time.Second

// UI is the dashboard application.
type UI struct {
	app    *tview.Application
	view   *tview.TextView
	client *Client
	addr   string

	lastErr    error
	lastNotify time.Time
}

// New constructs a dashboard bound to the control API at addr.
func New(addr string) *UI {
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" LifeOS shell ")
	app := tview.NewApplication().SetRoot(view, true)
	return &UI{app: app, view: view, client: NewClient(addr), addr: addr}
}

// Run drives the dashboard until q is pressed or the context is cancelled.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			cancel()
			u.app.Stop()
			return nil
		case event.Rune() == 'n':
			go u.sendTestNotification(ctx)
			return nil
		}
		return event
	})

	go u.pollLoop(ctx)

	err := u.app.Run()
	cancel()
	return err
}

func (u *UI) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		u.refresh(ctx)
		select {
		case <-ctx.Done():
			u.app.Stop()
			return
		case <-ticker.C:
		}
	}
}

func (u *UI) refresh(ctx context.Context) {
	report, err := u.client.Backend(ctx)
	u.app.QueueUpdateDraw(func() {
		u.view.Clear()
		fmt.Fprintf(u.view, "[::b]Control API[::-]  %s\n\n", u.addr)
		if err != nil {
			fmt.Fprintf(u.view, "[red]shell unreachable:[-] %v\n", err)
		} else if report.Running {
			fmt.Fprintf(u.view, "Backend   [green]running[-]\n")
			fmt.Fprintf(u.view, "PID       %d\n", report.PID)
			fmt.Fprintf(u.view, "Mode      %s\n", report.Mode)
			fmt.Fprintf(u.view, "Port      %d\n", report.Port)
		} else {
			fmt.Fprintf(u.view, "Backend   [yellow]idle[-]\n")
			fmt.Fprintf(u.view, "Mode      %s\n", report.Mode)
			fmt.Fprintf(u.view, "Port      %d\n", report.Port)
		}
		if !u.lastNotify.IsZero() {
			fmt.Fprintf(u.view, "\nTest notification sent %s\n", u.lastNotify.Format("15:04:05"))
		}
		if u.lastErr != nil {
			fmt.Fprintf(u.view, "\n[red]%v[-]\n", u.lastErr)
		}
		fmt.Fprintf(u.view, "\n[::d]n: test notification   q: quit[::-]\n")
	})
}

func (u *UI) sendTestNotification(ctx context.Context) {
	err := u.client.Notify(ctx, "LifeOS", "Test notification from the shell dashboard")
	u.app.QueueUpdateDraw(func() {
		if err != nil {
			u.lastErr = err
			return
		}
		u.lastErr = nil
		u.lastNotify = time.Now()
	})
	u.refresh(ctx)
}
