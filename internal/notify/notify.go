// Package notify provides desktop notification support.
package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/hpcops/gridtop/internal/events"
)

// Send sends a desktop notification, via osascript on macOS and
// notify-send elsewhere.
func Send(title, message string) error {
	if runtime.GOOS == "darwin" {
		return sendAppleScript(title, message)
	}
	return sendNotifySend(title, message)
}

func sendAppleScript(title, message string) error {
	title = escapeAppleScript(title)
	message = escapeAppleScript(message)

	script := fmt.Sprintf(
		`display notification %q with title %q sound name "default"`,
		message, title,
	)

	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// FinishedMessage formats the notification body for a finished job.
func FinishedMessage(ev events.Event) string {
	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("job %d", ev.JobID)
	}
	if ev.User != "" {
		return fmt.Sprintf("%s (%s) finished", name, ev.User)
	}
	return fmt.Sprintf("%s finished", name)
}

// Watch subscribes to job-finished events and raises a notification for
// each one. Failures are logged and otherwise ignored; notifications are
// cosmetic. Returns the unsubscribe function.
func Watch(bus *events.Bus, logger *slog.Logger) func() {
	return bus.Subscribe(events.JobFinished, func(ev events.Event) {
		if err := Send("gridtop", FinishedMessage(ev)); err != nil {
			logger.Debug("notification failed", "error", err, "job", ev.JobID)
		}
	})
}
