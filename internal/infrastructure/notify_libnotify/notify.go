package notify_libnotify

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Notifier shells out to notify-send. In soft mode a missing binary or a
// failed call is ignored, which suits headless hosts.
type Notifier struct {
	soft   bool
	expire time.Duration
	run    func(ctx context.Context, args []string) error
}

func New() *Notifier { return &Notifier{run: notifySend} }

func NewSoft(expire time.Duration) *Notifier {
	return &Notifier{soft: true, expire: expire, run: notifySend}
}

func (n *Notifier) Notify(ctx context.Context, title, body, url string) error {
	if err := n.run(ctx, n.args(title, body, url)); err != nil && !n.soft {
		return err
	}
	return nil
}

func (n *Notifier) args(title, body, url string) []string {
	if strings.TrimSpace(url) != "" {
		if body == "" {
			body = url
		} else {
			body = body + "\n" + url
		}
	}

	args := []string{"--app-name=deploy-report", "--urgency=" + urgencyFor(title)}
	if n.expire > 0 {
		args = append(args, "--expire-time="+strconv.Itoa(int(n.expire/time.Millisecond)))
	}
	return append(args, title, body)
}

func urgencyFor(title string) string {
	switch {
	case strings.Contains(title, "failed"):
		return "critical"
	case strings.Contains(title, "succeeded"):
		return "low"
	default:
		return "normal"
	}
}

func notifySend(ctx context.Context, args []string) error {
	return exec.CommandContext(ctx, "notify-send", args...).Run()
}
