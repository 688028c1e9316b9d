package ui

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"p2p-social/internal/message"
)

// CLIDisplay renders social events as lines of text.
type CLIDisplay struct {
	mu    sync.Mutex
	out   io.Writer
	names Namer

	stamp  *color.Color
	author *color.Color
	dm     *color.Color
	sys    *color.Color
	note   *color.Color
}

func NewCLIDisplay(useColor bool) *CLIDisplay {
	return NewCLIDisplayTo(os.Stdout, useColor)
}

// NewCLIDisplayTo writes to w instead of stdout.
func NewCLIDisplayTo(w io.Writer, useColor bool) *CLIDisplay {
	c := &CLIDisplay{
		out:    w,
		stamp:  color.New(color.FgCyan),
		author: color.New(color.FgYellow),
		dm:     color.New(color.FgMagenta),
		sys:    color.New(color.FgGreen),
		note:   color.New(color.FgGreen, color.Bold),
	}
	for _, col := range []*color.Color{c.stamp, c.author, c.dm, c.sys, c.note} {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func (c *CLIDisplay) SetNamer(names Namer) {
	c.mu.Lock()
	c.names = names
	c.mu.Unlock()
}

func (c *CLIDisplay) ShowPosts(title string, posts []message.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s\n", c.sys.Sprintf("== %s (%d posts) ==", title, len(posts)))
	for _, p := range posts {
		fmt.Fprintln(c.out, c.formatPost(p))
	}
}

func (c *CLIDisplay) ShowPost(_ string, post message.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.formatPost(post))
}

func (c *CLIDisplay) ShowThread(title string, msgs []message.DirectMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s\n", c.dm.Sprintf("== dm with %s (%d messages) ==", title, len(msgs)))
	for _, m := range msgs {
		fmt.Fprintln(c.out, c.formatDM(title, m))
	}
}

func (c *CLIDisplay) ShowDirectMessage(title string, msg message.DirectMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.formatDM(title, msg))
}

func (c *CLIDisplay) ShowSystem(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "%s %s: %s\n", c.stamp.Sprintf("[%s]", ts), c.sys.Sprint("SYSTEM"), text)
}

func (c *CLIDisplay) UpdatePeers(peers []Presence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		if !p.Online {
			continue
		}
		label := p.Name
		if p.Unread > 0 {
			label = fmt.Sprintf("%s(%d)", label, p.Unread)
		}
		names = append(names, label)
	}
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(c.out, "%s online: %s\n", c.sys.Sprint("[peers]"), strings.Join(names, ", "))
}

func (c *CLIDisplay) ShowNotification(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := n.Timestamp.Format("15:04:05")
	prefix := "NOTIFY"
	if n.Level != "" {
		prefix = strings.ToUpper(n.Level)
	}
	fmt.Fprintln(c.out, c.note.Sprintf("[%s] %s: %s", ts, prefix, n.Text))
}

func (c *CLIDisplay) formatPost(p message.Post) string {
	ts := p.SortKey().Local().Format("15:04:05")
	label := ""
	if p.EditedAt != nil {
		label = " (edited)"
	}
	return fmt.Sprintf("%s %s%s: %s", c.stamp.Sprintf("[%s]", ts), c.author.Sprint(labelOf(c.names, p.Author)), label, p.Content)
}

func (c *CLIDisplay) formatDM(title string, m message.DirectMessage) string {
	ts := m.CreatedAt.Local().Format("15:04:05")
	return fmt.Sprintf("%s %s %s: %s", c.stamp.Sprintf("[%s]", ts), c.dm.Sprintf("(dm %s)", title), labelOf(c.names, m.From), m.Content)
}

// ShouldUseColor determines if ANSI coloring should be enabled for CLI output.
func ShouldUseColor(disable bool) bool {
	if disable {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") != "" || os.Getenv("ANSICON") != "" || strings.EqualFold(os.Getenv("ConEmuANSI"), "ON") {
			return true
		}
		return false
	}
	return true
}
