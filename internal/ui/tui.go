package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"p2p-social/internal/message"
)

// PeerActions receives the roster gestures and shortcut keys of the TUI.
type PeerActions interface {
	ActivatePeer(peer message.PeerID)
	DoubleActivatePeer(peer message.PeerID)
	OpenPeerMenu(peer message.PeerID, x, y int)
	// ChooseMenuEntry runs the menuEntries item at index.
	ChooseMenuEntry(index int)
	Escape()
	CloseDM()
}

// menuEntries are the peer context menu items, in MenuAction order.
var menuEntries = []string{"View board", "Send message", "Rename"}

const menuPage = "menu"

// TUIDisplay renders the feed, the DM panel and the roster using tview.
type TUIDisplay struct {
	app    *tview.Application
	pages  *tview.Pages
	posts  *tview.TextView
	thread *tview.TextView
	input  *tview.InputField
	peers  *tview.List
	menu   *tview.List
	send   func(string)
	once   sync.Once

	mu      sync.Mutex
	names   Namer
	actions PeerActions
	peerIDs []message.PeerID
}

func NewTUIDisplay(send func(string)) *TUIDisplay {
	posts := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(false).
		SetScrollable(true)
	posts.SetBorder(true).SetTitle("Feed")

	thread := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	thread.SetBorder(true).SetTitle("Direct messages")

	peers := tview.NewList()
	peers.SetBorder(true).SetTitle("Friends")

	menu := tview.NewList().ShowSecondaryText(false)
	menu.SetBorder(true).SetTitle("Peer")
	for _, entry := range menuEntries {
		menu.AddItem(entry, "", 0, nil)
	}

	input := tview.NewInputField().
		SetLabel("> ").
		SetFieldTextColor(tcell.ColorWhite)

	td := &TUIDisplay{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		posts:  posts,
		thread: thread,
		input:  input,
		peers:  peers,
		menu:   menu,
		send:   send,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := strings.TrimSpace(input.GetText())
			if text != "" {
				go td.send(text)
			}
			input.SetText("")
		}
	})

	peers.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if peer, ok := td.peerAtIndex(index); ok {
			td.dispatch(func(a PeerActions) { a.ActivatePeer(peer) })
		}
	})
	peers.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		x, y := event.Position()
		if td.peerGesture(action, x, y) {
			return tview.MouseConsumed, nil
		}
		return action, event
	})
	menu.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		td.hideMenu()
		td.dispatch(func(a PeerActions) { a.ChooseMenuEntry(index) })
	})
	td.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if td.handleKey(event.Key()) {
			return nil
		}
		return event
	})

	content := tview.NewFlex().
		AddItem(posts, 0, 3, false).
		AddItem(thread, 0, 2, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 5, false).
		AddItem(peers, 8, 1, false).
		AddItem(input, 3, 1, true)

	td.pages.AddPage("main", layout, true, true)
	td.pages.AddPage(menuPage, menu, false, false)
	td.app.SetRoot(td.pages, true).EnableMouse(true)
	return td
}

func (t *TUIDisplay) SetNamer(names Namer) {
	t.mu.Lock()
	t.names = names
	t.mu.Unlock()
}

// SetPeerActions routes roster gestures to a. Until it is called they are
// ignored.
func (t *TUIDisplay) SetPeerActions(a PeerActions) {
	t.mu.Lock()
	t.actions = a
	t.mu.Unlock()
}

func (t *TUIDisplay) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.once.Do(func() {
			t.app.Stop()
		})
	}()
	return t.app.Run()
}

// dispatch runs fn off the event loop; actions may block on the backend.
func (t *TUIDisplay) dispatch(fn func(PeerActions)) {
	t.mu.Lock()
	a := t.actions
	t.mu.Unlock()
	if a != nil {
		go fn(a)
	}
}

func (t *TUIDisplay) peerAtIndex(index int) (message.PeerID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.peerIDs) {
		return "", false
	}
	return t.peerIDs[index], true
}

// peerAtRow maps a screen row inside the roster to its entry. Each entry
// takes two rows: the label and the peer id.
func (t *TUIDisplay) peerAtRow(y int) (message.PeerID, bool) {
	_, top, _, height := t.peers.GetInnerRect()
	if y < top || y >= top+height {
		return "", false
	}
	offset, _ := t.peers.GetOffset()
	return t.peerAtIndex((y-top)/2 + offset)
}

func (t *TUIDisplay) peerGesture(action tview.MouseAction, x, y int) bool {
	switch action {
	case tview.MouseRightClick:
		peer, ok := t.peerAtRow(y)
		if !ok {
			return false
		}
		t.showMenu(x, y)
		t.dispatch(func(a PeerActions) { a.OpenPeerMenu(peer, x, y) })
		return true
	case tview.MouseLeftDoubleClick:
		peer, ok := t.peerAtRow(y)
		if !ok {
			return false
		}
		t.dispatch(func(a PeerActions) { a.DoubleActivatePeer(peer) })
		return true
	}
	return false
}

// handleKey reports whether key was consumed.
func (t *TUIDisplay) handleKey(key tcell.Key) bool {
	switch key {
	case tcell.KeyEscape:
		t.hideMenu()
		t.dispatch(func(a PeerActions) { a.Escape() })
		return true
	case tcell.KeyCtrlW:
		t.dispatch(func(a PeerActions) { a.CloseDM() })
		return true
	}
	return false
}

func (t *TUIDisplay) showMenu(x, y int) {
	t.menu.SetRect(x, y, 20, len(menuEntries)+2)
	t.menu.SetCurrentItem(0)
	t.pages.ShowPage(menuPage)
	t.app.SetFocus(t.menu)
}

func (t *TUIDisplay) hideMenu() {
	if front, _ := t.pages.GetFrontPage(); front != menuPage {
		return
	}
	t.pages.HidePage(menuPage)
	t.app.SetFocus(t.input)
}

func (t *TUIDisplay) label(peer message.PeerID) string {
	t.mu.Lock()
	names := t.names
	t.mu.Unlock()
	return labelOf(names, peer)
}

func postLine(author string, p message.Post) string {
	ts := p.SortKey().Local().Format("15:04:05")
	return fmt.Sprintf("[yellow][%s][-] [lightgreen]%s[-]: %s\n", ts, tview.Escape(author), tview.Escape(p.Content))
}

func dmLine(author string, m message.DirectMessage) string {
	ts := m.CreatedAt.Local().Format("15:04:05")
	return fmt.Sprintf("[yellow][%s][-] [violet]%s[-]: %s\n", ts, tview.Escape(author), tview.Escape(m.Content))
}

func (t *TUIDisplay) ShowPosts(title string, posts []message.Post) {
	var b strings.Builder
	for _, p := range posts {
		b.WriteString(postLine(t.label(p.Author), p))
	}
	t.app.QueueUpdateDraw(func() {
		t.posts.SetTitle(title)
		t.posts.SetText(b.String())
	})
}

func (t *TUIDisplay) ShowPost(_ string, post message.Post) {
	line := postLine(t.label(post.Author), post)
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.posts, line)
	})
}

func (t *TUIDisplay) ShowThread(title string, msgs []message.DirectMessage) {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(dmLine(t.label(m.From), m))
	}
	t.app.QueueUpdateDraw(func() {
		t.thread.SetTitle("DM: " + title)
		t.thread.SetText(b.String())
	})
}

func (t *TUIDisplay) ShowDirectMessage(_ string, msg message.DirectMessage) {
	line := dmLine(t.label(msg.From), msg)
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.thread, line)
	})
}

func (t *TUIDisplay) ShowSystem(text string) {
	content := fmt.Sprintf("[green]>>> %s[-]\n", tview.Escape(text))
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.posts, content)
	})
}

func (t *TUIDisplay) UpdatePeers(peers []Presence) {
	ids := make([]message.PeerID, len(peers))
	for i, p := range peers {
		ids[i] = p.PeerID
	}
	t.app.QueueUpdateDraw(func() {
		t.mu.Lock()
		t.peerIDs = ids
		t.mu.Unlock()
		t.peers.Clear()
		for _, p := range peers {
			status := "offline"
			if p.Online {
				status = "online"
			}
			label := fmt.Sprintf("%s (%s)", p.Name, status)
			if p.Unread > 0 {
				label += fmt.Sprintf(" (%d new)", p.Unread)
			}
			if p.Blocked {
				label += " (blocked)"
			}
			t.peers.AddItem(label, string(p.PeerID), 0, nil)
		}
	})
}

func (t *TUIDisplay) ShowNotification(n Notification) {
	content := fmt.Sprintf("[orange]** %s [-] %s\n", strings.ToUpper(n.Level), tview.Escape(n.Text))
	t.app.QueueUpdateDraw(func() {
		fmt.Fprint(t.thread, content)
	})
}
