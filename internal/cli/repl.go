// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/session"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/components"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

const historyFile = "chat_history"

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// linerReader edits lines with history on a terminal.
type linerReader struct {
	line *liner.State
	path string
}

func newLinerReader(home string) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line, path: filepath.Join(home, historyFile)}
	if f, err := os.Open(r.path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history owner-only and restores the terminal.
func (r *linerReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err == nil {
		if f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// scanReader reads piped input without echoing a prompt.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &scanReader{scanner: s}
}

func (r *scanReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() {}

// =============================================================================
// REPLY PRINTER
// =============================================================================

// replyPrinter writes a streaming reply with the same markdown styling as
// the chat window. Finished lines are printed rendered. On a terminal the
// unfinished last line is echoed raw and redrawn once it is complete.
type replyPrinter struct {
	out io.Writer
	md  *components.Markdown // nil prints text as it is

	live   bool // echo the unfinished line
	width  int  // terminal columns, for erasing a wrapped raw line
	indent int  // columns in front of the reply on its first row

	last    string // latest snapshot
	lines   int    // rendered lines printed so far
	pending string // raw text after the last printed line
	atStart bool   // cursor is at the start of a row
	failed  bool
}

func (a *app) newReplyPrinter(out io.Writer, indent int) *replyPrinter {
	width := GetTerminalWidth()
	theme := styles.NewTheme()
	theme.ColorProfile = GetColorProfile()
	theme.SetSize(width, 0)
	md := components.NewMarkdown(theme)
	md.Width = width - 1

	return &replyPrinter{
		out:    out,
		md:     &md,
		live:   IsStdoutTTY() && out == os.Stdout,
		width:  width,
		indent: indent,
	}
}

// update takes the whole reply so far.
func (p *replyPrinter) update(text string) {
	if p.failed {
		return
	}
	// A failure replaces the reply with "Error: <message>".
	if strings.HasPrefix(text, session.ErrorPrefix) && (p.last == "" || !strings.HasPrefix(text, p.last)) {
		p.clearPending()
		fmt.Fprint(p.out, ErrorStyle.Render(text))
		p.failed = true
		p.atStart = false
		return
	}
	p.last = text

	cut := strings.LastIndex(text, "\n")
	if cut >= 0 {
		p.flush(text[:cut])
	}
	if !p.live {
		return
	}
	tail := text[cut+1:]
	switch {
	case tail == p.pending:
	case strings.HasPrefix(tail, p.pending):
		fmt.Fprint(p.out, tail[len(p.pending):])
	default:
		p.clearPending()
		fmt.Fprint(p.out, tail)
	}
	p.pending = tail
	p.atStart = tail == "" && p.atStart
}

// finish prints the rest of the final text.
func (p *replyPrinter) finish(text string) {
	if p.failed {
		return
	}
	p.last = text
	p.flush(text)
}

// end moves to a fresh row.
func (p *replyPrinter) end() {
	if !p.atStart {
		fmt.Fprintln(p.out)
		p.atStart = true
	}
}

// flush prints the rendered lines of complete that are not on screen yet.
func (p *replyPrinter) flush(complete string) {
	rendered := complete
	if p.md != nil {
		rendered = p.md.Render(complete)
	}
	lines := strings.Split(rendered, "\n")
	if len(lines) <= p.lines {
		return
	}

	p.clearPending()
	for _, line := range lines[p.lines:] {
		fmt.Fprintln(p.out, line)
	}
	p.lines = len(lines)
	p.atStart = true
}

// clearPending erases the raw unfinished line from the terminal.
func (p *replyPrinter) clearPending() {
	if p.pending == "" {
		return
	}
	start := 0
	if p.lines == 0 {
		start = p.indent
	}
	if p.width > 0 {
		rows := (start + util.StringWidth(p.pending) - 1) / p.width
		for i := 0; i < rows; i++ {
			fmt.Fprint(p.out, ansi.EraseEntireLine+ansi.CursorUp1)
		}
	}
	fmt.Fprint(p.out, ansi.CursorHorizontalAbsolute(start+1)+ansi.EraseLineRight)
	p.pending = ""
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(a *app) *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in a line-based prompt",
		Long: `Chat with the model one line at a time, without the full-screen window.

Replies stream as they are generated and are saved like chats from the
window. Press Ctrl+C during a reply to cancel it.

Commands:
  /new    Start a new chat
  /help   Show these commands
  /quit   Exit (also /exit or Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID != "" && !a.log.Exists(chatID) {
				return &NotFoundError{Resource: "chat", ID: chatID}
			}

			var in lineReader
			if isTerminalReader(cmd.InOrStdin()) {
				in = newLinerReader(a.cfg.Home())
			} else {
				in = newScanReader(cmd.InOrStdin())
			}
			defer in.Close()

			return a.runREPL(cmd.Context(), cmd.OutOrStdout(), in, chatID)
		},
	}
	cmd.Flags().StringVar(&chatID, "chat", "", "continue an existing chat")
	return cmd
}

// runREPL reads lines until EOF or /quit and streams a reply to each.
func (a *app) runREPL(ctx context.Context, out io.Writer, in lineReader, chatID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.For("cli")

	queue := session.NewQueue()
	manager, cache := a.newManager(queue)
	defer cache.Close()
	defer manager.Wait()
	defer manager.Abandon()

	settings := manager.Settings()
	fmt.Fprintf(out, "%s %s\n", TitleStyle.Render("Chatbots"),
		DimStyle.Render(fmt.Sprintf("%s %s %s on %s", settings.Model, settings.Parameters, settings.Quantization, settings.Device)))
	if chatID != "" {
		fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("Continuing"), chatID)
	}
	fmt.Fprintln(out, DimStyle.Render("Type /help for commands."))

	for {
		input, err := in.ReadLine(PromptStyle.Render("> "))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		switch strings.TrimSpace(input) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			chatID = ""
			fmt.Fprintln(out, DimStyle.Render("Started a new chat."))
			continue
		case "/help":
			fmt.Fprintln(out, DimStyle.Render("/new starts a new chat, /quit exits."))
			continue
		}

		id, err := a.replyTo(ctx, out, queue, manager, chatID, input)
		if id != "" {
			chatID = id
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("reply failed", "chat", chatID, "err", err)
			fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("Error:"), err)
		}
	}
}

// replyTo submits one message and prints the reply as it streams. Ctrl+C
// abandons the reply and returns to the prompt.
func (a *app) replyTo(ctx context.Context, out io.Writer, queue *session.Queue, manager *session.Manager, chatID, input string) (string, error) {
	const label = "Assistant: "
	printer := a.newReplyPrinter(out, len(label))
	var persistErr error

	id, s, err := manager.Submit(chatID, input, session.Callbacks{
		OnPartial:  printer.update,
		OnComplete: printer.finish,
		OnError: func(err error) {
			if transcript.IsIOError(err) {
				persistErr = err
			}
		},
	})
	if err != nil {
		if errors.Is(err, session.ErrEmptyPrompt) {
			return id, nil
		}
		return id, err
	}
	if chatID == "" {
		fmt.Fprintf(out, "%s %s\n", DimStyle.Render("New chat"), id)
	}
	fmt.Fprint(out, BotStyle.Render(label))

	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := queue.RunUntil(turnCtx, s.Done()); err != nil {
		manager.Abandon()
		queue.Drain()
		printer.end()
		fmt.Fprintln(out, WarningStyle.Render("[Cancelled]"))
		if ctx.Err() != nil {
			return id, ctx.Err()
		}
		return id, nil
	}
	printer.end()

	return id, persistErr
}
