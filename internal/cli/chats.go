// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/components"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// =============================================================================
// LIST
// =============================================================================

// chatListing is the JSON shape of one listed chat.
type chatListing struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved chats, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chats, err := a.log.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				listing := make([]chatListing, 0, len(chats))
				for _, c := range chats {
					listing = append(listing, chatListing{ID: c.ID, Title: c.Title, Path: c.Path})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}

			if len(chats) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No chats yet."))
				return nil
			}
			width := GetTerminalWidth()
			for _, c := range chats {
				title := util.TruncateWidth(c.Title, width-len(c.ID)-2)
				fmt.Fprintf(out, "%s  %s\n", LabelStyle.Render(c.ID), title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <chat-id>",
		Short: "Print a saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !a.log.Exists(id) {
				return &NotFoundError{Resource: "chat", ID: id}
			}

			width := GetTerminalWidth()
			theme := styles.NewTheme()
			theme.ColorProfile = GetColorProfile()
			theme.SetSize(width, 0)
			md := components.NewMarkdown(theme)
			md.Width = width - 4

			msgs := components.FromEntries(a.log.Replay(id))
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render(chatTitle(a.log, id)))
			fmt.Fprintln(out, RenderSeparator(width))
			if len(msgs) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No messages."))
				return nil
			}
			fmt.Fprintln(out, components.RenderConversation(msgs, width, theme, md))
			return nil
		},
	}
}

// chatTitle returns the listed title of id, or id itself.
func chatTitle(l *transcript.Log, id string) string {
	chats, err := l.List()
	if err != nil {
		return id
	}
	for _, c := range chats {
		if c.ID == id {
			return c.Title
		}
	}
	return id
}

// =============================================================================
// DELETE
// =============================================================================

func newDeleteCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <chat-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete saved chats",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range args {
				if !a.log.Exists(id) {
					return &NotFoundError{Resource: "chat", ID: id}
				}
			}

			if !force {
				if !isTerminalReader(cmd.InOrStdin()) {
					return &TTYRequiredError{Operation: "confirm deletion (use --force)"}
				}
				if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d chat(s)?", len(args))) {
					fmt.Fprintln(out, DimStyle.Render("Cancelled."))
					return nil
				}
			}

			for _, id := range args {
				if err := a.log.Delete(id); err != nil {
					return err
				}
				logging.For("cli").Info("chat deleted", "chat", id)
				fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Deleted"), id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without asking")
	return cmd
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s %s ", WarningStyle.Render(question), DimStyle.Render("[y/N]"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
