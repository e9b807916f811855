package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veerbhadra0524/lumina/internal/chat"
	"github.com/Veerbhadra0524/lumina/internal/history"
	"github.com/Veerbhadra0524/lumina/internal/models"
	"github.com/Veerbhadra0524/lumina/internal/session"
)

var chatConversationID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with your documents.

A stored session is resumed automatically; otherwise you are asked to sign
in first. Inside the session:

  /new       start a new conversation
  /history   list past conversations
  /open N    open conversation N from the list
  /delete N  delete conversation N from the list
  /logout    sign out and quit
  /quit      quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversationID, "conversation", "c", "", "open a conversation by id")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ctrl := session.New(provider, api, terminal, logger)
	ctrl.Start()
	defer ctrl.Close()

	if err := ensureSignedIn(ctx, ctrl); err != nil {
		return err
	}

	conversation := chat.New(api, terminal, logger)
	sidecar := history.New(api, terminal, conversation, history.NewCache(cfg.CacheDir), logger)
	conversation.OnConversationAdopted(func(id string) {
		if err := sidecar.Refresh(ctx, id); err != nil {
			logger.Warn("history refresh failed", "error", err)
		}
	})

	sidecar.SeedFromCache()
	if err := sidecar.LoadConversations(ctx); err != nil {
		logger.Warn("initial history load failed", "error", err)
	}

	if chatConversationID != "" {
		if err := sidecar.LoadConversation(ctx, chatConversationID); err != nil {
			terminal.ShowError("Could not open that conversation.")
			logger.Warn("opening conversation failed", "error", err, "conversation_id", chatConversationID)
		}
	} else {
		terminal.ShowWelcome()
	}

	return chatLoop(ctx, ctrl, conversation, sidecar)
}

// ensureSignedIn resumes a stored session or walks through sign-in.
func ensureSignedIn(ctx context.Context, ctrl *session.Controller) error {
	resumed, err := ctrl.Resume(ctx)
	if err != nil {
		return fmt.Errorf("session verification failed")
	}
	if resumed {
		return nil
	}

	terminal.ShowAuth()
	email, err := promptLine("Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	if err := ctrl.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign-in failed")
	}
	return nil
}

func chatLoop(ctx context.Context, ctrl *session.Controller, conversation *chat.Controller, sidecar *history.Sidecar) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runChatCommand(ctx, line, ctrl, conversation, sidecar)
			if err != nil {
				terminal.ShowError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		if err := conversation.Send(ctx, line); err != nil {
			if errors.Is(err, chat.ErrSendInFlight) {
				terminal.ShowError("Still waiting for the previous answer.")
				continue
			}
			terminal.ShowError(err.Error())
		}
	}
}

func runChatCommand(ctx context.Context, line string, ctrl *session.Controller, conversation *chat.Controller, sidecar *history.Sidecar) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/logout":
		ctrl.SignOut(ctx)
		return true, nil

	case "/new":
		return false, sidecar.StartNew()

	case "/history":
		return false, sidecar.LoadConversations(ctx)

	case "/open":
		entry, err := entryArg(fields, sidecar)
		if err != nil {
			return false, err
		}
		return false, sidecar.LoadConversation(ctx, entry.ConversationID)

	case "/delete":
		entry, err := entryArg(fields, sidecar)
		if err != nil {
			return false, err
		}
		return false, sidecar.Delete(ctx, entry.ConversationID)

	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

// entryArg resolves the 1-based list position used by /open and /delete.
func entryArg(fields []string, sidecar *history.Sidecar) (models.HistoryEntry, error) {
	if len(fields) != 2 {
		return models.HistoryEntry{}, fmt.Errorf("usage: %s N", fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("usage: %s N", fields[0])
	}
	entry, ok := sidecar.Entry(n - 1)
	if !ok {
		return models.HistoryEntry{}, fmt.Errorf("no conversation %d in the list", n)
	}
	return entry, nil
}
