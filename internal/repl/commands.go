package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"memochat/internal/api"
	"memochat/internal/chat"
)

var replCommands = []string{
	"/sessions            list sessions",
	"/switch <n>          switch to session n",
	"/new <name>          create a session",
	"/rename <name>       rename the active session",
	"/delete              delete the active session",
	"/history             print the active transcript",
	"/memory              list memories",
	"/memory add <text>   store a core memory",
	"/memory edit <n> <text>  rewrite memory n",
	"/memory del <n>      delete memory n",
	"/whoami              show the signed-in user",
	"/profile             show the full profile",
	"/profile name <text>   change the display name",
	"/profile email <addr>  change the email address",
	"/logout              sign out",
	"/quit                exit",
}

// handleCommand dispatches a slash command. Unknown commands print help.
func (r *REPL) handleCommand(ctx context.Context, input string) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		fmt.Fprintln(r.out, "bye")
		r.donec = true

	case "/help":
		fmt.Fprintln(r.out, "commands:")
		for _, c := range replCommands {
			fmt.Fprintf(r.out, "  %s\n", c)
		}

	case "/sessions":
		if _, err := r.deps.Directory.Refresh(ctx); err != nil {
			fmt.Fprintf(r.errW, "list sessions failed: %v\n", err)
			return
		}
		r.printSessions()

	case "/switch":
		n, err := strconv.Atoi(rest)
		sessions := r.deps.Directory.Sessions()
		if err != nil || n < 1 || n > len(sessions) {
			fmt.Fprintf(r.errW, "usage: /switch <1-%d>\n", len(sessions))
			return
		}
		session := sessions[n-1]
		r.deps.Directory.Select(session.ID)
		r.loadHistory(ctx, session.ID)

	case "/new":
		if rest == "" {
			fmt.Fprintln(r.errW, "usage: /new <name>")
			return
		}
		session, err := r.deps.Directory.Create(ctx, rest)
		if err != nil {
			fmt.Fprintf(r.errW, "create session failed: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "created %q\n", session.Name)
		r.loadHistory(ctx, session.ID)

	case "/rename":
		activeID := r.deps.Directory.ActiveID()
		if activeID == "" || rest == "" {
			fmt.Fprintln(r.errW, "usage: /rename <name> (with an active session)")
			return
		}
		if err := r.deps.Directory.Rename(ctx, activeID, rest); err != nil {
			fmt.Fprintf(r.errW, "rename failed: %v\n", err)
			return
		}
		fmt.Fprintf(r.out, "renamed to %q\n", rest)

	case "/delete":
		activeID := r.deps.Directory.ActiveID()
		if activeID == "" {
			fmt.Fprintln(r.errW, "no active session")
			return
		}
		if err := r.deps.Directory.Remove(ctx, activeID); err != nil {
			fmt.Fprintf(r.errW, "delete failed: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, "deleted")
		r.printSessions()

	case "/history":
		r.loadHistory(ctx, r.deps.Directory.ActiveID())
		for _, msg := range r.deps.Store.Messages() {
			role := msg.Role
			if msg.Pending() {
				role = "pending"
			}
			fmt.Fprintf(r.out, "[%s] %s\n", role, msg.Content)
		}

	case "/memory":
		r.handleMemoryCommand(ctx, rest)

	case "/profile":
		r.handleProfileCommand(ctx, rest)

	case "/whoami":
		user := r.deps.Auth.User()
		if user.Username == "" {
			fmt.Fprintln(r.out, "not signed in")
			return
		}
		fmt.Fprintf(r.out, "%s <%s>\n", user.Username, user.Email)

	case "/logout":
		r.deps.Auth.Logout()
		fmt.Fprintln(r.out, "signed out")
		r.donec = true

	default:
		fmt.Fprintf(r.errW, "unknown command %q; try /help\n", cmd)
	}
}

func (r *REPL) handleMemoryCommand(ctx context.Context, rest string) {
	sub, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch sub {
	case "":
		items, err := r.deps.Memories.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(r.errW, "list memories failed: %v\n", err)
			return
		}
		if len(items) == 0 {
			fmt.Fprintln(r.out, "no memories stored")
			return
		}
		for i, item := range items {
			fmt.Fprintf(r.out, "%2d. [%s] %s\n", i+1, item.MemoType, item.Content)
		}

	case "add":
		if arg == "" {
			fmt.Fprintln(r.errW, "usage: /memory add <text>")
			return
		}
		if err := r.deps.Memories.Create(ctx, arg, chat.MemoryTypeCore); err != nil {
			fmt.Fprintf(r.errW, "store memory failed: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, "stored")

	case "edit":
		idx, text, _ := strings.Cut(arg, " ")
		text = strings.TrimSpace(text)
		items := r.deps.Memories.Items()
		n, err := strconv.Atoi(idx)
		if err != nil || n < 1 || n > len(items) || text == "" {
			fmt.Fprintf(r.errW, "usage: /memory edit <1-%d> <text>\n", len(items))
			return
		}
		if err := r.deps.Memories.Update(ctx, items[n-1].ID, text); err != nil {
			fmt.Fprintf(r.errW, "edit memory failed: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, "updated")

	case "del":
		items := r.deps.Memories.Items()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(items) {
			fmt.Fprintf(r.errW, "usage: /memory del <1-%d>\n", len(items))
			return
		}
		if err := r.deps.Memories.Delete(ctx, items[n-1].ID); err != nil {
			fmt.Fprintf(r.errW, "delete memory failed: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, "deleted")

	default:
		fmt.Fprintln(r.errW, "usage: /memory [add <text> | edit <n> <text> | del <n>]")
	}
}

func (r *REPL) handleProfileCommand(ctx context.Context, rest string) {
	sub, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch sub {
	case "":
		user := r.deps.Auth.User()
		if user.Username == "" {
			fmt.Fprintln(r.out, "not signed in")
			return
		}
		fmt.Fprintf(r.out, "username:  %s\n", user.Username)
		fmt.Fprintf(r.out, "email:     %s\n", user.Email)
		fmt.Fprintf(r.out, "full name: %s\n", user.FullName)

	case "name":
		if arg == "" {
			fmt.Fprintln(r.errW, "usage: /profile name <text>")
			return
		}
		r.updateProfile(ctx, api.ProfileUpdate{FullName: arg})

	case "email":
		if arg == "" {
			fmt.Fprintln(r.errW, "usage: /profile email <addr>")
			return
		}
		r.updateProfile(ctx, api.ProfileUpdate{Email: arg})

	default:
		fmt.Fprintln(r.errW, "usage: /profile [name <text> | email <addr>]")
	}
}

func (r *REPL) updateProfile(ctx context.Context, update api.ProfileUpdate) {
	if err := r.deps.Auth.UpdateProfile(ctx, update); err != nil {
		fmt.Fprintf(r.errW, "update profile failed: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "profile updated")
}

func (r *REPL) loadHistory(ctx context.Context, sessionID string) {
	gen := r.deps.Store.StartLoad(sessionID)
	if sessionID == "" {
		return
	}
	history, err := r.deps.Client.FetchHistory(ctx, sessionID, r.deps.Config.Chat.HistoryLimit, 0)
	if err != nil {
		fmt.Fprintf(r.errW, "load history failed: %v\n", err)
		return
	}
	r.deps.Store.ApplyLoad(gen, history.Messages)
}
