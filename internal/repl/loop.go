package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"memochat/internal/api"
	"memochat/internal/auth"
	"memochat/internal/config"
	"memochat/internal/directory"
	"memochat/internal/memory"
	"memochat/internal/transcript"
)

// Deps bundles the collaborators the REPL drives.
type Deps struct {
	Config    config.Config
	Client    *api.Client
	Auth      *auth.Manager
	Directory *directory.Directory
	Store     *transcript.Store
	Pipeline  *transcript.Pipeline
	Memories  *memory.Manager
}

// REPL is the plain line-oriented mode, for terminals or scripts where the
// full-screen UI is unwanted.
type REPL struct {
	deps  Deps
	in    lineInput
	out   io.Writer
	errW  io.Writer
	donec bool
}

func New(deps Deps) (*REPL, error) {
	in, err := newLineInput(deps.Config.HistoryFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, using basic input: %v\n", err)
	}
	return &REPL{
		deps: deps,
		in:   in,
		out:  os.Stdout,
		errW: os.Stderr,
	}, nil
}

// Run drives the loop until /quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	defer r.in.Close()

	if err := r.ensureLoggedIn(ctx); err != nil {
		return err
	}

	if _, err := r.deps.Directory.Refresh(ctx); err != nil {
		fmt.Fprintf(r.errW, "list sessions failed: %v\n", err)
	}
	r.printSessions()
	fmt.Fprintln(r.out, `type a message, or /help for commands`)

	for {
		prompt := "> "
		if session, ok := r.deps.Directory.Active(); ok {
			prompt = session.Name + " > "
		}

		line, err := r.in.ReadLine(prompt)
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(r.out)
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(r.out, "bye")
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if r.handleCommand(ctx, input); r.donec {
				return nil
			}
			continue
		}

		r.sendMessage(ctx, input)
	}
}

func (r *REPL) ensureLoggedIn(ctx context.Context) error {
	if r.deps.Auth.LoggedIn() {
		if err := r.deps.Auth.Verify(ctx); err == nil {
			user := r.deps.Auth.User()
			fmt.Fprintf(r.out, "signed in as %s\n", user.Username)
			return nil
		}
		fmt.Fprintln(r.out, "stored session expired, please sign in")
	}
	return r.promptLogin(ctx)
}

func (r *REPL) promptLogin(ctx context.Context) error {
	for {
		username, err := r.in.ReadLine("username: ")
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		password, err := r.in.ReadPassword("password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if err := r.deps.Auth.Login(ctx, username, password); err != nil {
			fmt.Fprintf(r.errW, "login failed: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "signed in as %s\n", r.deps.Auth.User().Username)
		return nil
	}
}

func (r *REPL) sendMessage(ctx context.Context, content string) {
	sessionID := r.deps.Directory.ActiveID()
	if sessionID == "" {
		fmt.Fprintln(r.errW, "no active session; create one with /new <name>")
		return
	}

	result, err := r.deps.Pipeline.Send(ctx, sessionID, content)
	if err != nil {
		fmt.Fprintf(r.errW, "send failed: %v\n", err)
		return
	}
	if result.State != transcript.SendReconciled {
		return
	}
	label := "assistant"
	if result.Reply.ModelUsed != "" {
		label = result.Reply.ModelUsed
	}
	fmt.Fprintf(r.out, "[%s] %s\n", label, result.Reply.Content)
}

func (r *REPL) printSessions() {
	sessions := r.deps.Directory.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(r.out, "no sessions yet; create one with /new <name>")
		return
	}
	activeID := r.deps.Directory.ActiveID()
	for i, session := range sessions {
		marker := " "
		if session.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %2d. %s\n", marker, i+1, session.Name)
	}
}
