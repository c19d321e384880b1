package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Export(ctx context.Context) error
	SessionStatus(ctx context.Context) error
	Refresh(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, quit"
	helpLoggedIn  = "Available commands: (l)ist, show <id>, search <term>, add, edit <id>, delete <id>, export, session, refresh, logout, help, quit"
)

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit" or "quit". Note commands are refused while logged out. Handlers
// report their own errors, so the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		prompt := "cn"
		if s := statusFn(); s != "" {
			prompt += " " + s
		}
		fmt.Fprint(w, prompt+"> ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		case "register":
			_ = a.Register(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "logout", "l", "list", "show", "search", "add", "edit", "delete", "export", "session", "refresh":
				fmt.Fprintln(w, "Please log in first")
			default:
				fmt.Fprintln(w, "Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "logout":
			_ = a.Logout(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "show":
			_ = a.Show(ctx, args)
		case "search":
			_ = a.Search(ctx, args)
		case "add":
			_ = a.Add(ctx)
		case "edit":
			_ = a.Edit(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "export":
			_ = a.Export(ctx)
		case "session":
			_ = a.SessionStatus(ctx)
		case "refresh":
			_ = a.Refresh(ctx)
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
