package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	SetStatus(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Prioritize(ctx context.Context, args []string) error
	Summarize(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: register, login, help, exit"
	helpSignedIn  = "Available commands: whoami, (l)ist [--status s] [--priority p] [search], show <id>, add, " +
		"edit <id>, done <id>, status <id> <status>, delete <id>, prioritize <id>, summarize <id>, logout, help, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Command errors are printed and the loop continues. It returns on EOF or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tf %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "whoami", "l", "list", "show", "add", "edit", "done", "status", "delete", "prioritize", "summarize", "logout":
			printlnFn("Please login first")
			return nil
		}
	}

	switch cmd {
	case "whoami":
		return a.WhoAmI(ctx)
	case "l", "list":
		return a.List(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "add":
		return a.Add(ctx)
	case "edit":
		return a.Edit(ctx, args)
	case "done":
		return a.Done(ctx, args)
	case "status":
		return a.SetStatus(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "prioritize":
		return a.Prioritize(ctx, args)
	case "summarize":
		return a.Summarize(ctx, args)
	case "logout":
		return a.Logout(ctx)
	}

	printlnFn("Unknown command:", cmd)
	return nil
}
