package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Summary(ctx context.Context) error
	Feed(ctx context.Context) error
	Goals(ctx context.Context) error
	Save(ctx context.Context, arg string) error
	NewGoal(ctx context.Context) error
	Logout(ctx context.Context) error
	printErr(err error)
}

const helpText = `Available commands:
  summary      this week's round-up
  feed         this week's transactions (* = already saved)
  goals        list savings goals
  save <n>     move the round-up into goal n from 'goals'
  newgoal      create a goal and move the round-up into it
  logout       forget stored credentials and quit
  exit | quit  leave the program`

// runREPL starts a simple read–eval–print loop for the round-up CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Errors returned by command handlers are
// printed and the loop continues. The loop exits on EOF, after "logout",
// or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("roundup %s> ", statusFn()))
		line, err := ReadLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "summary":
			cmdErr = a.Summary(ctx)

		case "feed":
			cmdErr = a.Feed(ctx)

		case "goals":
			cmdErr = a.Goals(ctx)

		case "save":
			if len(args) != 1 {
				printlnFn("Usage: save <n>")
				continue
			}
			cmdErr = a.Save(ctx, args[0])

		case "newgoal":
			cmdErr = a.NewGoal(ctx)

		case "logout":
			if err := a.Logout(ctx); err != nil {
				a.printErr(err)
				continue
			}
			return

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			a.printErr(cmdErr)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
