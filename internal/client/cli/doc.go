// Package cli provides the interactive round-up command-line client.
//
// It connects the session, loads the primary account and then runs a REPL
// over the round-up service. Typical flow: look at the week's summary or
// feed, list the savings goals and move the round-up into one of them.
//
// Commands:
//   - summary, feed: this week's spending and its round-up
//   - goals, save <n>, newgoal: savings goals and transfers
//   - logout: wipe stored credentials
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
