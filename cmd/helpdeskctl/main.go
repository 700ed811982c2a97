// helpdeskctl is a command-line client for the help-desk API. The login
// session and theme are kept in a local state file so later invocations
// reuse them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/helpdesk/pkg/client"
)

type globalOptions struct {
	server    string
	statePath string
	json      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts globalOptions
	flagSet := pflag.NewFlagSet("helpdeskctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.server, "server", envOr("HELPDESK_URL", "http://localhost:8080"), "API base URL")
	flagSet.StringVar(&opts.statePath, "state", envOr("HELPDESK_STATE", defaultStatePath()), "path to the local state file")
	flagSet.BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	flagSet.Usage = func() { printUsage(out, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(out, flagSet)
		return nil
	}

	cmd, ok := findCommand(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}
	cmdFlags := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	if cmd.flags != nil {
		cmd.flags(cmdFlags)
	}
	if err := cmdFlags.Parse(rest[1:]); err != nil {
		return err
	}

	api, err := client.New(opts.server, client.WithStateStore(client.NewStateStore(opts.statePath)))
	if err != nil {
		return err
	}
	return cmd.run(ctx, &env{api: api, out: out, json: opts.json}, cmdFlags.Args())
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "usage: helpdeskctl [flags] <command> [command flags] [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-16s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".helpdesk-state.json"
	}
	return filepath.Join(dir, "helpdesk", "state.json")
}
