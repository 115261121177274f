// Command kfin resolves Korean company names and fetches OpenDART data
// through the two-tier cache.
//
// Usage:
//
//	kfin [-config path] <command> [flags] [args]
//
// Run "kfin help" for the command list.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// globals carries the top-level flags and output streams to every command.
type globals struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	top := flag.NewFlagSet("kfin", flag.ContinueOnError)
	top.SetOutput(stderr)

	g := &globals{stdout: stdout, stderr: stderr}
	top.StringVar(&g.configPath, "config", "", "path to a YAML config file (default $KFIN_CONFIG or ~/.kfin/config.yaml)")

	commander := subcommands.NewCommander(top, "kfin")
	commander.Output = stdout
	commander.Error = stderr
	register(commander, g)

	if err := top.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return int(commander.Execute(ctx))
}

// register adds every kfin command to c.
func register(c *subcommands.Commander, g *globals) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&syncCmd{g: g}, "companies")
	c.Register(&resolveCmd{g: g}, "companies")
	c.Register(&searchCmd{g: g}, "companies")

	c.Register(&companyCmd{g: g}, "opendart")
	c.Register(&accountsCmd{g: g}, "opendart")

	c.Register(&cacheStatsCmd{g: g}, "cache")
	c.Register(&cachePruneCmd{g: g}, "cache")
	c.Register(&cacheInvalidateCmd{g: g}, "cache")

	c.Register(&healthCmd{g: g}, "operations")
	c.Register(&serveCmd{g: g}, "operations")
}
