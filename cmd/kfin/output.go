package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/google/subcommands"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tab-aligned writer; callers Flush it.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// fail reports err on stderr and returns ExitFailure.
func (g *globals) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(g.stderr, "kfin: %v\n", err)
	return subcommands.ExitFailure
}

// usage reports a usage problem and returns ExitUsageError.
func (g *globals) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(g.stderr, "kfin: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// status maps err to an exit status.
func (g *globals) status(err error) subcommands.ExitStatus {
	if err != nil {
		return g.fail(err)
	}
	return subcommands.ExitSuccess
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
