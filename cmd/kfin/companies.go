package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/jonwraymond/kfin/entity"
)

var errNoMatch = errors.New("no matching company")

type syncCmd struct {
	g *globals
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "download the OpenDART company list into the local snapshot" }
func (*syncCmd) Usage() string {
	return `kfin sync

  Downloads corpCode.xml from OpenDART and replaces the company snapshot used
  by resolve, search and accounts. Costs one request of the daily quota.
`
}
func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return c.g.usage("sync takes no arguments")
	}
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		records, err := a.sync(ctx)
		if err != nil {
			return err
		}
		idx := entity.NewIndex(a.cfg.IndexOptions(a.logger))
		idx.Load(records)
		fmt.Fprintf(c.g.stdout, "synced %d companies (%d listed) to %s\n",
			idx.Count(), idx.ListedCount(), a.cfg.Index.SnapshotPath)
		return nil
	}))
}

type resolveCmd struct {
	g       *globals
	asJSON  bool
	offline bool
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve a ticker, corp code or company name" }
func (*resolveCmd) Usage() string {
	return `kfin resolve [-json] [-offline] <ticker | corp code | name>

  Resolves the input to one company. Six digits are a KRX ticker, eight
  digits an OpenDART corp code; anything else is matched by name, exactly
  and then fuzzily over Hangul jamo.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the result as JSON")
	f.BoolVar(&c.offline, "offline", false, "fail instead of downloading a missing company snapshot")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input := strings.Join(f.Args(), " ")
	if strings.TrimSpace(input) == "" {
		return c.g.usage("resolve needs an input")
	}
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		idx, err := a.index(ctx, !c.offline)
		if err != nil {
			return err
		}
		res, ok := idx.Resolve(input)
		if !ok {
			return fmt.Errorf("%w: %q", errNoMatch, input)
		}
		if c.asJSON {
			return writeJSON(c.g.stdout, res)
		}

		tw := newTable(c.g.stdout)
		fmt.Fprintln(tw, "NAME\tCORP CODE\tTICKER\tMATCH\tCONFIDENCE")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n",
			res.Name, res.RegistryCode, orDash(res.Ticker), res.MatchKind, res.Confidence)
		for _, alt := range res.Alternatives {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t\t%.2f\n",
				alt.Name, alt.RegistryCode, orDash(alt.Ticker), alt.Similarity)
		}
		return tw.Flush()
	}))
}

type searchCmd struct {
	g       *globals
	limit   int
	asJSON  bool
	offline bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "list companies whose name starts with a prefix" }
func (*searchCmd) Usage() string {
	return `kfin search [-limit n] [-json] [-offline] <prefix>

  Lists companies whose normalized name starts with the prefix, in
  snapshot order.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", entity.DefaultSearchLimit, "maximum number of results")
	f.BoolVar(&c.asJSON, "json", false, "print results as JSON")
	f.BoolVar(&c.offline, "offline", false, "fail instead of downloading a missing company snapshot")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	prefix := strings.Join(f.Args(), " ")
	if strings.TrimSpace(prefix) == "" {
		return c.g.usage("search needs a prefix")
	}
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		idx, err := a.index(ctx, !c.offline)
		if err != nil {
			return err
		}
		records := idx.SearchByPrefix(prefix, c.limit)
		if c.asJSON {
			return writeJSON(c.g.stdout, records)
		}
		if len(records) == 0 {
			fmt.Fprintf(c.g.stdout, "no companies start with %q\n", prefix)
			return nil
		}
		tw := newTable(c.g.stdout)
		fmt.Fprintln(tw, "NAME\tCORP CODE\tTICKER")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.RegistryCode, orDash(r.Ticker))
		}
		return tw.Flush()
	}))
}
