package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/dart"
)

var errNoPersistentCache = errors.New("persistent cache is disabled")

// persistent returns the disk tier or errNoPersistentCache.
func (a *app) persistent() (*cache.PersistentCache, error) {
	if a.tiers.Persistent == nil {
		return nil, errNoPersistentCache
	}
	return a.tiers.Persistent, nil
}

type cacheStatsCmd struct {
	g      *globals
	asJSON bool
}

func (*cacheStatsCmd) Name() string     { return "cache-stats" }
func (*cacheStatsCmd) Synopsis() string { return "show persistent cache statistics" }
func (*cacheStatsCmd) Usage() string {
	return `kfin cache-stats [-json]

  Counts every stored row, expired or not.
`
}

func (c *cacheStatsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print statistics as JSON")
}

func (c *cacheStatsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		store, err := a.persistent()
		if err != nil {
			return err
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if c.asJSON {
			return writeJSON(c.g.stdout, struct {
				Path string `json:"path"`
				cache.Stats
			}{store.Path(), stats})
		}
		tw := newTable(c.g.stdout)
		fmt.Fprintf(tw, "Path\t%s\n", store.Path())
		fmt.Fprintf(tw, "Entries\t%d\n", stats.Entries)
		fmt.Fprintf(tw, "Bytes\t%d\n", stats.TotalBytes)
		fmt.Fprintf(tw, "Hits\t%d\n", stats.TotalHits)
		return tw.Flush()
	}))
}

type cachePruneCmd struct {
	g *globals
}

func (*cachePruneCmd) Name() string     { return "cache-prune" }
func (*cachePruneCmd) Synopsis() string { return "delete expired persistent cache rows" }
func (*cachePruneCmd) Usage() string {
	return `kfin cache-prune
`
}
func (*cachePruneCmd) SetFlags(*flag.FlagSet) {}

func (c *cachePruneCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		store, err := a.persistent()
		if err != nil {
			return err
		}
		n, err := store.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.g.stdout, "pruned %d expired entries\n", n)
		return nil
	}))
}

type cacheInvalidateCmd struct {
	g         *globals
	operation string
}

func (*cacheInvalidateCmd) Name() string     { return "cache-invalidate" }
func (*cacheInvalidateCmd) Synopsis() string { return "delete persistent cache rows by key prefix" }
func (*cacheInvalidateCmd) Usage() string {
	return `kfin cache-invalidate <key prefix>
kfin cache-invalidate -operation <name>

  Deletes every row whose key starts with the prefix, for example
  "opendart:fnlttSinglAcnt:00126380". -operation builds the prefix of one
  OpenDART operation, such as company or fnlttSinglAcnt.
`
}

func (c *cacheInvalidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.operation, "operation", "", "invalidate every entry of this OpenDART operation")
}

func (c *cacheInvalidateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var prefix string
	switch {
	case c.operation != "" && f.NArg() == 0:
		prefix = cache.KeyPrefix(dart.Provider, c.operation)
	case c.operation == "" && f.NArg() == 1:
		prefix = f.Arg(0)
	default:
		return c.g.usage("cache-invalidate needs exactly one of a prefix or -operation")
	}
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		store, err := a.persistent()
		if err != nil {
			return err
		}
		n, err := store.InvalidateByPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.g.stdout, "invalidated %d entries under %q\n", n, prefix)
		return nil
	}))
}
