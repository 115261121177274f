package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/dart"
	"github.com/jonwraymond/kfin/entity"
)

// resolveCompany maps user input to a company, noting fuzzy matches on
// stderr so scripted callers can spot them.
func (g *globals) resolveCompany(ctx context.Context, a *app, input string) (entity.ResolutionResult, error) {
	idx, err := a.index(ctx, true)
	if err != nil {
		return entity.ResolutionResult{}, err
	}
	res, ok := idx.Resolve(input)
	if !ok {
		return entity.ResolutionResult{}, fmt.Errorf("%w: %q", errNoMatch, input)
	}
	if !res.MatchKind.Exact() {
		fmt.Fprintf(g.stderr, "kfin: %q matched %s (%s) with confidence %.2f\n",
			input, res.Name, res.RegistryCode, res.Confidence)
	}
	return res, nil
}

type companyCmd struct {
	g       *globals
	refresh bool
	asJSON  bool
}

func (*companyCmd) Name() string     { return "company" }
func (*companyCmd) Synopsis() string { return "show a company's OpenDART profile" }
func (*companyCmd) Usage() string {
	return `kfin company [-refresh] [-json] <company>

  Prints the OpenDART company profile. Profiles are cached for 30 days;
  -refresh bypasses both cache tiers and stores the fresh copy.
`
}

func (c *companyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "ignore cached copies")
	f.BoolVar(&c.asJSON, "json", false, "print the profile as JSON")
}

func (c *companyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input := strings.Join(f.Args(), " ")
	if strings.TrimSpace(input) == "" {
		return c.g.usage("company needs a company")
	}
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		res, err := c.g.resolveCompany(ctx, a, input)
		if err != nil {
			return err
		}
		client, err := a.opendart(ctx)
		if err != nil {
			return err
		}
		var opts []cache.CallOption
		if c.refresh {
			opts = append(opts, cache.WithForceRefresh())
		}
		co, err := client.Company(ctx, res.RegistryCode, opts...)
		if err != nil {
			return err
		}
		if c.asJSON {
			return writeJSON(c.g.stdout, co)
		}

		tw := newTable(c.g.stdout)
		for _, row := range [][2]string{
			{"Name", co.Name},
			{"English name", co.NameEnglish},
			{"Corp code", co.RegistryCode},
			{"Ticker", co.Ticker},
			{"Market", co.Class},
			{"CEO", co.CEO},
			{"Industry", co.IndustryCode},
			{"Established", co.Established},
			{"Fiscal month", co.FiscalMonth},
			{"Address", co.Address},
			{"Homepage", co.Homepage},
		} {
			fmt.Fprintf(tw, "%s\t%s\n", row[0], orDash(row[1]))
		}
		return tw.Flush()
	}))
}

type accountsCmd struct {
	g       *globals
	report  string
	scope   string
	refresh bool
	asJSON  bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "show key financial statement lines for a year" }
func (*accountsCmd) Usage() string {
	return `kfin accounts [-report annual|half|q1|q3] [-scope cfs|ofs|all] [-refresh] [-json] <company> <year>

  Prints the single-company key accounts OpenDART publishes for a business
  year. Finished years are cached permanently, the current year for a week.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.report, "report", "annual", "report: annual, half, q1, q3 or a report code")
	f.StringVar(&c.scope, "scope", "cfs", "statement scope: cfs (consolidated), ofs (separate) or all")
	f.BoolVar(&c.refresh, "refresh", false, "ignore cached copies")
	f.BoolVar(&c.asJSON, "json", false, "print accounts as JSON")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		return c.g.usage("accounts needs a company and a year")
	}
	args := f.Args()
	input := strings.Join(args[:len(args)-1], " ")
	year, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return c.g.usage("year %q is not a number", args[len(args)-1])
	}
	report, err := dart.ParseReportCode(c.report)
	if err != nil {
		return c.g.usage("%v", err)
	}
	scope := strings.ToUpper(c.scope)
	switch scope {
	case "CFS", "OFS", "ALL":
	default:
		return c.g.usage("scope %q is not cfs, ofs or all", c.scope)
	}

	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		res, err := c.g.resolveCompany(ctx, a, input)
		if err != nil {
			return err
		}
		client, err := a.opendart(ctx)
		if err != nil {
			return err
		}
		var opts []cache.CallOption
		if c.refresh {
			opts = append(opts, cache.WithForceRefresh())
		}
		accounts, err := client.SingleAccounts(ctx, res.RegistryCode, year, report, opts...)
		if err != nil {
			return err
		}
		accounts = filterScope(accounts, scope)

		if c.asJSON {
			return writeJSON(c.g.stdout, accounts)
		}
		if len(accounts) == 0 {
			fmt.Fprintf(c.g.stdout, "no %s accounts for %s in %d\n", strings.ToLower(scope), res.Name, year)
			return nil
		}
		tw := newTable(c.g.stdout)
		fmt.Fprintln(tw, "SCOPE\tSTMT\tACCOUNT\tCURRENT\tPRIOR\tBEFORE PRIOR")
		for _, acc := range accounts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				acc.Scope, acc.Statement, acc.Name,
				amount(acc.Current.Decimal.String(), acc.Current.Valid),
				amount(acc.Prior.Decimal.String(), acc.Prior.Valid),
				amount(acc.BeforePrior.Decimal.String(), acc.BeforePrior.Valid))
		}
		return tw.Flush()
	}))
}

func filterScope(accounts []dart.Account, scope string) []dart.Account {
	if scope == "ALL" {
		return accounts
	}
	out := make([]dart.Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Scope == scope {
			out = append(out, acc)
		}
	}
	return out
}

func amount(s string, valid bool) string {
	if !valid {
		return "-"
	}
	return s
}
