package dart

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonwraymond/kfin/cache"
)

const singleAccountsOperation = "fnlttSinglAcnt"

// firstAccountsYear is the earliest business year OpenDART serves
// statements for.
const firstAccountsYear = 2015

// ReportCode selects the periodic report a statement comes from.
type ReportCode string

// Report codes.
const (
	ReportAnnual ReportCode = "11011"
	ReportHalf   ReportCode = "11012"
	ReportQ1     ReportCode = "11013"
	ReportQ3     ReportCode = "11014"
)

// Valid reports whether r is a known report code.
func (r ReportCode) Valid() bool {
	switch r {
	case ReportAnnual, ReportHalf, ReportQ1, ReportQ3:
		return true
	}
	return false
}

// ParseReportCode accepts a report code or one of annual, half, q1, q3.
func ParseReportCode(s string) (ReportCode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "annual", "fy":
		return ReportAnnual, nil
	case "half", "h1":
		return ReportHalf, nil
	case "q1":
		return ReportQ1, nil
	case "q3":
		return ReportQ3, nil
	}
	if r := ReportCode(s); r.Valid() {
		return r, nil
	}
	return "", fmt.Errorf("%w: report code %q", ErrInvalidArgument, s)
}

// Account is one line of a single-company financial statement. Amounts are
// in Currency; a missing amount is not Valid.
type Account struct {
	ReceiptNo   string              `json:"receipt_no"`
	Year        string              `json:"year"`
	ReportCode  ReportCode          `json:"report_code"`
	Ticker      string              `json:"ticker,omitempty"`
	Name        string              `json:"name"`
	Scope       string              `json:"scope"`     // CFS consolidated, OFS separate
	Statement   string              `json:"statement"` // BS balance sheet, IS income statement
	Period      string              `json:"period"`    // e.g. 제 56 기
	PeriodDate  string              `json:"period_date"`
	Current     decimal.NullDecimal `json:"current"`
	Prior       decimal.NullDecimal `json:"prior"`
	BeforePrior decimal.NullDecimal `json:"before_prior"`
	Order       int                 `json:"order"`
	Currency    string              `json:"currency"`
}

// Consolidated reports whether the line belongs to the consolidated statement.
func (a Account) Consolidated() bool { return a.Scope == "CFS" }

// accountRow is the wire form of Account.
type accountRow struct {
	ReceiptNo         string `json:"rcept_no"`
	BusinessYear      string `json:"bsns_year"`
	StockCode         string `json:"stock_code"`
	ReportCode        string `json:"reprt_code"`
	AccountName       string `json:"account_nm"`
	FsDiv             string `json:"fs_div"`
	SjDiv             string `json:"sj_div"`
	ThisTermName      string `json:"thstrm_nm"`
	ThisTermDate      string `json:"thstrm_dt"`
	ThisTermAmount    string `json:"thstrm_amount"`
	PriorTermAmount   string `json:"frmtrm_amount"`
	BeforePriorAmount string `json:"bfefrmtrm_amount"`
	Order             string `json:"ord"`
	Currency          string `json:"currency"`
}

type singleAccountsResponse struct {
	List []accountRow `json:"list"`
}

// SingleAccountsKey returns the cache key of a SingleAccounts call. The
// report code is part of the key only for non-annual reports.
func SingleAccountsKey(corpCode string, year int, report ReportCode) string {
	params := map[string]string{
		"corp_code": corpCode,
		"year":      strconv.Itoa(year),
	}
	if report != ReportAnnual {
		params["reprt_code"] = string(report)
	}
	return cache.BuildKey(Provider, singleAccountsOperation, params)
}

// SingleAccounts returns the major account lines of one company's report.
// A report OpenDART has no data for yields an empty list. Closed years are
// cached permanently.
func (c *Client) SingleAccounts(ctx context.Context, corpCode string, year int, report ReportCode, opts ...cache.CallOption) ([]Account, error) {
	now := c.now()
	if !validCorpCode(corpCode) {
		return nil, fmt.Errorf("%w: corp code %q", ErrInvalidArgument, corpCode)
	}
	if year < firstAccountsYear || year > now.Year() {
		return nil, fmt.Errorf("%w: business year %d", ErrInvalidArgument, year)
	}
	if !report.Valid() {
		return nil, fmt.Errorf("%w: report code %q", ErrInvalidArgument, report)
	}

	fetch := func(ctx context.Context) ([]Account, error) {
		params := url.Values{}
		params.Set("corp_code", corpCode)
		params.Set("bsns_year", strconv.Itoa(year))
		params.Set("reprt_code", string(report))

		var resp singleAccountsResponse
		noData, err := c.getJSON(ctx, singleAccountsOperation, params, &resp)
		if err != nil {
			return nil, err
		}
		if noData {
			return []Account{}, nil
		}
		return convertAccounts(resp.List)
	}

	res, err := cache.Call(ctx, c.through, SingleAccountsKey(corpCode, year, report), cache.TTLForPeriod(year, now), fetch, opts...)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func convertAccounts(rows []accountRow) ([]Account, error) {
	out := make([]Account, 0, len(rows))
	for _, r := range rows {
		a := Account{
			ReceiptNo:  r.ReceiptNo,
			Year:       r.BusinessYear,
			ReportCode: ReportCode(r.ReportCode),
			Ticker:     strings.TrimSpace(r.StockCode),
			Name:       strings.TrimSpace(r.AccountName),
			Scope:      r.FsDiv,
			Statement:  r.SjDiv,
			Period:     r.ThisTermName,
			PeriodDate: r.ThisTermDate,
			Currency:   r.Currency,
		}
		var err error
		if a.Current, err = parseAmount(r.ThisTermAmount); err != nil {
			return nil, err
		}
		if a.Prior, err = parseAmount(r.PriorTermAmount); err != nil {
			return nil, err
		}
		if a.BeforePrior, err = parseAmount(r.BeforePriorAmount); err != nil {
			return nil, err
		}
		a.Order, _ = strconv.Atoi(strings.TrimSpace(r.Order))
		out = append(out, a)
	}
	return out, nil
}

// parseAmount reads an amount such as "-1,234,567". Blank and "-" mean no
// amount.
func parseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: amount %q", ErrMalformedResponse, s)
	}
	return decimal.NewNullDecimal(d), nil
}

func validCorpCode(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
