package dart

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonwraymond/kfin/cache"
)

const companyOperation = "company"

// Company is the OpenDART company overview. Class is the market class
// (Y KOSPI, K KOSDAQ, N KONEX, E other); FiscalMonth is the month the fiscal
// year ends.
type Company struct {
	RegistryCode string `json:"corp_code"`
	Name         string `json:"corp_name"`
	NameEnglish  string `json:"corp_name_eng"`
	StockName    string `json:"stock_name"`
	Ticker       string `json:"stock_code"`
	CEO          string `json:"ceo_nm"`
	Class        string `json:"corp_cls"`
	JurirNo      string `json:"jurir_no"`
	BizrNo       string `json:"bizr_no"`
	Address      string `json:"adres"`
	Homepage     string `json:"hm_url"`
	IRURL        string `json:"ir_url"`
	Phone        string `json:"phn_no"`
	Fax          string `json:"fax_no"`
	IndustryCode string `json:"induty_code"`
	Established  string `json:"est_dt"`
	FiscalMonth  string `json:"acc_mt"`
}

// CompanyKey returns the cache key of a Company call.
func CompanyKey(corpCode string) string {
	return cache.BuildKey(Provider, companyOperation, map[string]string{"corp_code": corpCode})
}

// Company returns the overview of one company, cached for cache.TTLLong.
func (c *Client) Company(ctx context.Context, corpCode string, opts ...cache.CallOption) (Company, error) {
	if !validCorpCode(corpCode) {
		return Company{}, fmt.Errorf("%w: corp code %q", ErrInvalidArgument, corpCode)
	}

	fetch := func(ctx context.Context) (Company, error) {
		params := url.Values{}
		params.Set("corp_code", corpCode)

		var co Company
		noData, err := c.getJSON(ctx, companyOperation, params, &co)
		if err != nil {
			return Company{}, err
		}
		if noData {
			return Company{}, &APIError{Status: StatusNoData, Message: "no company for " + corpCode}
		}
		return co, nil
	}

	res, err := cache.Call(ctx, c.through, CompanyKey(corpCode), cache.TTLLong, fetch, opts...)
	if err != nil {
		return Company{}, err
	}
	return res.Value, nil
}
