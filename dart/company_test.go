package dart

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/kfin/cache"
)

const companyJSON = `{
	"status": "000",
	"message": "정상",
	"corp_code": "00126380",
	"corp_name": "삼성전자(주)",
	"corp_name_eng": "SAMSUNG ELECTRONICS CO,.LTD",
	"stock_name": "삼성전자",
	"stock_code": "005930",
	"ceo_nm": "한종희, 경계현",
	"corp_cls": "Y",
	"induty_code": "264",
	"est_dt": "19690113",
	"acc_mt": "12"
}`

func TestCompany(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = jsonBody(companyJSON)
	tiers := newTestTiers(t)
	c := newTestClient(t, srv, WithCache(tiers.Through))

	co, err := c.Company(context.Background(), "00126380")
	if err != nil {
		t.Fatalf("Company() error = %v", err)
	}
	if co.Ticker != "005930" || co.Class != "Y" || co.FiscalMonth != "12" {
		t.Errorf("Company() = %+v", co)
	}

	again, err := c.Company(context.Background(), "00126380")
	if err != nil {
		t.Fatalf("second Company() error = %v", err)
	}
	if again != co {
		t.Errorf("cached Company() = %+v, want %+v", again, co)
	}
	if got := f.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1 (second call cached)", got)
	}

	var onDisk Company
	found, err := tiers.Persistent.Get(context.Background(), CompanyKey("00126380"), &onDisk)
	if err != nil || !found {
		t.Fatalf("persistent Get() = %v, %v", found, err)
	}
	if onDisk != co {
		t.Errorf("persisted Company = %+v, want %+v", onDisk, co)
	}
}

func TestCompany_ForceRefresh(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = jsonBody(companyJSON)
	tiers := newTestTiers(t)
	c := newTestClient(t, srv, WithCache(tiers.Through))

	for i := 0; i < 2; i++ {
		if _, err := c.Company(context.Background(), "00126380", cache.WithForceRefresh()); err != nil {
			t.Fatalf("Company() error = %v", err)
		}
	}
	if got := f.hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestCompany_NoData(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = jsonBody(`{"status":"013","message":"조회된 데이타가 없습니다."}`)
	c := newTestClient(t, srv)

	_, err := c.Company(context.Background(), "99999999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != StatusNoData {
		t.Errorf("Company() error = %v, want *APIError 013", err)
	}
}

func TestCompany_InvalidCorpCode(t *testing.T) {
	f, srv := newFakeDart(t)
	c := newTestClient(t, srv)

	for _, code := range []string{"", "1234567", "0012638X", "005930"} {
		if _, err := c.Company(context.Background(), code); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Company(%q) error = %v, want ErrInvalidArgument", code, err)
		}
	}
	if got := f.hits.Load(); got != 0 {
		t.Errorf("hits = %d, want 0", got)
	}
}

func TestCompanyKey(t *testing.T) {
	if got, want := CompanyKey("00126380"), "opendart:company:00126380"; got != want {
		t.Errorf("CompanyKey() = %q, want %q", got, want)
	}
}
