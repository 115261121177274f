package health_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/kfin/entity"
	"github.com/jonwraymond/kfin/health"
	"github.com/jonwraymond/kfin/ratelimit"
)

func ExampleAggregator_Run() {
	index := entity.NewIndex(entity.Options{})
	index.Load([]entity.CompanyRecord{
		{RegistryCode: "00126380", Name: "삼성전자", Ticker: "005930"},
	})

	quota := ratelimit.New(ratelimit.Config{Name: "opendart", DailyLimit: 100})
	quota.Restore(quota.Status().Day, 95)

	agg := health.NewAggregator(health.AggregatorConfig{Sequential: true})
	agg.Register(
		health.NewIndexChecker(index),
		health.NewQuotaChecker(quota, 0.10),
	)

	report := agg.Run(context.Background())
	for _, c := range report.Checks {
		fmt.Printf("%s: %s\n", c.Name, c.Status)
	}
	fmt.Println("overall:", report.Status)
	// Output:
	// index: healthy
	// quota: degraded
	// overall: degraded
}

func ExampleCheckFunc() {
	checker := health.CheckFunc("snapshot", func(ctx context.Context) health.Result {
		return health.Degraded("company snapshot older than 7 days")
	})

	result := checker.Check(context.Background())
	fmt.Println(checker.Name(), result.Status, result.Message)
	// Output:
	// snapshot degraded company snapshot older than 7 days
}
