package cache_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonwraymond/kfin/cache"
)

func ExampleBuildKey() {
	key := cache.BuildKey("opendart", "fnlttSinglAcnt", map[string]string{
		"corp_code": "00126380",
		"bsns_year": "2024",
	})
	fmt.Println(key)
	// Output: opendart:fnlttSinglAcnt:2024_00126380
}

func ExampleMemoryCache() {
	c := cache.NewMemoryCache[int](2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	fmt.Println(c.Has("a"), c.Has("b"), c.Has("c"))
	// Output: false true true
}

func ExampleCall() {
	dir, err := os.MkdirTemp("", "kfin-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	tiers, err := cache.NewTiers(cache.TiersConfig{Path: filepath.Join(dir, "cache.db")})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer tiers.Close()

	ctx := context.Background()
	fetch := func(context.Context) (string, error) { return "삼성전자", nil }
	key := cache.BuildKey("opendart", "company", map[string]string{"corp_code": "00126380"})

	first, _ := cache.Call(ctx, tiers.Through, key, cache.TTLLong, fetch)
	second, _ := cache.Call(ctx, tiers.Through, key, cache.TTLLong, fetch)
	tiers.Memory.Clear()
	third, _ := cache.Call(ctx, tiers.Through, key, cache.TTLLong, fetch)

	fmt.Printf("%q %q %q\n", first.Layer, second.Layer, third.Layer)
	fmt.Println(third.Value)
	// Output:
	// "" "memory" "disk"
	// 삼성전자
}
