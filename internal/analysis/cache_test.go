package analysis_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"videolens/internal/analysis"
)

func TestModelCacheReusesHandlePerSpec(t *testing.T) {
	var built []analysis.ModelSpec
	cache := analysis.NewModelCache(func(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
		built = append(built, spec)
		return &fakeModel{spec: spec}, nil
	})

	base := analysis.ModelSpec{
		Name:              "gemini-2.0-flash",
		Generation:        analysis.GenerationConfig{Temperature: 0.3, TopP: 0.3, TopK: 4, MaxOutputTokens: 65536, ResponseMIMEType: "text/plain"},
		SystemInstruction: "describe",
	}

	first, err := cache.Get(context.Background(), base)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := cache.Get(context.Background(), base)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second {
		t.Fatal("expected identical spec to reuse the cached handle")
	}
	if len(built) != 1 {
		t.Fatalf("expected one build, got %d", len(built))
	}

	variants := []func(s *analysis.ModelSpec){
		func(s *analysis.ModelSpec) { s.Name = "gemini-1.5-pro" },
		func(s *analysis.ModelSpec) { s.Generation.Temperature = 0.4 },
		func(s *analysis.ModelSpec) { s.Generation.TopP = 0.9 },
		func(s *analysis.ModelSpec) { s.Generation.TopK = 8 },
		func(s *analysis.ModelSpec) { s.Generation.MaxOutputTokens = 1024 },
		func(s *analysis.ModelSpec) { s.Generation.ResponseMIMEType = "application/json" },
		func(s *analysis.ModelSpec) { s.SystemInstruction = "" },
	}
	for i, mutate := range variants {
		spec := base
		mutate(&spec)
		got, err := cache.Get(context.Background(), spec)
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if got == first {
			t.Fatalf("variant %d shared the base handle", i)
		}
	}
	if cache.Len() != len(variants)+1 {
		t.Fatalf("expected %d cached handles, got %d", len(variants)+1, cache.Len())
	}
}

func TestModelCacheDoesNotStoreFailures(t *testing.T) {
	calls := 0
	cache := analysis.NewModelCache(func(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unavailable")
		}
		return &fakeModel{spec: spec}, nil
	})
	spec := analysis.ModelSpec{Name: "gemini-1.5-flash"}
	if _, err := cache.Get(context.Background(), spec); err == nil {
		t.Fatal("expected first build to fail")
	}
	if cache.Len() != 0 {
		t.Fatal("failed build must not be cached")
	}
	if _, err := cache.Get(context.Background(), spec); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a rebuild after failure, got %d calls", calls)
	}
}

func TestModelCacheConcurrentGet(t *testing.T) {
	var mu sync.Mutex
	cache := analysis.NewModelCache(func(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
		mu.Lock()
		defer mu.Unlock()
		return &fakeModel{spec: spec}, nil
	})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spec := analysis.ModelSpec{Name: "gemini-1.5-flash"}
			if i%2 == 1 {
				spec.Name = "gemini-1.5-pro"
			}
			if _, err := cache.Get(context.Background(), spec); err != nil {
				t.Errorf("Get: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if cache.Len() != 2 {
		t.Fatalf("expected two cached handles, got %d", cache.Len())
	}
}
