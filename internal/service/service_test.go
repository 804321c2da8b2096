package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"goflare.io/slopscan/internal/cache/fifo"
	"goflare.io/slopscan/internal/features"
	"goflare.io/slopscan/internal/limiter"
	"goflare.io/slopscan/internal/remote"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/models"
	"goflare.io/slopscan/pkg/serialization"
)

const (
	aiText = "Overview: Furthermore, we leverage robust and comprehensive tooling to optimize delivery. " +
		"Moreover, the scalable platform will facilitate innovative outcomes for every team.\n" +
		"- Step one is planning\n- Step two is building\n- Step three is shipping\n" +
		"1. Review the plan\n2. Approve the budget\nCertainly, I hope this helps."

	humanText = "honestly i dunno, we went to the beach yesterday and it was kinda cold lol. " +
		"my dog loved it tho! anyway gonna grab some food now, talk later"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type fixture struct {
	svc   *Service
	cache *fifo.Cache
	clock *fakeClock
}

type fixtureOption func(*Dependencies)

func newFixture(t *testing.T, capacity int, opts ...fixtureOption) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	logger := zaptest.NewLogger(t)

	cache, err := fifo.New(capacity, time.Hour, fifo.WithClock(clock.Now), fifo.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	lim, err := limiter.NewSlidingWindow(30, clock.Now, logger)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := scoring.New(scoring.DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}

	deps := Dependencies{
		Cache:         cache,
		Limiter:       lim,
		Extractor:     features.New(),
		Scorer:        engine,
		MinTextLength: 50,
		Clock:         clock.Now,
		Logger:        logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	svc, err := New(deps)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{svc: svc, cache: cache, clock: clock}
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(string) models.FeatureSet {
	panic("extractor exploded")
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Dependencies{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}

func TestInvalidInput(t *testing.T) {
	f := newFixture(t, 10)
	res := f.svc.Classify("")
	if res.Method != models.MethodInvalidInput || res.IsAI || res.Confidence != 0 {
		t.Errorf("Classify(\"\") = %+v", res)
	}
	if st := f.svc.Stats(); st.TotalAnalyzed != 0 {
		t.Errorf("invalid input counted: %+v", st)
	}
}

func TestInvalidUTF8IsClassified(t *testing.T) {
	f := newFixture(t, 10)

	text := strings.Repeat("Furthermore, we leverage robust synergy to optimize outcomes. ", 3) + "caf\xe9"
	res := f.svc.Classify(text)
	if res.Method != models.MethodLocalPatterns {
		t.Fatalf("Classify(latin-1 text) = %+v", res)
	}
	if again := f.svc.Classify(text); again.Confidence != res.Confidence || again.IsAI != res.IsAI {
		t.Errorf("second call = %+v, want %+v", again, res)
	}
	if st := f.svc.Stats(); st.TotalAnalyzed != 2 || st.CacheSize != 1 {
		t.Errorf("stats = %+v", st)
	}

	if res := f.svc.Classify(string([]byte{0xff, 0xfe, 0xfd})); res.Method != models.MethodTooShort {
		t.Errorf("Classify(3 bad bytes) = %+v, want too_short", res)
	}
}

func TestTrimText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hi \n", "hi"},
		{"\ufeffhi\ufeff", "hi"},
		{"\u00a0hi\u2028", "hi"},
		{"\u0085hi\u0085", "\u0085hi\u0085"},
	}
	for _, tt := range tests {
		if got := trimText(tt.in); got != tt.want {
			t.Errorf("trimText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTooShort(t *testing.T) {
	f := newFixture(t, 10)
	for _, in := range []string{"   ", "short text", strings.Repeat("x", 49), "  " + strings.Repeat("y", 49) + "\n", "\ufeff" + strings.Repeat("x", 49) + "\ufeff"} {
		res := f.svc.Classify(in)
		if res.Method != models.MethodTooShort || res.IsAI || res.Confidence != 0 {
			t.Errorf("Classify(%q) = %+v", in, res)
		}
	}
	st := f.svc.Stats()
	if st.TotalAnalyzed != 0 || st.CacheSize != 0 || st.CacheHitRate != 0 {
		t.Errorf("too_short touched stats or cache: %+v", st)
	}
}

func TestClassifyAIAndHuman(t *testing.T) {
	f := newFixture(t, 10)

	ai := f.svc.Classify(aiText)
	if ai.Method != models.MethodLocalPatterns || !ai.IsAI || ai.Confidence != 0.75 {
		t.Errorf("ai result = %+v", ai)
	}
	if ai.Features == nil || ai.Features.BulletListCount != 3 {
		t.Errorf("features missing or wrong: %+v", ai.Features)
	}
	if !strings.Contains(ai.Description, "bullet_lists") {
		t.Errorf("Description = %q", ai.Description)
	}

	human := f.svc.Classify(humanText)
	if human.Method != models.MethodLocalPatterns || human.IsAI || human.Confidence != 0 {
		t.Errorf("human result = %+v", human)
	}

	st := f.svc.Stats()
	if st.TotalAnalyzed != 2 || st.AIDetected != 1 || st.HumanDetected != 1 || st.LocalDetections != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestClassifyIdempotentAndCached(t *testing.T) {
	f := newFixture(t, 10)

	first := f.svc.Classify(aiText)
	f.clock.Advance(time.Minute)
	second := f.svc.Classify("  " + aiText + "\n")

	if first.ProducedAt != second.ProducedAt || first.Confidence != second.Confidence || first.IsAI != second.IsAI {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}

	m := f.cache.Metrics()
	if m.Hits != 1 || m.Misses != 1 {
		t.Errorf("cache metrics = %+v, want 1 hit 1 miss", m)
	}

	st := f.svc.Stats()
	if st.TotalAnalyzed != 2 || st.AIDetected != 1 {
		t.Errorf("cache hit recounted verdict: %+v", st)
	}
	if st.CacheHitRate != 50 || st.CacheSize != 1 {
		t.Errorf("cache stats = %d%% size %d", st.CacheHitRate, st.CacheSize)
	}
}

func TestExpiryRecomputes(t *testing.T) {
	f := newFixture(t, 10)

	first := f.svc.Classify(humanText)
	f.clock.Advance(time.Hour + time.Second)
	second := f.svc.Classify(humanText)

	if !second.ProducedAt.After(first.ProducedAt) {
		t.Errorf("expired entry not recomputed: %v vs %v", first.ProducedAt, second.ProducedAt)
	}
	if f.svc.Stats().HumanDetected != 2 {
		t.Errorf("HumanDetected = %d, want 2", f.svc.Stats().HumanDetected)
	}
}

func TestEvictionThroughService(t *testing.T) {
	const capacity = 3
	f := newFixture(t, capacity)

	texts := make([]string, capacity+1)
	for i := range texts {
		texts[i] = fmt.Sprintf("%s Variant number %d.", humanText, i)
		f.svc.Classify(texts[i])
	}

	if _, ok := f.cache.Get(texts[0]); ok {
		t.Error("first-inserted text still cached")
	}
	for _, text := range texts[1:] {
		if _, ok := f.cache.Get(text); !ok {
			t.Errorf("text %q evicted", text[len(text)-20:])
		}
	}
}

func TestInternalErrorIsRecovered(t *testing.T) {
	f := newFixture(t, 10, func(d *Dependencies) { d.Extractor = panickingExtractor{} })

	res := f.svc.Classify(humanText)
	if res.Method != models.MethodError || res.IsAI || res.Confidence != 0 {
		t.Errorf("result = %+v", res)
	}
	st := f.svc.Stats()
	if st.Errors != 1 || st.TotalAnalyzed != 1 || st.CacheSize != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestConfidenceInvariant(t *testing.T) {
	f := newFixture(t, 100)
	inputs := []string{
		aiText,
		humanText,
		strings.Repeat("Moreover, this is robust. ", 10),
		strings.Repeat("word ", 40),
		"Summary: Everything is great and we should leverage it as soon as we can, even tomorrow.",
	}
	for _, in := range inputs {
		res := f.svc.Classify(in)
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("confidence %v out of range", res.Confidence)
		}
		if scaled := res.Confidence * 100; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Errorf("confidence %v not rounded to 2 places", res.Confidence)
		}
		if res.IsAI != (res.Confidence > scoring.DefaultThreshold) {
			t.Errorf("IsAI=%v disagrees with confidence %v", res.IsAI, res.Confidence)
		}
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t, 10)
	f.svc.Classify(aiText)
	f.svc.Classify(aiText)

	f.svc.Reset()
	st := f.svc.Stats()
	if st.TotalAnalyzed != 0 || st.AIDetected != 0 || st.CacheSize != 0 || st.CacheHitRate != 0 {
		t.Errorf("stats after reset = %+v", st)
	}
}

func TestStatsLimiterSnapshot(t *testing.T) {
	f := newFixture(t, 10)
	st := f.svc.Stats()
	if st.Limiter.MaxPerMinute != 30 || st.Limiter.RequestsThisWindow != 0 || st.Limiter.MsUntilReset != 0 {
		t.Errorf("limiter = %+v", st.Limiter)
	}
}

func TestRemotePath(t *testing.T) {
	verdicts := map[string]float64{humanText: 0.912}
	detector := remote.DetectorFunc(func(ctx context.Context, text string) (remote.Verdict, error) {
		score, ok := verdicts[text]
		if !ok {
			return remote.Verdict{}, errors.New("upstream down")
		}
		return remote.Verdict{Score: score}, nil
	})

	f := newFixture(t, 10, func(d *Dependencies) { d.Remote = detector })

	res := f.svc.Classify(humanText)
	if res.Method != models.MethodRemote || !res.IsAI || res.Confidence != 0.91 {
		t.Errorf("remote result = %+v", res)
	}

	// failure falls back to local patterns
	res = f.svc.Classify(aiText)
	if res.Method != models.MethodLocalPatterns || !res.IsAI {
		t.Errorf("fallback result = %+v", res)
	}

	st := f.svc.Stats()
	if st.APICalls != 2 || st.LocalDetections != 1 || st.AIDetected != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestConcurrentClassify(t *testing.T) {
	f := newFixture(t, 100)

	var calls int64
	var mu sync.Mutex
	counting := countingExtractor{inner: features.New(), onCall: func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}}
	f.svc.extractor = counting

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := aiText
			if i%2 == 1 {
				text = humanText
			}
			f.svc.Classify(text)
		}(i)
	}
	wg.Wait()

	st := f.svc.Stats()
	if st.TotalAnalyzed != 64 {
		t.Errorf("TotalAnalyzed = %d, want 64", st.TotalAnalyzed)
	}
	if st.AIDetected+st.HumanDetected != calls {
		t.Errorf("verdicts %d != computations %d", st.AIDetected+st.HumanDetected, calls)
	}
	if st.CacheSize != 2 {
		t.Errorf("CacheSize = %d, want 2", st.CacheSize)
	}
}

type countingExtractor struct {
	inner  FeatureExtractor
	onCall func()
}

func (c countingExtractor) Extract(text string) models.FeatureSet {
	c.onCall()
	return c.inner.Extract(text)
}

func TestSnapshotExportImport(t *testing.T) {
	src := newFixture(t, 10)
	src.svc.Classify(aiText)

	var buf bytes.Buffer
	n, err := src.svc.Export(&buf, serialization.JSONEncoder)
	if err != nil || n != 1 {
		t.Fatalf("Export = %d, %v", n, err)
	}

	dst := newFixture(t, 10)
	n, err = dst.svc.Import(&buf, serialization.JSONDecoder)
	if err != nil || n != 1 {
		t.Fatalf("Import = %d, %v", n, err)
	}

	res := dst.svc.Classify(aiText)
	if !res.IsAI || dst.svc.Stats().AIDetected != 0 {
		t.Errorf("imported entry not served from cache: %+v", res)
	}
}

func TestRunJanitorStops(t *testing.T) {
	f := newFixture(t, 10)
	f.svc.Classify(humanText)
	f.clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.svc.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for f.cache.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not purge expired entry")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
