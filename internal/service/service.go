// Package service orchestrates hashing, caching, feature extraction and scoring
// behind a single Classify entry point.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goflare.io/slopscan/internal/remote"
	"goflare.io/slopscan/internal/scoring"
	"goflare.io/slopscan/internal/utils"
	"goflare.io/slopscan/models"
)

// ErrInternal marks a failure recovered inside the pipeline.
var ErrInternal = errors.New("internal classification failure")

const tracerName = "goflare.io/slopscan"

// ResultCache stores results keyed by the trimmed text.
type ResultCache interface {
	Get(text string) (models.Result, bool)
	Put(text string, result models.Result)
	Clear()
	Purge() int
	Len() int
	HitRate() int
}

// WindowLimiter reports the occupancy of the rate governor.
type WindowLimiter interface {
	Count() int
	Max() int
	TimeUntilReset() time.Duration
}

// FeatureExtractor derives features from text.
type FeatureExtractor interface {
	Extract(text string) models.FeatureSet
}

// Scorer maps features to a score and a decision.
type Scorer interface {
	Score(f models.FeatureSet) float64
	Classify(score float64) bool
	Explain(f models.FeatureSet) []scoring.Contribution
}

// RemoteDetector is the governed external path.
type RemoteDetector interface {
	Detect(ctx context.Context, text string) (remote.Verdict, error)
}

// Dependencies are the collaborators a Service is built from. Remote, Clock,
// Logger and Tracer are optional.
type Dependencies struct {
	Cache         ResultCache
	Limiter       WindowLimiter
	Extractor     FeatureExtractor
	Scorer        Scorer
	Remote        RemoteDetector
	MinTextLength int
	Clock         utils.Clock
	Logger        *zap.Logger
	Tracer        trace.Tracer
}

// Service is safe for concurrent use.
type Service struct {
	cache         ResultCache
	limiter       WindowLimiter
	extractor     FeatureExtractor
	scorer        Scorer
	remote        RemoteDetector
	minTextLength int
	now           utils.Clock
	logger        *zap.Logger
	tracer        trace.Tracer

	// mu is held shared by every classification and exclusively by Reset.
	mu    sync.RWMutex
	stats counters
	sf    singleflight.Group
}

// New creates a Service from deps.
func New(deps Dependencies) (*Service, error) {
	switch {
	case deps.Cache == nil:
		return nil, errors.New("service: cache is required")
	case deps.Limiter == nil:
		return nil, errors.New("service: limiter is required")
	case deps.Extractor == nil:
		return nil, errors.New("service: extractor is required")
	case deps.Scorer == nil:
		return nil, errors.New("service: scorer is required")
	}

	s := &Service{
		cache:         deps.Cache,
		limiter:       deps.Limiter,
		extractor:     deps.Extractor,
		scorer:        deps.Scorer,
		remote:        deps.Remote,
		minTextLength: deps.MinTextLength,
		now:           utils.ClockOrDefault(deps.Clock),
		logger:        deps.Logger,
		tracer:        deps.Tracer,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Classify classifies text without a deadline.
func (s *Service) Classify(text string) models.Result {
	return s.ClassifyContext(context.Background(), text)
}

// ClassifyContext classifies text. It never fails: every problem is reported
// through the Method of the returned Result. ctx only bounds the remote path.
func (s *Service) ClassifyContext(ctx context.Context, text string) models.Result {
	ctx, span := s.tracer.Start(ctx, "Service.Classify",
		trace.WithAttributes(attribute.Int("slopscan.text_length", len(text))))
	defer span.End()

	result := s.classify(ctx, text)

	span.SetAttributes(
		attribute.String("slopscan.method", string(result.Method)),
		attribute.Bool("slopscan.is_ai", result.IsAI),
		attribute.Float64("slopscan.confidence", result.Confidence),
	)
	if result.Method == models.MethodError {
		span.SetStatus(codes.Error, result.Description)
	}
	return result
}

func (s *Service) classify(ctx context.Context, text string) models.Result {
	if text == "" {
		return s.newResult(false, 0, models.MethodInvalidInput, "Invalid text input", nil)
	}

	clean := trimText(strings.ToValidUTF8(text, "\uFFFD"))
	if utf8.RuneCountInString(clean) < s.minTextLength {
		return s.newResult(false, 0, models.MethodTooShort, "Text too short for analysis", nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.stats.totalAnalyzed.Inc()

	result, err := s.lookupOrCompute(ctx, clean)
	if err != nil {
		s.stats.errors.Inc()
		s.logger.Error("Classification failed", zap.Error(err))
		return s.newResult(false, 0, models.MethodError, "Internal classification error", nil)
	}
	return result
}

// trimText 去除前後空白，U+FEFF 也算空白，U+0085 不算
func trimText(text string) string {
	return strings.TrimFunc(text, func(r rune) bool {
		if r == '\uFEFF' {
			return true
		}
		return r != '\u0085' && unicode.IsSpace(r)
	})
}

// lookupOrCompute turns any panic in the pipeline into ErrInternal.
func (s *Service) lookupOrCompute(ctx context.Context, text string) (result models.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if cached, ok := s.cache.Get(text); ok {
		s.logger.Debug("Cache hit", zap.String("preview", preview(text)))
		return cached, nil
	}

	// concurrent misses for the same text share one computation
	v, err, _ := s.sf.Do(text, func() (any, error) {
		return s.compute(ctx, text), nil
	})
	if err != nil {
		return models.Result{}, err
	}
	return v.(models.Result), nil
}

func (s *Service) compute(ctx context.Context, text string) models.Result {
	if s.remote != nil {
		if result, ok := s.detectRemote(ctx, text); ok {
			s.cache.Put(text, result)
			return result
		}
	}

	fs := s.extractor.Extract(text)
	confidence := utils.Round2(utils.Clamp01(s.scorer.Score(fs)))
	isAI := s.scorer.Classify(confidence)

	s.stats.localDetections.Inc()
	s.countVerdict(isAI)
	s.logger.Debug("Local detection",
		zap.Float64("confidence", confidence),
		zap.Bool("is_ai", isAI),
		zap.Int("words", fs.WordCount))

	result := s.newResult(isAI, confidence, models.MethodLocalPatterns, describe(s.scorer.Explain(fs)), &fs)
	s.cache.Put(text, result)
	return result
}

// detectRemote returns false when the remote path is unavailable, so the
// caller falls back to local patterns.
func (s *Service) detectRemote(ctx context.Context, text string) (models.Result, bool) {
	verdict, err := s.remote.Detect(ctx, text)
	if !errors.Is(err, remote.ErrRateLimited) {
		s.stats.apiCalls.Inc()
	}
	if err != nil {
		s.logger.Warn("Remote detection unavailable, using local patterns", zap.Error(err))
		return models.Result{}, false
	}

	confidence := utils.Round2(utils.Clamp01(verdict.Score))
	isAI := s.scorer.Classify(confidence)
	s.countVerdict(isAI)
	return s.newResult(isAI, confidence, models.MethodRemote, "Remote detector", nil), true
}

func (s *Service) countVerdict(isAI bool) {
	if isAI {
		s.stats.aiDetected.Inc()
	} else {
		s.stats.humanDetected.Inc()
	}
}

func (s *Service) newResult(isAI bool, confidence float64, method models.Method, description string, fs *models.FeatureSet) models.Result {
	return models.Result{
		IsAI:        isAI,
		Confidence:  confidence,
		Method:      method,
		Description: description,
		Features:    fs,
		ProducedAt:  s.now(),
	}
}

func describe(contributions []scoring.Contribution) string {
	const base = "Local pattern analysis"
	if len(contributions) == 0 {
		return base
	}
	names := make([]string, len(contributions))
	for i, c := range contributions {
		names[i] = c.Rule
	}
	return base + ": " + strings.Join(names, ", ")
}

func preview(text string) string {
	const n = 50
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
