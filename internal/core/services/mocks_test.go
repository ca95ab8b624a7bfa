package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/prompts"
)

// mockLLM records requests and tracks how many calls overlap.
type mockLLM struct {
	mu       sync.Mutex
	reply    func(req driven.GenerateRequest) (string, error)
	requests []driven.GenerateRequest
	hold     time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockLLM) Generate(_ context.Context, req driven.GenerateRequest) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.hold > 0 {
		time.Sleep(m.hold)
	}
	if m.reply == nil {
		return "", errors.New("no reply configured")
	}
	return m.reply(req)
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) calls() []driven.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.GenerateRequest(nil), m.requests...)
}

// Kinds of LLM request the engine makes.
const (
	kindPlan    = "plan"
	kindAssess  = "assess"
	kindSummary = "summary"
)

// requestKind tells plan, assessment and summary requests apart by their
// system prompt.
func requestKind(req driven.GenerateRequest) string {
	switch {
	case req.System == prompts.SummarySystem:
		return kindSummary
	case req.System != "":
		return kindAssess
	default:
		return kindPlan
	}
}

// routedLLM answers each request kind with its own function.
func routedLLM(plan, assess, summary func(driven.GenerateRequest) (string, error)) *mockLLM {
	return &mockLLM{reply: func(req driven.GenerateRequest) (string, error) {
		switch requestKind(req) {
		case kindSummary:
			return summary(req)
		case kindAssess:
			return assess(req)
		default:
			return plan(req)
		}
	}}
}

func replyWith(s string) func(driven.GenerateRequest) (string, error) {
	return func(driven.GenerateRequest) (string, error) { return s, nil }
}

func failWith(err error) func(driven.GenerateRequest) (string, error) {
	return func(driven.GenerateRequest) (string, error) { return "", err }
}

// mockEmbedder maps every non-blank text to the same unit vector unless
// a custom function is set.
type mockEmbedder struct {
	mu      sync.Mutex
	embed   func(text string) ([]float32, error)
	batches [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return []float32{}, nil
	}
	if m.embed != nil {
		return m.embed(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return 3 }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// countingSleeper records requested waits without sleeping.
type countingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *countingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// recordingMetrics keeps every observation.
type recordingMetrics struct {
	mu          sync.Mutex
	assessments []string
	retrievals  [][2]int
	retries     []string
	runs        []string
}

func (m *recordingMetrics) ObserveAssessment(ruleSet, verdict string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = append(m.assessments, ruleSet+"/"+verdict)
}

func (m *recordingMetrics) ObserveRetrieval(_ string, raw, unique int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals = append(m.retrievals, [2]int{raw, unique})
}

func (m *recordingMetrics) ObserveRetry(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, reason)
}

func (m *recordingMetrics) ObserveRun(state string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, state)
}

// failingIndex wraps an index and fails filtered searches, or all
// searches, on demand.
type failingIndex struct {
	driven.VectorIndex
	failFiltered bool
	failAll      bool
	countErr     error
	searches     atomic.Int32
}

func (f *failingIndex) Search(ctx context.Context, q driven.SearchQuery) ([]driven.VectorHit, error) {
	f.searches.Add(1)
	if f.failAll || (f.failFiltered && q.Filter != nil) {
		return nil, domain.ErrVectorIndexUnavailable
	}
	return f.VectorIndex.Search(ctx, q)
}

func (f *failingIndex) Count(ctx context.Context, collection string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.VectorIndex.Count(ctx, collection)
}

// stubEvidence returns fixed evidence.
type stubEvidence struct {
	evidence domain.Evidence
	err      error
}

func (s stubEvidence) Locate(context.Context, string, *domain.Document) (domain.Evidence, error) {
	return s.evidence, s.err
}

// stubPrompts serves templates from a map.
type stubPrompts map[string]string

func (s stubPrompts) Load(name string) (string, error) {
	if p, ok := s[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (stubPrompts) Reload() {}

// sinkRecorder collects progress updates.
type sinkRecorder struct {
	mu       sync.Mutex
	steps    []string
	percents []int
}

func (s *sinkRecorder) OnProgress(step string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	s.percents = append(s.percents, percent)
}

// fastSettings returns production settings with no waiting.
func fastSettings() domain.EngineSettings {
	s := domain.DefaultEngineSettings()
	s.AssessDelay = 0
	s.Retry.BaseDelay = 0
	return s
}

const compliantReply = `{"reasoning": "found it", "status": "COMPLIANT", "confidence": 0.9, ` +
	`"evidence": "Note 4 discloses it", "evidence_location": "Note 4", "explanation": "Disclosed.", "recommendations": ""}`
