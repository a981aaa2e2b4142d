package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/usecase/handlers"
	healthuc "github.com/careline-ai/careline/internal/usecase/health"
	ingestuc "github.com/careline-ai/careline/internal/usecase/ingest"
	resolveuc "github.com/careline-ai/careline/internal/usecase/resolve"
)

// --- Mocks ---

type stubClassifier struct{ intent domain.Intent }

func (s stubClassifier) Classify(string) domain.Intent { return s.intent }

type stubRegistry struct{}

func (stubRegistry) For(domain.Intent) handlers.Handler { return nil }

type stubAnswerer struct {
	answer string
	err    error
}

func (s stubAnswerer) Answer(context.Context, string) (string, error) { return s.answer, s.err }

type memHistory struct {
	turns []domain.ChatTurn
}

func (m *memHistory) Append(_ context.Context, turn domain.ChatTurn) error {
	turn.ID = int64(len(m.turns) + 1)
	m.turns = append(m.turns, turn)
	return nil
}

func (m *memHistory) List(_ context.Context, callerID string, limit, _ int) ([]domain.ChatTurn, error) {
	var out []domain.ChatTurn
	for i := len(m.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.turns[i].CallerID == callerID {
			out = append(out, m.turns[i])
		}
	}
	return out, nil
}

type stubChunkStore struct {
	collections map[string]int
}

func (s *stubChunkStore) EnsureIndex(_ context.Context, collection string, _ int) error {
	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = 0
	}
	return nil
}

func (s *stubChunkStore) ReplaceSource(_ context.Context, collection, _ string, chunks []domain.Chunk) error {
	s.collections[collection] = len(chunks)
	return nil
}

func (s *stubChunkStore) DeleteSource(_ context.Context, collection, _ string) error {
	s.collections[collection] = 0
	return nil
}

func (s *stubChunkStore) Count(_ context.Context, collection string) (int, error) {
	n, ok := s.collections[collection]
	if !ok {
		return 0, domain.ErrCollectionNotFound
	}
	return n, nil
}

type stubEmbedder struct{ dim int }

func (s stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: make([]float32, s.dim)}, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error        { return s.err }
func (s stubPinger) PingContext(context.Context) error { return s.err }

// --- Tests ---

type serverFixture struct {
	handler http.Handler
	history *memHistory
	chunks  *stubChunkStore
}

func newTestServer(t *testing.T, answerer resolveuc.Answerer, indexErr error) serverFixture {
	t.Helper()
	history := &memHistory{}
	chunks := &stubChunkStore{collections: make(map[string]int)}

	resolver := resolveuc.New(
		stubClassifier{intent: domain.IntentUnknown}, stubRegistry{}, answerer, history, nil)
	ingest := ingestuc.New(chunks, stubEmbedder{dim: 4}, 100, 20, 4)
	health := healthuc.New(stubPinger{err: indexErr}, stubPinger{}, nil)

	srv := NewServer(resolver, ingest, health, nil, zap.NewNop())
	return serverFixture{handler: srv.Router(), history: history, chunks: chunks}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "check the calibration menu"}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/chat",
		`{"message": "how do I calibrate the monitor?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Answer != "check the calibration menu" {
		t.Errorf("answer = %q", res.Answer)
	}
	if res.DataSource != domain.DataSourceRAG {
		t.Errorf("data_source = %q, want %q", res.DataSource, domain.DataSourceRAG)
	}
	if len(fx.history.turns) != 1 {
		t.Errorf("recorded %d turns, want 1", len(fx.history.turns))
	}
}

func TestChat_WhitespaceMessageStillAnswered(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "nothing relevant found"}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/chat", `{"message": "   "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res chatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Answer != "nothing relevant found" {
		t.Errorf("answer = %q", res.Answer)
	}
	if res.DataSource != domain.DataSourceRAG {
		t.Errorf("data_source = %q, want %q", res.DataSource, domain.DataSourceRAG)
	}
	if len(fx.history.turns) != 1 {
		t.Errorf("recorded %d turns, want 1", len(fx.history.turns))
	}
}

func TestChat_MalformedBody(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/chat", `{"message": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeBadRequest {
		t.Errorf("code = %q, want %q", body.Code, codeBadRequest)
	}
}

func TestChat_InfraFailureStillAnswers(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{err: errors.New("index down")}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/chat", `{"message": "help"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with an apology", rec.Code)
	}
	var res chatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.DataSource != domain.DataSourceFallbackError {
		t.Errorf("data_source = %q, want %q", res.DataSource, domain.DataSourceFallbackError)
	}
	if len(fx.history.turns) != 1 {
		t.Errorf("recorded %d turns, want 1", len(fx.history.turns))
	}
}

func TestIngestAndStats(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/collections/docs/documents",
		`{"source_id": "manual-1", "text": "Press the reset button. Hold for five seconds. The unit restarts."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res ingestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.SourceID != "manual-1" || res.Chunks < 1 {
		t.Errorf("response = %+v", res)
	}

	rec = doJSON(t, fx.handler, http.MethodGet, "/v1/collections/docs/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats statsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.Collection != "docs" || stats.Chunks != res.Chunks {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIngest_EmptySourceID(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, nil)

	rec := doJSON(t, fx.handler, http.MethodPost, "/v1/collections/docs/documents",
		`{"source_id": "", "text": "some text"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", body.Code, codeValidationFailed)
	}
}

func TestDeleteDocument(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, nil)
	fx.chunks.collections["docs"] = 3

	rec := doJSON(t, fx.handler, http.MethodDelete, "/v1/collections/docs/documents/manual-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if fx.chunks.collections["docs"] != 0 {
		t.Error("chunks survived the delete")
	}
}

func TestStats_MissingCollection(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, nil)

	rec := doJSON(t, fx.handler, http.MethodGet, "/v1/collections/nope/stats", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeCollectionNotFound {
		t.Errorf("code = %q, want %q", body.Code, codeCollectionNotFound)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "the manual says so"}, nil)

	doJSON(t, fx.handler, http.MethodPost, "/v1/chat", `{"message": "first"}`)
	doJSON(t, fx.handler, http.MethodPost, "/v1/chat", `{"message": "second"}`)

	rec := doJSON(t, fx.handler, http.MethodGet, "/v1/history?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
	if res.Items[0].Message != "second" {
		t.Errorf("newest message = %q", res.Items[0].Message)
	}
}

func TestHealth_Degraded(t *testing.T) {
	fx := newTestServer(t, stubAnswerer{answer: "x"}, errors.New("index down"))

	rec := doJSON(t, fx.handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var res healthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Status != string(healthuc.Degraded) {
		t.Errorf("status = %q", res.Status)
	}
	if res.Checks["vector_index"] != string(healthuc.CheckError) {
		t.Errorf("vector_index = %q, want error", res.Checks["vector_index"])
	}
}
