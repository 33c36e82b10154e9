package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ai-shortlist/domain"
	"ai-shortlist/infrastructure"
	"ai-shortlist/shortlist"
)

type stubShortlister struct {
	result    *shortlist.Result
	err       error
	runCalls  int
	prevCalls int
	lastJobID uint
}

func (s *stubShortlister) Run(_ context.Context, jobID uint) (*shortlist.Result, error) {
	s.runCalls++
	s.lastJobID = jobID
	return s.result, s.err
}

func (s *stubShortlister) Previous(_ context.Context, jobID uint) (*shortlist.Result, error) {
	s.prevCalls++
	s.lastJobID = jobID
	return s.result, s.err
}

type stubPublisher struct {
	err     error
	lastReq infrastructure.ShortlistRequest
	calls   int
}

func (s *stubPublisher) PublishRun(_ context.Context, req infrastructure.ShortlistRequest) error {
	s.calls++
	s.lastReq = req
	return s.err
}

func newTestRouter(s Shortlister, q RunPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHTTPHandler(router, s, q, zap.NewNop())
	return router
}

func sampleResult() *shortlist.Result {
	return &shortlist.Result{
		Job: &domain.Job{ID: 1, Title: "Backend Engineer"},
		Candidates: []domain.Candidate{
			{ID: 2, ApplicationID: 2, Name: "Bob", Match: 90, Skills: []string{"Go"}},
			{ID: 1, ApplicationID: 1, Name: "Alice", Match: 40, Skills: []string{"SQL"}},
		},
		TotalAnalyzed:     2,
		TotalApplications: 2,
	}
}

func TestRunShortlistingReturnsRankedCandidates(t *testing.T) {
	stub := &stubShortlister{result: sampleResult()}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/1/shortlist", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.runCalls)
	assert.Equal(t, uint(1), stub.lastJobID)

	var got shortlist.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, "Bob", got.Candidates[0].Name)
	assert.Equal(t, 90, got.Candidates[0].Match)
	assert.Equal(t, 2, got.TotalAnalyzed)
	assert.Equal(t, 2, got.TotalApplications)
}

func TestRunShortlistingJobNotFound(t *testing.T) {
	stub := &stubShortlister{err: shortlist.ErrJobNotFound}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/42/shortlist", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunShortlistingConflictWhileRunning(t *testing.T) {
	stub := &stubShortlister{err: shortlist.ErrRunInProgress}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/1/shortlist", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRunShortlistingInvalidJobID(t *testing.T) {
	stub := &stubShortlister{result: sampleResult()}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/abc/shortlist", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, stub.runCalls)
}

func TestGetShortlistResults(t *testing.T) {
	stub := &stubShortlister{result: sampleResult()}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/1/shortlist", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.prevCalls)
	assert.Zero(t, stub.runCalls)

	// previously-computed results never attempt evaluation, so the
	// payload carries no failure count
	assert.NotContains(t, w.Body.String(), "totalFailed")
}

func TestGetShortlistResultsInternalError(t *testing.T) {
	stub := &stubShortlister{err: errors.New("database down")}
	router := newTestRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/1/shortlist", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueueShortlisting(t *testing.T) {
	stub := &stubShortlister{}
	publisher := &stubPublisher{}
	router := newTestRouter(stub, publisher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/7/shortlist/async", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, uint(7), publisher.lastReq.JobID)
	assert.Zero(t, stub.runCalls)
}

func TestQueueShortlistingWithoutQueue(t *testing.T) {
	router := newTestRouter(&stubShortlister{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/7/shortlist/async", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubShortlister{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
