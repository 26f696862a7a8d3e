package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academ-hub/gradebook-analytics/internal/application/command"
	"github.com/academ-hub/gradebook-analytics/internal/application/query"
	"github.com/academ-hub/gradebook-analytics/internal/domain/analytics"
	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
	"github.com/academ-hub/gradebook-analytics/internal/domain/instructor"
	"github.com/academ-hub/gradebook-analytics/internal/domain/shared"
)

// memRecordRepo is a minimal in-memory gradebook.Repository.
type memRecordRepo struct {
	records []gradebook.StudentRecord
	batches []gradebook.ImportBatch
}

func (m *memRecordRepo) UpsertRecords(_ context.Context, records []gradebook.StudentRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func (m *memRecordRepo) UpdateDerived(context.Context, []gradebook.StudentRecord) error {
	return nil
}

func (m *memRecordRepo) GetByStudentID(_ context.Context, studentID string) (*gradebook.StudentRecord, error) {
	for i := range m.records {
		if m.records[i].StudentID == studentID {
			return &m.records[i], nil
		}
	}
	return nil, shared.ErrRecordNotFound
}

func (m *memRecordRepo) ListAll(context.Context) ([]gradebook.StudentRecord, error) {
	return m.records, nil
}

func (m *memRecordRepo) ListBySection(_ context.Context, section string) ([]gradebook.StudentRecord, error) {
	var out []gradebook.StudentRecord
	for _, r := range m.records {
		if r.SectionKey() == section {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecordRepo) Count(context.Context) (int, error) { return len(m.records), nil }

func (m *memRecordRepo) RecordImportBatch(_ context.Context, batch gradebook.ImportBatch) error {
	m.batches = append(m.batches, batch)
	return nil
}

// memSnapshotRepo is a minimal in-memory analytics.SnapshotRepository.
type memSnapshotRepo struct {
	snapshots []analytics.CohortSnapshot
}

func (m *memSnapshotRepo) SaveSnapshot(_ context.Context, snapshot analytics.CohortSnapshot) error {
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

func (m *memSnapshotRepo) LatestSnapshot(context.Context) (*analytics.CohortSnapshot, error) {
	if len(m.snapshots) == 0 {
		return nil, shared.ErrSnapshotNotFound
	}
	return &m.snapshots[len(m.snapshots)-1], nil
}

func (m *memSnapshotRepo) PruneSnapshots(context.Context, time.Time) (int, error) {
	return 0, nil
}

// memInstructorRepo is a minimal in-memory instructor.Repository.
type memInstructorRepo struct {
	instructors []*instructor.Instructor
}

func (m *memInstructorRepo) Create(_ context.Context, ins *instructor.Instructor) error {
	for _, existing := range m.instructors {
		if existing.Email == ins.Email || existing.APIKeyID == ins.APIKeyID {
			return shared.ErrInstructorAlreadyExists
		}
	}
	m.instructors = append(m.instructors, ins)
	return nil
}

func (m *memInstructorRepo) GetByAPIKeyID(_ context.Context, keyID string) (*instructor.Instructor, error) {
	for _, ins := range m.instructors {
		if ins.APIKeyID == keyID {
			return ins, nil
		}
	}
	return nil, shared.ErrInstructorNotFound
}

func (m *memInstructorRepo) GetByEmail(_ context.Context, email string) (*instructor.Instructor, error) {
	for _, ins := range m.instructors {
		if ins.Email == email {
			return ins, nil
		}
	}
	return nil, shared.ErrInstructorNotFound
}

func (m *memInstructorRepo) Count(context.Context) (int, error) {
	return len(m.instructors), nil
}

const bootstrapKey = "bootstrap-secret"

func newTestServer(t *testing.T) (*Server, *memRecordRepo, *memInstructorRepo) {
	t.Helper()

	recordRepo := &memRecordRepo{}
	instructorRepo := &memInstructorRepo{}
	snapshotRepo := &memSnapshotRepo{}
	policy := gradebook.DefaultPolicy()

	cfg := DefaultConfig()
	cfg.AdminBootstrapKey = bootstrapKey
	cfg.EnableMetrics = false

	deps := Dependencies{
		ImportRoster:     command.NewImportRosterHandler(recordRepo, nil, policy, nil),
		RecomputeGrades:  command.NewRecomputeGradesHandler(recordRepo, nil, policy, nil),
		CreateInstructor: command.NewCreateInstructorHandler(instructorRepo, nil),

		CohortSummary:     query.NewGetCohortSummaryHandler(recordRepo, nil, 0, nil),
		CohortSnapshot:    query.NewGetCohortSnapshotHandler(snapshotRepo, nil),
		SectionComparison: query.NewGetSectionComparisonHandler(recordRepo, nil, 0, nil),
		TopPerformers:     query.NewGetTopPerformersHandler(recordRepo, nil, 0, nil),
		AtRisk:            query.NewGetAtRiskHandler(recordRepo, policy, nil),
		StudentProfile:    query.NewGetStudentProfileHandler(recordRepo, nil),

		Instructors: instructorRepo,
	}

	return NewServer(cfg, deps), recordRepo, instructorRepo
}

func doJSON(t *testing.T, s *Server, method, path, apiKey string, body any) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set(s.config.APIKeyHeader, apiKey)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// createInstructorForTest bootstraps an account and returns its API key.
func createInstructorForTest(t *testing.T, s *Server, key, email string, admin bool) string {
	t.Helper()

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/instructors", key, map[string]any{
		"email":        email,
		"display_name": "Test Instructor",
		"admin":        admin,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := resp.Data.(map[string]any)
	apiKey, _ := data["api_key"].(string)
	require.NotEmpty(t, apiKey)
	return apiKey
}

func TestHealthEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// With no pingers configured readiness trivially passes.
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthentication(t *testing.T) {
	s, _, _ := newTestServer(t)
	apiKey := createInstructorForTest(t, s, bootstrapKey, "first@example.edu", true)

	t.Run("rejects missing API key", func(t *testing.T) {
		rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/cohort/summary", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, resp.Success)
	})

	t.Run("rejects malformed API key", func(t *testing.T) {
		rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/cohort/summary", "not-a-key", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts a provisioned key", func(t *testing.T) {
		rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/cohort/summary", apiKey, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("rejects a wrong secret for a known key ID", func(t *testing.T) {
		keyID, _, err := instructor.SplitAPIKey(apiKey)
		require.NoError(t, err)

		rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/cohort/summary", keyID+".wrong", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestInstructorBootstrap(t *testing.T) {
	t.Run("bootstrap key works only before the first account", func(t *testing.T) {
		s, _, _ := newTestServer(t)

		createInstructorForTest(t, s, bootstrapKey, "first@example.edu", true)

		rec, _ := doJSON(t, s, http.MethodPost, "/api/v1/instructors", bootstrapKey, map[string]any{
			"email": "late@example.edu",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin key creates further accounts", func(t *testing.T) {
		s, _, _ := newTestServer(t)
		adminKey := createInstructorForTest(t, s, bootstrapKey, "admin@example.edu", true)

		memberKey := createInstructorForTest(t, s, adminKey, "teacher@example.edu", false)
		assert.NotEmpty(t, memberKey)
	})

	t.Run("non-admin key cannot create accounts", func(t *testing.T) {
		s, _, _ := newTestServer(t)
		adminKey := createInstructorForTest(t, s, bootstrapKey, "admin@example.edu", true)
		memberKey := createInstructorForTest(t, s, adminKey, "teacher@example.edu", false)

		rec, _ := doJSON(t, s, http.MethodPost, "/api/v1/instructors", memberKey, map[string]any{
			"email": "intruder@example.edu",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRosterRoundTrip(t *testing.T) {
	s, _, _ := newTestServer(t)
	apiKey := createInstructorForTest(t, s, bootstrapKey, "prof@example.edu", true)

	score := func(v float64) *float64 { return &v }

	t.Run("import then read back", func(t *testing.T) {
		rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/roster/import", apiKey, map[string]any{
			"records": []command.RecordInput{
				{
					StudentID: "s1", FirstName: "Grace", LastName: "Hopper", Section: "A",
					Quiz1: score(90), Quiz2: score(95),
					Midterm: score(88), Final: score(92), AttendancePercent: score(100),
				},
				{StudentID: "s2", Section: "B"},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.True(t, resp.Success)

		data := resp.Data.(map[string]any)
		assert.EqualValues(t, 2, data["imported"])
		assert.EqualValues(t, 1, data["graded"])

		rec, resp = doJSON(t, s, http.MethodGet, "/api/v1/students/s1", apiKey, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("unknown student returns 404", func(t *testing.T) {
		rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/students/missing", apiKey, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "not_found", resp.Error.Code)
	})

	t.Run("invalid roster body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/import", bytes.NewBufferString("{"))
		req.Header.Set(s.config.APIKeyHeader, apiKey)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("recompute with empty body uses the configured policy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/grades/recompute", nil)
		req.Header.Set(s.config.APIKeyHeader, apiKey)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("bad top-n parameter returns 400", func(t *testing.T) {
		rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/cohort/top?n=abc", apiKey, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no snapshot before the first rebuild", func(t *testing.T) {
		rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/cohort/snapshot", apiKey, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
