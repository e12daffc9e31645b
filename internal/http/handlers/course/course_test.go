package course

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awh15/school-records/internal/config"
	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/storage/sqlite"
	"github.com/awh15/school-records/internal/types"
)

func newTestRouter(t *testing.T) (*http.ServeMux, storage.Storage) {
	t.Helper()
	cfg := &config.Config{
		Env:         "dev",
		StoragePath: filepath.Join(t.TempDir(), "school.db"),
	}
	store, err := sqlite.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Db.Close() })

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/courses", New(store))
	mux.HandleFunc("GET /api/courses", GetList(store))
	mux.HandleFunc("GET /api/courses/by-name/{name}", GetByName(store))
	mux.HandleFunc("GET /api/courses/{id}", GetByID(store))
	mux.HandleFunc("PUT /api/courses/{id}", Update(store))
	mux.HandleFunc("DELETE /api/courses/{id}", Delete(store))
	mux.HandleFunc("POST /api/enrollments", Enroll(store))
	return mux, store
}

func do(t *testing.T, mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seedInstructor(t *testing.T, store storage.Storage) {
	t.Helper()
	in, err := types.NewInstructor("Dr. Lee", 40, "lee@x.edu", "I1")
	require.NoError(t, err)
	require.NoError(t, store.CreateInstructor(in))
}

func seedStudent(t *testing.T, store storage.Storage) {
	t.Helper()
	st, err := types.NewStudent("Amy", 20, "amy@x.edu", "S1")
	require.NoError(t, err)
	require.NoError(t, store.CreateStudent(st))
}

func TestCreateCourse_WithInstructor(t *testing.T) {
	mux, store := newTestRouter(t)
	seedInstructor(t, store)

	instructorID := "I1"
	rec := do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms", Instructor: &instructorID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/courses/C1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.CourseSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.NotNil(t, got.Instructor)
	assert.Equal(t, "I1", *got.Instructor)
}

func TestCreateCourse_MissingInstructor(t *testing.T) {
	mux, _ := newTestRouter(t)

	ghost := "I9"
	rec := do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms", Instructor: &ghost,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEnroll(t *testing.T) {
	mux, store := newTestRouter(t)
	seedStudent(t, store)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms",
	}).Code)

	rec := do(t, mux, http.MethodPost, "/api/enrollments", types.Enrollment{
		StudentID: "S1", CourseID: "C1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/courses/C1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got types.CourseSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []string{"S1"}, got.EnrolledStudents)
}

func TestEnroll_UnknownStudent(t *testing.T) {
	mux, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms",
	}).Code)

	rec := do(t, mux, http.MethodPost, "/api/enrollments", types.Enrollment{
		StudentID: "missing", CourseID: "C1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEnroll_MissingField(t *testing.T) {
	mux, _ := newTestRouter(t)

	rec := do(t, mux, http.MethodPost, "/api/enrollments", types.Enrollment{
		StudentID: "S1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCourseByName_Ambiguous(t *testing.T) {
	mux, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms",
	}).Code)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C2", CourseName: "Algorithms",
	}).Code)

	rec := do(t, mux, http.MethodGet, "/api/courses/by-name/Algorithms", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteCourse_ThenListEmpty(t *testing.T) {
	mux, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/api/courses", types.CourseSnapshot{
		CourseID: "C1", CourseName: "Algorithms",
	}).Code)

	assert.Equal(t, http.StatusOK, do(t, mux, http.MethodDelete, "/api/courses/C1", nil).Code)

	rec := do(t, mux, http.MethodGet, "/api/courses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
