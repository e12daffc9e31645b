// Package student contains the HTTP handlers for the Student resource.
//
// Handlers use the closure/factory pattern: each factory receives the
// storage.Storage dependency once at route-registration time and returns the
// func(http.ResponseWriter, *http.Request) the router needs. The wire shape
// is types.StudentSnapshot — flat fields, course links as ids.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/types"
	"github.com/awh15/school-records/internal/utils/response"
)

// New handles POST /api/students. The body carries the caller-supplied
// student_id; validation failures are 400, an existing id is 409.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var snap types.StudentSnapshot
		err := json.NewDecoder(r.Body).Decode(&snap)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		st, err := types.StudentFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := store.CreateStudent(st); err != nil {
			slog.Error("error creating student",
				slog.String("id", snap.StudentID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", st.StudentID))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": st.StudentID})
	}
}

// GetByID handles GET /api/students/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		st, err := store.GetStudentByID(id)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, st.Snapshot())
	}
}

// GetList handles GET /api/students. Returns [] (not null) when empty.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		snaps := make([]types.StudentSnapshot, 0, len(students))
		for _, st := range students {
			snaps = append(snaps, st.Snapshot())
		}
		response.WriteJSON(w, http.StatusOK, snaps)
	}
}

// Update handles PUT /api/students/{id}: a full-row overwrite. The path id
// wins over any id in the body. Updating a missing student is 404.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		var snap types.StudentSnapshot
		err := json.NewDecoder(r.Body).Decode(&snap)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		snap.StudentID = id

		st, err := types.StudentFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := store.UpdateStudent(st); err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, st.Snapshot())
	}
}

// Delete handles DELETE /api/students/{id}. Removing the row does not touch
// the student's enrollment rows.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := store.DeleteStudentByID(id); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
