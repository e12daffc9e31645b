// Package instructor contains the HTTP handlers for the Instructor resource,
// in the same factory style as the student handlers. The wire shape is
// types.InstructorSnapshot.
package instructor

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

// New handles POST /api/instructors.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating an instructor")

		var snap types.InstructorSnapshot
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

		in, err := types.InstructorFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := store.CreateInstructor(in); err != nil {
			slog.Error("error creating instructor",
				slog.String("id", snap.InstructorID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("instructor created", slog.String("id", in.InstructorID))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": in.InstructorID})
	}
}

// GetByID handles GET /api/instructors/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting an instructor", slog.String("id", id))

		in, err := store.GetInstructorByID(id)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, in.Snapshot())
	}
}

// GetByName handles GET /api/instructors/by-name/{name}. A name shared by
// several instructors is a 409 (ambiguous match).
func GetByName(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		slog.Info("looking up instructor by name", slog.String("name", name))

		in, err := store.GetInstructorByName(name)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, in.Snapshot())
	}
}

// GetList handles GET /api/instructors.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all instructors")

		instructors, err := store.GetInstructors()
		if err != nil {
			slog.Error("error getting instructors", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		snaps := make([]types.InstructorSnapshot, 0, len(instructors))
		for _, in := range instructors {
			snaps = append(snaps, in.Snapshot())
		}
		response.WriteJSON(w, http.StatusOK, snaps)
	}
}

// Update handles PUT /api/instructors/{id}. The path id wins over the body.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating an instructor", slog.String("id", id))

		var snap types.InstructorSnapshot
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
		snap.InstructorID = id

		in, err := types.InstructorFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := store.UpdateInstructor(in); err != nil {
			slog.Error("error updating instructor",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("instructor updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, in.Snapshot())
	}
}

// Delete handles DELETE /api/instructors/{id}. Courses referencing the
// instructor keep their reference and rehydrate without one.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting an instructor", slog.String("id", id))

		if err := store.DeleteInstructorByID(id); err != nil {
			slog.Error("error deleting instructor",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("instructor deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
