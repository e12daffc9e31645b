// Package course contains the HTTP handlers for the Course resource and the
// enrollment operation. The wire shape is types.CourseSnapshot; reads return
// the fully rehydrated course (instructor id plus roster ids).
package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/types"
	"github.com/awh15/school-records/internal/utils/response"
)

// resolveInstructor attaches the referenced instructor to the course. A
// reference to a missing instructor is reported as a foreign-key failure, not
// a lookup miss, because the course is the record being written.
func resolveInstructor(store storage.Storage, c *types.Course, instructorID string) error {
	in, err := store.GetInstructorByID(instructorID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("course %q: instructor %q: %w",
			c.CourseID, instructorID, storage.ErrForeignKey)
	}
	if err != nil {
		return err
	}
	in.AssignCourse(c)
	return nil
}

// New handles POST /api/courses. An instructor reference, when present, must
// name an existing instructor (422 otherwise).
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a course")

		var snap types.CourseSnapshot
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

		c, err := types.CourseFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if snap.Instructor != nil {
			if err := resolveInstructor(store, c, *snap.Instructor); err != nil {
				response.WriteError(w, err)
				return
			}
		}

		if err := store.CreateCourse(c); err != nil {
			slog.Error("error creating course",
				slog.String("id", snap.CourseID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("course created", slog.String("id", c.CourseID))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": c.CourseID})
	}
}

// GetByID handles GET /api/courses/{id}.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a course", slog.String("id", id))

		c, err := store.GetCourseByID(id)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, c.Snapshot())
	}
}

// GetByName handles GET /api/courses/by-name/{name}. A shared course name is
// a 409 (ambiguous match).
func GetByName(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		slog.Info("looking up course by name", slog.String("name", name))

		c, err := store.GetCourseByName(name)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, c.Snapshot())
	}
}

// GetList handles GET /api/courses.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all courses")

		courses, err := store.GetCourses()
		if err != nil {
			slog.Error("error getting courses", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		snaps := make([]types.CourseSnapshot, 0, len(courses))
		for _, c := range courses {
			snaps = append(snaps, c.Snapshot())
		}
		response.WriteJSON(w, http.StatusOK, snaps)
	}
}

// Update handles PUT /api/courses/{id}: overwrites the name and instructor
// reference. The path id wins over the body.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a course", slog.String("id", id))

		var snap types.CourseSnapshot
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
		snap.CourseID = id

		c, err := types.CourseFromSnapshot(snap)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if snap.Instructor != nil {
			if err := resolveInstructor(store, c, *snap.Instructor); err != nil {
				response.WriteError(w, err)
				return
			}
		}

		if err := store.UpdateCourse(c); err != nil {
			slog.Error("error updating course",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("course updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, c.Snapshot())
	}
}

// Delete handles DELETE /api/courses/{id}. Enrollment rows for the course are
// left in place.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a course", slog.String("id", id))

		if err := store.DeleteCourseByID(id); err != nil {
			slog.Error("error deleting course",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("course deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Enroll handles POST /api/enrollments with an Enrollment payload
// {student_id, course_id}. Both ids must exist (422 otherwise); enrolling the
// same pair twice writes a second row, matching the relation's lack of a
// uniqueness constraint.
func Enroll(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("enrolling a student")

		var link types.Enrollment
		err := json.NewDecoder(r.Body).Decode(&link)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := link.Validate(); err != nil {
			response.WriteError(w, err)
			return
		}

		if err := store.EnrollStudent(link.StudentID, link.CourseID); err != nil {
			slog.Error("error enrolling student",
				slog.String("student_id", link.StudentID),
				slog.String("course_id", link.CourseID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student enrolled",
			slog.String("student_id", link.StudentID),
			slog.String("course_id", link.CourseID))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
	}
}
