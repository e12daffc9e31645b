// Package snapshot implements the JSON transfer format: a full point-in-time
// export of all entities, independent of the relational schema.
//
// The relational store is the single source of truth. A snapshot is always
// derived from it (Export) or bulk-loaded into it (Import) — it is never a
// second mutation path, so the two representations cannot drift apart.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/types"
)

// File is the snapshot document: three ordered sequences of flat records,
// cross-linked by id references only.
type File struct {
	Students    []types.StudentSnapshot    `json:"students"`
	Instructors []types.InstructorSnapshot `json:"instructors"`
	Courses     []types.CourseSnapshot     `json:"courses"`
}

// Export derives a snapshot from the store. Link lists on students and
// instructors are computed from the rehydrated courses, so both sides of
// every link agree by construction.
func Export(store storage.Storage) (*File, error) {
	students, err := store.GetStudents()
	if err != nil {
		return nil, fmt.Errorf("snapshot: export students: %w", err)
	}
	instructors, err := store.GetInstructors()
	if err != nil {
		return nil, fmt.Errorf("snapshot: export instructors: %w", err)
	}
	courses, err := store.GetCourses()
	if err != nil {
		return nil, fmt.Errorf("snapshot: export courses: %w", err)
	}

	registered := make(map[string][]string) // student_id -> course ids
	assigned := make(map[string][]string)   // instructor_id -> course ids
	for _, c := range courses {
		if c.Instructor != nil {
			id := c.Instructor.InstructorID
			assigned[id] = append(assigned[id], c.CourseID)
		}
		for _, st := range c.EnrolledStudents {
			registered[st.StudentID] = append(registered[st.StudentID], c.CourseID)
		}
	}

	f := &File{
		Students:    make([]types.StudentSnapshot, 0, len(students)),
		Instructors: make([]types.InstructorSnapshot, 0, len(instructors)),
		Courses:     make([]types.CourseSnapshot, 0, len(courses)),
	}
	for _, st := range students {
		snap := st.Snapshot()
		snap.RegisteredCourses = orEmpty(registered[st.StudentID])
		f.Students = append(f.Students, snap)
	}
	for _, in := range instructors {
		snap := in.Snapshot()
		snap.AssignedCourses = orEmpty(assigned[in.InstructorID])
		f.Instructors = append(f.Instructors, snap)
	}
	for _, c := range courses {
		f.Courses = append(f.Courses, c.Snapshot())
	}
	return f, nil
}

// orEmpty keeps link lists encoding as [] rather than null.
func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// Write JSON-encodes the snapshot to w.
func Write(w io.Writer, f *File) error {
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Read decodes a snapshot document from r.
func Read(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &f, nil
}

// Import bulk-loads the snapshot into the store, intended for an empty one.
// Records are written in dependency order — instructors, courses, students,
// then enrollments — so every id reference lands after its target. Every
// record passes through the validated entity constructors; a malformed
// snapshot fails fast without partially applying the offending record.
func Import(store storage.Storage, f *File) error {
	for _, snap := range f.Instructors {
		in, err := types.InstructorFromSnapshot(snap)
		if err != nil {
			return fmt.Errorf("snapshot: instructor %q: %w", snap.InstructorID, err)
		}
		if err := store.CreateInstructor(in); err != nil {
			return fmt.Errorf("snapshot: import: %w", err)
		}
	}

	for _, snap := range f.Courses {
		c, err := types.CourseFromSnapshot(snap)
		if err != nil {
			return fmt.Errorf("snapshot: course %q: %w", snap.CourseID, err)
		}
		if snap.Instructor != nil {
			in, err := store.GetInstructorByID(*snap.Instructor)
			if errors.Is(err, storage.ErrNotFound) {
				// the reference is the broken piece, not the lookup
				return fmt.Errorf("snapshot: course %q: instructor %q: %w",
					snap.CourseID, *snap.Instructor, storage.ErrForeignKey)
			}
			if err != nil {
				return fmt.Errorf("snapshot: course %q: %w", snap.CourseID, err)
			}
			in.AssignCourse(c)
		}
		if err := store.CreateCourse(c); err != nil {
			return fmt.Errorf("snapshot: import: %w", err)
		}
	}

	for _, snap := range f.Students {
		st, err := types.StudentFromSnapshot(snap)
		if err != nil {
			return fmt.Errorf("snapshot: student %q: %w", snap.StudentID, err)
		}
		if err := store.CreateStudent(st); err != nil {
			return fmt.Errorf("snapshot: import: %w", err)
		}
	}

	// Both link sides of a well-formed snapshot record the same enrollments;
	// the union deduplicates so each link is written exactly once.
	seen := make(map[types.Enrollment]struct{})
	enroll := func(studentID, courseID string) error {
		link := types.Enrollment{StudentID: studentID, CourseID: courseID}
		if _, done := seen[link]; done {
			return nil
		}
		seen[link] = struct{}{}
		if err := store.EnrollStudent(studentID, courseID); err != nil {
			return fmt.Errorf("snapshot: import: %w", err)
		}
		return nil
	}
	for _, snap := range f.Students {
		for _, courseID := range snap.RegisteredCourses {
			if err := enroll(snap.StudentID, courseID); err != nil {
				return err
			}
		}
	}
	for _, snap := range f.Courses {
		for _, studentID := range snap.EnrolledStudents {
			if err := enroll(studentID, snap.CourseID); err != nil {
				return err
			}
		}
	}
	return nil
}
