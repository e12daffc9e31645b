// Package storage defines the Storage interface — the contract any database
// backend must satisfy — plus the sentinel error kinds every backend reports.
//
// Handlers and transfer code depend only on this interface, so swapping the
// backend means implementing these methods and changing one line in main.
// Tests pass a fake without touching a real database.
package storage

import (
	"errors"

	"github.com/awh15/school-records/internal/types"
)

// Error kinds. Backends wrap these with context (entity kind, id) via %w so
// callers can branch with errors.Is while still logging a useful message.
var (
	// ErrNotFound — lookup or update by an id that has no row. Updates report
	// this explicitly instead of silently affecting zero rows.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey — insert with a primary key that already exists.
	ErrDuplicateKey = errors.New("duplicate primary key")

	// ErrForeignKey — a referenced student/instructor/course id does not
	// exist; the insert is not applied.
	ErrForeignKey = errors.New("referenced record does not exist")

	// ErrAmbiguousMatch — a name lookup matched more than one row.
	ErrAmbiguousMatch = errors.New("multiple records match")
)

// Storage is the persistence gateway over the four relations
// (students, instructors, courses, enrollments).
//
// Writes validate the entity first, so a struct assembled by hand cannot land
// an invalid row. Deletes remove exactly one row and never cascade: dependent
// enrollment rows and a course's instructor reference are left behind, and
// reads tolerate the resulting orphans.
type Storage interface {
	// CreateStudent inserts one row. ErrDuplicateKey when the id exists.
	CreateStudent(s *types.Student) error

	// GetStudentByID fetches a single student, shallow (no course links).
	GetStudentByID(id string) (*types.Student, error)

	// GetStudents returns every student ordered by student_id. Empty slice,
	// not nil, when there are none.
	GetStudents() ([]*types.Student, error)

	// UpdateStudent overwrites the full row keyed by s.StudentID.
	// ErrNotFound when no row has that id.
	UpdateStudent(s *types.Student) error

	// DeleteStudentByID removes the row. Enrollment rows for the student are
	// deliberately left in place.
	DeleteStudentByID(id string) error

	CreateInstructor(in *types.Instructor) error
	GetInstructorByID(id string) (*types.Instructor, error)
	GetInstructors() ([]*types.Instructor, error)
	UpdateInstructor(in *types.Instructor) error

	// DeleteInstructorByID removes the row. Courses referencing the
	// instructor keep their dangling reference and rehydrate with a nil
	// Instructor.
	DeleteInstructorByID(id string) error

	// CreateCourse inserts one row. ErrForeignKey when the attached
	// instructor id has no row.
	CreateCourse(c *types.Course) error

	// GetCourseByID fetches a fully rehydrated course: the instructor
	// resolved by a secondary lookup and the roster resolved through the
	// enrollments relation.
	GetCourseByID(id string) (*types.Course, error)

	GetCourses() ([]*types.Course, error)
	UpdateCourse(c *types.Course) error

	// DeleteCourseByID removes the row. Enrollment rows for the course are
	// deliberately left in place.
	DeleteCourseByID(id string) error

	// EnrollStudent records a (student, course) link after checking both ids
	// exist (ErrForeignKey otherwise). Duplicate enrollments are accepted —
	// the relation has no uniqueness constraint.
	EnrollStudent(studentID, courseID string) error

	// GetInstructorByName finds the instructor with the given name.
	// ErrNotFound on no match, ErrAmbiguousMatch when several rows share it.
	GetInstructorByName(name string) (*types.Instructor, error)

	// GetCourseByName finds the course with the given display name, fully
	// rehydrated. Same error contract as GetInstructorByName.
	GetCourseByName(name string) (*types.Course, error)
}
