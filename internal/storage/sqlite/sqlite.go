// Package sqlite provides the SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The store is a single local file: no network, no server process, nothing to
// install beyond the driver.
//
// Foreign-key enforcement is left at SQLite's default (off). Reference checks
// on insert are explicit queries here, and deletes remove exactly one row:
// enrollment rows and a course's instructor reference survive the deletion of
// the record they point at, and the read path tolerates those orphans.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/awh15/school-records/internal/config"
	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/types"

	// Importing the driver registers "sqlite3" with database/sql; the
	// package is also referenced directly for its constraint error codes.
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage. It holds a
// *sql.DB, the connection pool managed by database/sql, which is safe for
// concurrent use — though this application is single-user by design.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.StoragePath and creates the four
// tables if they do not already exist (CREATE TABLE IF NOT EXISTS is
// idempotent, safe on every startup).
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Natural TEXT primary keys are supplied by the caller, never generated.
	// The enrollments relation deliberately has no uniqueness constraint.
	tables := []string{
		`CREATE TABLE IF NOT EXISTS students (
			student_id TEXT PRIMARY KEY,
			name       TEXT    NOT NULL,
			age        INTEGER NOT NULL,
			email      TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS instructors (
			instructor_id TEXT PRIMARY KEY,
			name          TEXT    NOT NULL,
			age           INTEGER NOT NULL,
			email         TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS courses (
			course_id     TEXT PRIMARY KEY,
			course_name   TEXT NOT NULL,
			instructor_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			student_id TEXT NOT NULL,
			course_id  TEXT NOT NULL
		)`,
	}
	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return nil, fmt.Errorf("sqlite.New: create table: %w", err)
		}
	}

	return &SQLite{Db: db}, nil
}

// constraintKind maps a driver constraint violation to the matching sentinel,
// or returns nil for anything that is not a constraint error.
func constraintKind(err error) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) || serr.Code != sqlite3.ErrConstraint {
		return nil
	}
	switch serr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return storage.ErrDuplicateKey
	case sqlite3.ErrConstraintForeignKey:
		return storage.ErrForeignKey
	}
	return nil
}

// exists reports whether a single-column lookup query matches a row.
func (s *SQLite) exists(query, id string) (bool, error) {
	var one int
	err := s.Db.QueryRow(query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ── Students ────────────────────────────────────────────────────────────────

// CreateStudent validates and inserts one row. The primary-key constraint
// surfaces an existing id as storage.ErrDuplicateKey.
func (s *SQLite) CreateStudent(st *types.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"INSERT INTO students (student_id, name, age, email) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(st.StudentID, st.Name, st.Age, st.Email); err != nil {
		if kind := constraintKind(err); kind != nil {
			return fmt.Errorf("student %q: %w", st.StudentID, kind)
		}
		return fmt.Errorf("CreateStudent: exec: %w", err)
	}
	return nil
}

// GetStudentByID fetches a single student. The result is shallow: the
// registered-courses list is left empty, matching the list reads.
func (s *SQLite) GetStudentByID(id string) (*types.Student, error) {
	var st types.Student
	err := s.Db.QueryRow(
		"SELECT student_id, name, age, email FROM students WHERE student_id = ?", id,
	).Scan(&st.StudentID, &st.Name, &st.Age, &st.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetStudentByID: scan: %w", err)
	}
	return &st, nil
}

// GetStudents returns every student ordered by student_id.
func (s *SQLite) GetStudents() ([]*types.Student, error) {
	rows, err := s.Db.Query(
		"SELECT student_id, name, age, email FROM students ORDER BY student_id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]*types.Student, 0)
	for rows.Next() {
		var st types.Student
		if err := rows.Scan(&st.StudentID, &st.Name, &st.Age, &st.Email); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}
	return students, nil
}

// UpdateStudent overwrites the full row keyed by st.StudentID. Zero affected
// rows is reported as storage.ErrNotFound, not swallowed.
func (s *SQLite) UpdateStudent(st *types.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"UPDATE students SET name = ?, age = ?, email = ? WHERE student_id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(st.Name, st.Age, st.Email, st.StudentID)
	if err != nil {
		return fmt.Errorf("UpdateStudent: exec: %w", err)
	}
	return reportMissing(res, "student", st.StudentID)
}

// DeleteStudentByID removes the row. Enrollment rows for the student are left
// in place; the course read path skips them.
func (s *SQLite) DeleteStudentByID(id string) error {
	if _, err := s.Db.Exec("DELETE FROM students WHERE student_id = ?", id); err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	return nil
}

// ── Instructors ─────────────────────────────────────────────────────────────

// CreateInstructor validates and inserts one row.
func (s *SQLite) CreateInstructor(in *types.Instructor) error {
	if err := in.Validate(); err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"INSERT INTO instructors (instructor_id, name, age, email) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("CreateInstructor: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(in.InstructorID, in.Name, in.Age, in.Email); err != nil {
		if kind := constraintKind(err); kind != nil {
			return fmt.Errorf("instructor %q: %w", in.InstructorID, kind)
		}
		return fmt.Errorf("CreateInstructor: exec: %w", err)
	}
	return nil
}

// GetInstructorByID fetches a single instructor, shallow.
func (s *SQLite) GetInstructorByID(id string) (*types.Instructor, error) {
	var in types.Instructor
	err := s.Db.QueryRow(
		"SELECT instructor_id, name, age, email FROM instructors WHERE instructor_id = ?", id,
	).Scan(&in.InstructorID, &in.Name, &in.Age, &in.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instructor %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetInstructorByID: scan: %w", err)
	}
	return &in, nil
}

// GetInstructors returns every instructor ordered by instructor_id.
func (s *SQLite) GetInstructors() ([]*types.Instructor, error) {
	rows, err := s.Db.Query(
		"SELECT instructor_id, name, age, email FROM instructors ORDER BY instructor_id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetInstructors: query: %w", err)
	}
	defer rows.Close()

	instructors := make([]*types.Instructor, 0)
	for rows.Next() {
		var in types.Instructor
		if err := rows.Scan(&in.InstructorID, &in.Name, &in.Age, &in.Email); err != nil {
			return nil, fmt.Errorf("GetInstructors: scan row: %w", err)
		}
		instructors = append(instructors, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetInstructors: rows iteration: %w", err)
	}
	return instructors, nil
}

// UpdateInstructor overwrites the full row keyed by in.InstructorID.
func (s *SQLite) UpdateInstructor(in *types.Instructor) error {
	if err := in.Validate(); err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"UPDATE instructors SET name = ?, age = ?, email = ? WHERE instructor_id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateInstructor: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(in.Name, in.Age, in.Email, in.InstructorID)
	if err != nil {
		return fmt.Errorf("UpdateInstructor: exec: %w", err)
	}
	return reportMissing(res, "instructor", in.InstructorID)
}

// DeleteInstructorByID removes the row. Courses keep their now-dangling
// instructor_id and rehydrate with a nil Instructor.
func (s *SQLite) DeleteInstructorByID(id string) error {
	if _, err := s.Db.Exec("DELETE FROM instructors WHERE instructor_id = ?", id); err != nil {
		return fmt.Errorf("DeleteInstructorByID: exec: %w", err)
	}
	return nil
}

// GetInstructorByName finds the instructor with the given name. Rows are read
// in instructor_id order; more than one match is storage.ErrAmbiguousMatch.
func (s *SQLite) GetInstructorByName(name string) (*types.Instructor, error) {
	rows, err := s.Db.Query(
		"SELECT instructor_id, name, age, email FROM instructors WHERE name = ? ORDER BY instructor_id",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("GetInstructorByName: query: %w", err)
	}
	defer rows.Close()

	matches := make([]*types.Instructor, 0, 1)
	for rows.Next() {
		var in types.Instructor
		if err := rows.Scan(&in.InstructorID, &in.Name, &in.Age, &in.Email); err != nil {
			return nil, fmt.Errorf("GetInstructorByName: scan row: %w", err)
		}
		matches = append(matches, &in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetInstructorByName: rows iteration: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("instructor named %q: %w", name, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("instructor named %q: %d matches: %w",
			name, len(matches), storage.ErrAmbiguousMatch)
	}
}

// ── Courses ─────────────────────────────────────────────────────────────────

// CreateCourse validates and inserts one row. The instructor reference, when
// set, must point at an existing instructor (storage.ErrForeignKey
// otherwise); the check is an explicit query, see the package comment.
func (s *SQLite) CreateCourse(c *types.Course) error {
	if err := c.Validate(); err != nil {
		return err
	}

	instructorID, err := s.instructorRef(c)
	if err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"INSERT INTO courses (course_id, course_name, instructor_id) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("CreateCourse: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(c.CourseID, c.CourseName, instructorID); err != nil {
		if kind := constraintKind(err); kind != nil {
			return fmt.Errorf("course %q: %w", c.CourseID, kind)
		}
		return fmt.Errorf("CreateCourse: exec: %w", err)
	}
	return nil
}

// instructorRef resolves the course's instructor link to a nullable column
// value, verifying the referenced row exists.
func (s *SQLite) instructorRef(c *types.Course) (sql.NullString, error) {
	if c.Instructor == nil {
		return sql.NullString{}, nil
	}
	id := c.Instructor.InstructorID
	ok, err := s.exists("SELECT 1 FROM instructors WHERE instructor_id = ?", id)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("instructorRef: %w", err)
	}
	if !ok {
		return sql.NullString{}, fmt.Errorf("course %q: instructor %q: %w",
			c.CourseID, id, storage.ErrForeignKey)
	}
	return sql.NullString{String: id, Valid: true}, nil
}

// GetCourseByID fetches a fully rehydrated course: the instructor reference
// resolved by a secondary lookup (one per course) and the roster resolved
// through the enrollments relation (one lookup per enrollment row). The read
// pattern is intentionally join-free — the data scale is a classroom roster.
func (s *SQLite) GetCourseByID(id string) (*types.Course, error) {
	var (
		c            types.Course
		instructorID sql.NullString
	)
	err := s.Db.QueryRow(
		"SELECT course_id, course_name, instructor_id FROM courses WHERE course_id = ?", id,
	).Scan(&c.CourseID, &c.CourseName, &instructorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetCourseByID: scan: %w", err)
	}

	if err := s.rehydrate(&c, instructorID); err != nil {
		return nil, err
	}
	return &c, nil
}

// rehydrate resolves a course's instructor and roster into live references.
// Dangling references — an instructor or student deleted after the link was
// written — are skipped, never an error.
func (s *SQLite) rehydrate(c *types.Course, instructorID sql.NullString) error {
	if instructorID.Valid {
		in, err := s.GetInstructorByID(instructorID.String)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// dangling reference after a non-cascading delete
		case err != nil:
			return fmt.Errorf("rehydrate course %q: %w", c.CourseID, err)
		default:
			in.AssignCourse(c)
		}
	}

	rows, err := s.Db.Query(
		"SELECT student_id FROM enrollments WHERE course_id = ? ORDER BY student_id",
		c.CourseID,
	)
	if err != nil {
		return fmt.Errorf("rehydrate course %q: enrollments: %w", c.CourseID, err)
	}
	defer rows.Close()

	studentIDs := make([]string, 0)
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return fmt.Errorf("rehydrate course %q: scan enrollment: %w", c.CourseID, err)
		}
		studentIDs = append(studentIDs, sid)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rehydrate course %q: rows iteration: %w", c.CourseID, err)
	}

	for _, sid := range studentIDs {
		st, err := s.GetStudentByID(sid)
		if errors.Is(err, storage.ErrNotFound) {
			continue // orphaned enrollment row
		}
		if err != nil {
			return fmt.Errorf("rehydrate course %q: %w", c.CourseID, err)
		}
		// AddStudent is idempotent, so duplicated enrollment rows still
		// produce a clean roster.
		c.AddStudent(st)
	}
	return nil
}

// GetCourses returns every course ordered by course_id, each fully
// rehydrated.
func (s *SQLite) GetCourses() ([]*types.Course, error) {
	rows, err := s.Db.Query(
		"SELECT course_id, course_name, instructor_id FROM courses ORDER BY course_id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetCourses: query: %w", err)
	}
	defer rows.Close()

	type courseRow struct {
		course       *types.Course
		instructorID sql.NullString
	}

	// Collect the raw rows first; rehydration issues its own queries and
	// should not run inside an open cursor.
	collected := make([]courseRow, 0)
	for rows.Next() {
		var (
			c            types.Course
			instructorID sql.NullString
		)
		if err := rows.Scan(&c.CourseID, &c.CourseName, &instructorID); err != nil {
			return nil, fmt.Errorf("GetCourses: scan row: %w", err)
		}
		collected = append(collected, courseRow{course: &c, instructorID: instructorID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetCourses: rows iteration: %w", err)
	}
	rows.Close()

	courses := make([]*types.Course, 0, len(collected))
	for _, row := range collected {
		if err := s.rehydrate(row.course, row.instructorID); err != nil {
			return nil, err
		}
		courses = append(courses, row.course)
	}
	return courses, nil
}

// UpdateCourse overwrites the name and instructor reference keyed by
// c.CourseID. The instructor reference is checked like CreateCourse.
func (s *SQLite) UpdateCourse(c *types.Course) error {
	if err := c.Validate(); err != nil {
		return err
	}

	instructorID, err := s.instructorRef(c)
	if err != nil {
		return err
	}

	stmt, err := s.Db.Prepare(
		"UPDATE courses SET course_name = ?, instructor_id = ? WHERE course_id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateCourse: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(c.CourseName, instructorID, c.CourseID)
	if err != nil {
		return fmt.Errorf("UpdateCourse: exec: %w", err)
	}
	return reportMissing(res, "course", c.CourseID)
}

// DeleteCourseByID removes the row. Enrollment rows for the course are left
// in place.
func (s *SQLite) DeleteCourseByID(id string) error {
	if _, err := s.Db.Exec("DELETE FROM courses WHERE course_id = ?", id); err != nil {
		return fmt.Errorf("DeleteCourseByID: exec: %w", err)
	}
	return nil
}

// GetCourseByName finds the course with the given display name, fully
// rehydrated. Same ambiguity contract as GetInstructorByName.
func (s *SQLite) GetCourseByName(name string) (*types.Course, error) {
	rows, err := s.Db.Query(
		"SELECT course_id FROM courses WHERE course_name = ? ORDER BY course_id", name,
	)
	if err != nil {
		return nil, fmt.Errorf("GetCourseByName: query: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, 1)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("GetCourseByName: scan row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetCourseByName: rows iteration: %w", err)
	}
	rows.Close()

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("course named %q: %w", name, storage.ErrNotFound)
	case 1:
		return s.GetCourseByID(ids[0])
	default:
		return nil, fmt.Errorf("course named %q: %d matches: %w",
			name, len(ids), storage.ErrAmbiguousMatch)
	}
}

// ── Enrollments ─────────────────────────────────────────────────────────────

// EnrollStudent records a (student, course) link. Both ids must exist;
// duplicate links are accepted as-is — the relation has no uniqueness
// constraint and enrolling twice simply writes two rows.
func (s *SQLite) EnrollStudent(studentID, courseID string) error {
	ok, err := s.exists("SELECT 1 FROM students WHERE student_id = ?", studentID)
	if err != nil {
		return fmt.Errorf("EnrollStudent: %w", err)
	}
	if !ok {
		return fmt.Errorf("enrollment: student %q: %w", studentID, storage.ErrForeignKey)
	}

	ok, err = s.exists("SELECT 1 FROM courses WHERE course_id = ?", courseID)
	if err != nil {
		return fmt.Errorf("EnrollStudent: %w", err)
	}
	if !ok {
		return fmt.Errorf("enrollment: course %q: %w", courseID, storage.ErrForeignKey)
	}

	stmt, err := s.Db.Prepare(
		"INSERT INTO enrollments (student_id, course_id) VALUES (?, ?)",
	)
	if err != nil {
		return fmt.Errorf("EnrollStudent: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(studentID, courseID); err != nil {
		return fmt.Errorf("EnrollStudent: exec: %w", err)
	}
	return nil
}

// reportMissing turns an update that affected zero rows into an explicit
// storage.ErrNotFound.
func reportMissing(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
