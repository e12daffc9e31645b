// Package types holds the school domain model: Person, Student, Instructor,
// Course, and the Enrollment relation. Keeping the model in one place prevents
// import cycles — handlers, storage, and transfer code all import types
// without depending on each other.
//
// Every constructor and every mutating setter validates, so an invalid entity
// (malformed email, negative age) can never be produced by this package. The
// storage layer re-runs Validate before each write to close the remaining
// bypass (a caller building a struct literal by hand).
package types

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// emailPattern is the accepted email shape: word characters, dots and hyphens
// on both sides of a single @, with at least one dot after it.
var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// validate is the shared validator instance. It carries one custom tag,
// email_format, which applies emailPattern instead of the library's looser
// built-in email rule.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("types: register email_format: %v", err))
	}
	return v
}

// ValidationError reports the fields that failed validation. Callers detect it
// with errors.As and must not proceed with the rejected entity.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error { return e.Fields }

// check runs the struct tags on v and wraps any failure in *ValidationError.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

// Person is the shared validated-fields value type embedded by Student and
// Instructor (composition instead of inheritance).
type Person struct {
	Name  string `validate:"required"`
	Age   int    `validate:"gte=0"`
	Email string `validate:"required,email_format"`
}

// NewPerson builds a validated Person. Age is typed int, so a non-integer age
// is a compile-time error; the domain rule checked here is non-negativity.
func NewPerson(name string, age int, email string) (Person, error) {
	p := Person{Name: name, Age: age, Email: email}
	if err := check(p); err != nil {
		return Person{}, err
	}
	return p, nil
}

// SetEmail replaces the email. A malformed value is rejected before anything
// is mutated.
func (p *Person) SetEmail(email string) error {
	if err := check(Person{Name: p.Name, Age: p.Age, Email: email}); err != nil {
		return err
	}
	p.Email = email
	return nil
}

// SetAge replaces the age, rejecting negative values.
func (p *Person) SetAge(age int) error {
	if err := check(Person{Name: p.Name, Age: age, Email: p.Email}); err != nil {
		return err
	}
	p.Age = age
	return nil
}

// Student is a Person with a caller-supplied natural key and the ordered list
// of courses they registered for. A course appears at most once.
type Student struct {
	Person
	StudentID         string `validate:"required"`
	RegisteredCourses []*Course
}

// NewStudent builds a validated Student with no registrations.
func NewStudent(name string, age int, email, studentID string) (*Student, error) {
	s := &Student{
		Person:    Person{Name: name, Age: age, Email: email},
		StudentID: studentID,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate re-checks every field rule. Storage calls this before each write.
func (s *Student) Validate() error { return check(s) }

// RegisterCourse adds the course to both sides of the link: the student's
// registered list and the course roster. Registering an already-registered
// course is a no-op.
func (s *Student) RegisterCourse(c *Course) {
	for _, rc := range s.RegisteredCourses {
		if rc.CourseID == c.CourseID {
			return
		}
	}
	s.RegisteredCourses = append(s.RegisteredCourses, c)
	c.AddStudent(s)
}

// Snapshot flattens the student to scalar fields plus course ids. Links are
// ids only — never embedded records — so a snapshot cannot go stale against
// the entities it references.
func (s *Student) Snapshot() StudentSnapshot {
	ids := make([]string, 0, len(s.RegisteredCourses))
	for _, c := range s.RegisteredCourses {
		ids = append(ids, c.CourseID)
	}
	return StudentSnapshot{
		StudentID:         s.StudentID,
		Name:              s.Name,
		Age:               s.Age,
		Email:             s.Email,
		RegisteredCourses: ids,
	}
}

// StudentFromSnapshot validates and rebuilds the entity. Course ids in the
// snapshot are not resolved here; callers that need live references resolve
// them against their own course set (see the snapshot package).
func StudentFromSnapshot(snap StudentSnapshot) (*Student, error) {
	return NewStudent(snap.Name, snap.Age, snap.Email, snap.StudentID)
}

// Instructor is a Person with a natural key and the ordered list of courses
// they teach. A course appears at most once.
type Instructor struct {
	Person
	InstructorID    string `validate:"required"`
	AssignedCourses []*Course
}

// NewInstructor builds a validated Instructor with no assignments.
func NewInstructor(name string, age int, email, instructorID string) (*Instructor, error) {
	in := &Instructor{
		Person:       Person{Name: name, Age: age, Email: email},
		InstructorID: instructorID,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Validate re-checks every field rule.
func (in *Instructor) Validate() error { return check(in) }

// AssignCourse makes this instructor the course's instructor. Last assignment
// wins: the course is removed from the previous instructor's assigned list
// before both sides of the new link are set. Re-assigning an already-assigned
// course is a no-op.
func (in *Instructor) AssignCourse(c *Course) {
	if prev := c.Instructor; prev != nil && prev != in {
		prev.unassign(c.CourseID)
	}
	c.Instructor = in
	for _, ac := range in.AssignedCourses {
		if ac.CourseID == c.CourseID {
			return
		}
	}
	in.AssignedCourses = append(in.AssignedCourses, c)
}

func (in *Instructor) unassign(courseID string) {
	for i, c := range in.AssignedCourses {
		if c.CourseID == courseID {
			in.AssignedCourses = append(in.AssignedCourses[:i], in.AssignedCourses[i+1:]...)
			return
		}
	}
}

// Snapshot flattens the instructor to scalar fields plus course ids.
func (in *Instructor) Snapshot() InstructorSnapshot {
	ids := make([]string, 0, len(in.AssignedCourses))
	for _, c := range in.AssignedCourses {
		ids = append(ids, c.CourseID)
	}
	return InstructorSnapshot{
		InstructorID:    in.InstructorID,
		Name:            in.Name,
		Age:             in.Age,
		Email:           in.Email,
		AssignedCourses: ids,
	}
}

// InstructorFromSnapshot validates and rebuilds the entity, leaving assigned
// course ids to the caller to resolve.
func InstructorFromSnapshot(snap InstructorSnapshot) (*Instructor, error) {
	return NewInstructor(snap.Name, snap.Age, snap.Email, snap.InstructorID)
}

// Course has a natural key, a display name, an optional instructor and the
// roster of enrolled students. The roster is membership, not ownership — the
// authoritative record of an enrollment is the enrollments relation in
// storage.
type Course struct {
	CourseID         string `validate:"required"`
	CourseName       string `validate:"required"`
	Instructor       *Instructor
	EnrolledStudents []*Student
}

// NewCourse builds a validated Course. instructor may be nil; when set, the
// assignment links both sides.
func NewCourse(courseID, courseName string, instructor *Instructor) (*Course, error) {
	c := &Course{CourseID: courseID, CourseName: courseName}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if instructor != nil {
		instructor.AssignCourse(c)
	}
	return c, nil
}

// Validate re-checks every field rule.
func (c *Course) Validate() error { return check(c) }

// AddStudent adds the student to the roster. Adding an enrolled student again
// is a no-op, so rehydrating from duplicated enrollment rows still yields a
// clean roster.
func (c *Course) AddStudent(s *Student) {
	for _, es := range c.EnrolledStudents {
		if es.StudentID == s.StudentID {
			return
		}
	}
	c.EnrolledStudents = append(c.EnrolledStudents, s)
}

// Snapshot flattens the course; the instructor link is an id (nil when
// unassigned) and the roster is a list of student ids.
func (c *Course) Snapshot() CourseSnapshot {
	snap := CourseSnapshot{
		CourseID:         c.CourseID,
		CourseName:       c.CourseName,
		EnrolledStudents: make([]string, 0, len(c.EnrolledStudents)),
	}
	if c.Instructor != nil {
		id := c.Instructor.InstructorID
		snap.Instructor = &id
	}
	for _, s := range c.EnrolledStudents {
		snap.EnrolledStudents = append(snap.EnrolledStudents, s.StudentID)
	}
	return snap
}

// CourseFromSnapshot validates and rebuilds the course without resolving the
// instructor or roster ids.
func CourseFromSnapshot(snap CourseSnapshot) (*Course, error) {
	return NewCourse(snap.CourseID, snap.CourseName, nil)
}

// Enrollment is the pure many-to-many relation between a student and a
// course. It has no identity of its own: it exists as join-table rows and as
// the enroll-request payload.
type Enrollment struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id"  validate:"required"`
}

// Validate re-checks both ids are present.
func (e Enrollment) Validate() error { return check(e) }

// Snapshot record types: the flat keyed transfer form of each entity, id
// references only for cross-links. These double as the HTTP payload shapes.

type StudentSnapshot struct {
	StudentID         string   `json:"student_id" validate:"required"`
	Name              string   `json:"name"       validate:"required"`
	Age               int      `json:"age"        validate:"gte=0"`
	Email             string   `json:"email"      validate:"required,email_format"`
	RegisteredCourses []string `json:"registered_courses"`
}

type InstructorSnapshot struct {
	InstructorID    string   `json:"instructor_id" validate:"required"`
	Name            string   `json:"name"          validate:"required"`
	Age             int      `json:"age"           validate:"gte=0"`
	Email           string   `json:"email"         validate:"required,email_format"`
	AssignedCourses []string `json:"assigned_courses"`
}

type CourseSnapshot struct {
	CourseID         string   `json:"course_id"   validate:"required"`
	CourseName       string   `json:"course_name" validate:"required"`
	Instructor       *string  `json:"instructor"`
	EnrolledStudents []string `json:"enrolled_students"`
}
