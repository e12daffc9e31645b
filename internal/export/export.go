// Package export renders the store as delimited text: three sections
// (Students, Instructors, Courses), each with a header row naming its
// columns, separated by a blank line.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/awh15/school-records/internal/storage"
)

// WriteCSV streams the whole store to w. Course rows print the instructor's
// name ("None" when unassigned) and the enrolled students' names joined with
// ", "; both come from the rehydrated course, so deleted records simply drop
// out of the export.
func WriteCSV(w io.Writer, store storage.Storage) error {
	students, err := store.GetStudents()
	if err != nil {
		return fmt.Errorf("export: students: %w", err)
	}
	instructors, err := store.GetInstructors()
	if err != nil {
		return fmt.Errorf("export: instructors: %w", err)
	}
	courses, err := store.GetCourses()
	if err != nil {
		return fmt.Errorf("export: courses: %w", err)
	}

	cw := csv.NewWriter(w)

	write := func(record ...string) {
		// csv.Writer defers write errors to Flush; checked once at the end.
		_ = cw.Write(record)
	}

	write("Students")
	write("Name", "Age", "Email", "Student ID")
	for _, st := range students {
		write(st.Name, strconv.Itoa(st.Age), st.Email, st.StudentID)
	}
	write() // blank line between sections

	write("Instructors")
	write("Name", "Age", "Email", "Instructor ID")
	for _, in := range instructors {
		write(in.Name, strconv.Itoa(in.Age), in.Email, in.InstructorID)
	}
	write()

	write("Courses")
	write("Course ID", "Course Name", "Instructor", "Enrolled Students")
	for _, c := range courses {
		instructorName := "None"
		if c.Instructor != nil {
			instructorName = c.Instructor.Name
		}
		names := make([]string, 0, len(c.EnrolledStudents))
		for _, st := range c.EnrolledStudents {
			names = append(names, st.Name)
		}
		write(c.CourseID, c.CourseName, instructorName, strings.Join(names, ", "))
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}
