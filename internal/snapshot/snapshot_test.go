package snapshot

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awh15/school-records/internal/config"
	"github.com/awh15/school-records/internal/storage"
	"github.com/awh15/school-records/internal/storage/sqlite"
	"github.com/awh15/school-records/internal/types"
)

func newTestStorage(t *testing.T) *sqlite.SQLite {
	t.Helper()
	cfg := &config.Config{
		Env:         "dev",
		StoragePath: filepath.Join(t.TempDir(), "school.db"),
	}
	s, err := sqlite.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Db.Close() })
	return s
}

// populate fills a store with the reference roster: one instructor teaching
// one of two courses, two students, one of them enrolled twice over.
func populate(t *testing.T, s storage.Storage) {
	t.Helper()

	in, err := types.NewInstructor("Dr. Lee", 40, "lee@x.edu", "I1")
	require.NoError(t, err)
	require.NoError(t, s.CreateInstructor(in))

	c1, err := types.NewCourse("C1", "Algorithms", in)
	require.NoError(t, err)
	require.NoError(t, s.CreateCourse(c1))
	c2, err := types.NewCourse("C2", "Databases", nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateCourse(c2))

	amy, err := types.NewStudent("Amy", 20, "amy@x.edu", "S1")
	require.NoError(t, err)
	require.NoError(t, s.CreateStudent(amy))
	bob, err := types.NewStudent("Bob", 22, "bob@x.edu", "S2")
	require.NoError(t, err)
	require.NoError(t, s.CreateStudent(bob))

	require.NoError(t, s.EnrollStudent("S1", "C1"))
	require.NoError(t, s.EnrollStudent("S1", "C2"))
	require.NoError(t, s.EnrollStudent("S2", "C1"))
}

func TestExport_LinksBothSides(t *testing.T) {
	s := newTestStorage(t)
	populate(t, s)

	f, err := Export(s)
	require.NoError(t, err)

	require.Len(t, f.Students, 2)
	require.Len(t, f.Instructors, 1)
	require.Len(t, f.Courses, 2)

	assert.Equal(t, []string{"C1", "C2"}, f.Students[0].RegisteredCourses)
	assert.Equal(t, []string{"C1"}, f.Students[1].RegisteredCourses)
	assert.Equal(t, []string{"C1"}, f.Instructors[0].AssignedCourses)

	require.NotNil(t, f.Courses[0].Instructor)
	assert.Equal(t, "I1", *f.Courses[0].Instructor)
	assert.Equal(t, []string{"S1", "S2"}, f.Courses[0].EnrolledStudents)
	assert.Nil(t, f.Courses[1].Instructor)
	assert.Equal(t, []string{"S1"}, f.Courses[1].EnrolledStudents)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	populate(t, s)

	f, err := Export(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestImport_RebuildsEqualStore(t *testing.T) {
	source := newTestStorage(t)
	populate(t, source)

	f, err := Export(source)
	require.NoError(t, err)

	target := newTestStorage(t)
	require.NoError(t, Import(target, f))

	// Exporting the rebuilt store reproduces the original snapshot exactly,
	// including the deduplicated enrollment links.
	again, err := Export(target)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func TestImport_RejectsInvalidRecord(t *testing.T) {
	target := newTestStorage(t)

	f := &File{
		Students: []types.StudentSnapshot{
			{StudentID: "S1", Name: "Amy", Age: 20, Email: "bad-email"},
		},
		Instructors: []types.InstructorSnapshot{},
		Courses:     []types.CourseSnapshot{},
	}
	err := Import(target, f)
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestImport_MissingInstructorReference(t *testing.T) {
	target := newTestStorage(t)

	ghost := "I9"
	f := &File{
		Students:    []types.StudentSnapshot{},
		Instructors: []types.InstructorSnapshot{},
		Courses: []types.CourseSnapshot{
			{CourseID: "C1", CourseName: "Algorithms", Instructor: &ghost},
		},
	}
	require.ErrorIs(t, Import(target, f), storage.ErrForeignKey)
}

func TestRead_MalformedDocument(t *testing.T) {
	_, err := Read(bytes.NewBufferString("{not json"))
	require.Error(t, err)
}
