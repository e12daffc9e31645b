package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/awh15/school-records/internal/config"
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

func TestWriteCSV_Golden(t *testing.T) {
	s := newTestStorage(t)

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
	require.NoError(t, s.EnrollStudent("S2", "C1"))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))

	g := goldie.New(t)
	g.Assert(t, "school_data", buf.Bytes())
}

func TestWriteCSV_EmptyStore(t *testing.T) {
	s := newTestStorage(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))

	g := goldie.New(t)
	g.Assert(t, "school_data_empty", buf.Bytes())
}
