package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeContest(t *testing.T, root, dir, id string, problems map[string]int) {
	t.Helper()
	body := fmt.Sprintf("id: %s\nname: Contest %s\nstarttime: 2025-06-01T12:00:00Z\nendtime: 2025-06-01T15:00:00Z\nproblems:\n", id, id)
	for pid := range problems {
		body += fmt.Sprintf("  - %s\n", pid)
	}
	writeFile(t, filepath.Join(root, dir, "contest.yaml"), body)
	for pid, points := range problems {
		writeFile(t, filepath.Join(root, dir, pid, "problem.yaml"),
			fmt.Sprintf("id: %s\nname: Problem %s\npoints: %d\n", pid, pid, points))
	}
}

func TestLoadContest(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "round1", "r1", map[string]int{"a": 100, "b": 250})
	writeFile(t, filepath.Join(root, "round1", "index.md"), "# Round 1")

	c, err := LoadContest(filepath.Join(root, "round1"))
	require.NoError(t, err)
	assert.Equal(t, "r1", c.ID)
	assert.Equal(t, "# Round 1", c.Description)
	assert.Equal(t, 3, int(c.EndTime.Sub(c.StartTime).Hours()))
	require.Len(t, c.Problems, 2)

	points := map[string]int{}
	for _, p := range c.Problems {
		points[p.ID] = p.Points
	}
	assert.Equal(t, map[string]int{"a": 100, "b": 250}, points)
}

func TestLoadContestRejectsBadDefinitions(t *testing.T) {
	root := t.TempDir()

	writeContest(t, root, "zero", "z", map[string]int{"p": 0})
	_, err := LoadContest(filepath.Join(root, "zero"))
	assert.ErrorContains(t, err, "points must be positive")

	writeFile(t, filepath.Join(root, "backwards", "contest.yaml"),
		"id: back\nstarttime: 2025-06-01T15:00:00Z\nendtime: 2025-06-01T12:00:00Z\n")
	_, err = LoadContest(filepath.Join(root, "backwards"))
	assert.Error(t, err)

	writeFile(t, filepath.Join(root, "broken", "contest.yaml"), "id: [unterminated")
	_, err = LoadContest(filepath.Join(root, "broken"))
	assert.Error(t, err)
}

func TestLoadContestsSkipsMalformedAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeContest(t, root, "a", "same", map[string]int{"p1": 100})
	writeContest(t, root, "b", "same", map[string]int{"p2": 100})
	writeContest(t, root, "c", "other", map[string]int{"p3": -1})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	dirs, err := FindContestDirs(root)
	require.NoError(t, err)
	assert.Len(t, dirs, 4)

	contests, skipped := LoadContests(dirs)
	require.Len(t, contests, 1)
	assert.Equal(t, "same", contests[0].ID)
	assert.Equal(t, 3, skipped)
}

func TestFindContestDirsUnconfigured(t *testing.T) {
	dirs, err := FindContestDirs("")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestSync(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	writeContest(t, root, "round1", "r1", map[string]int{"a": 100, "b": 200})

	res, err := Sync(db, root)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Contests: 1, Problems: 2}, res)

	// Running again with edited points updates in place.
	writeContest(t, root, "round1", "r1", map[string]int{"a": 150, "b": 200})
	_, err = Sync(db, root)
	require.NoError(t, err)

	problems, err := database.GetContestProblems(db, "r1")
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, 150, problems[0].Points)
}

func TestSyncLeavesFinalizedContestProblems(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	writeContest(t, root, "round1", "r1", map[string]int{"a": 100})
	_, err := Sync(db, root)
	require.NoError(t, err)
	require.NoError(t, db.Table("contests").Where("id = ?", "r1").Update("is_finalized", true).Error)

	writeContest(t, root, "round1", "r1", map[string]int{"a": 999})
	_, err = Sync(db, root)
	require.NoError(t, err)

	contest, err := database.GetContest(db, "r1")
	require.NoError(t, err)
	assert.True(t, contest.IsFinalized)
	require.Len(t, contest.Problems, 1)
	assert.Equal(t, 100, contest.Problems[0].Points)
}

func TestSyncRejectsProblemOwnedByAnotherContest(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	writeContest(t, root, "first", "c1", map[string]int{"shared": 100})
	_, err := Sync(db, root)
	require.NoError(t, err)

	writeContest(t, root, "second", "c2", map[string]int{"shared": 100})
	res, err := Sync(db, root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	p, err := database.GetProblem(db, "shared")
	require.NoError(t, err)
	assert.Equal(t, "c1", p.ContestID)

	_, err = database.GetContest(db, "c2")
	assert.Error(t, err, "the whole contest is rolled back")
}
