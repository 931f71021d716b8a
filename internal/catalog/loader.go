package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Contest struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	StartTime   time.Time  `yaml:"starttime"`
	EndTime     time.Time  `yaml:"endtime"`
	ProblemDirs []string   `yaml:"problems"`
	Description string     `yaml:"-"`
	Problems    []*Problem `yaml:"-"`
}

type Problem struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
}

// FindContestDirs scans a root directory and returns a slice of all its immediate subdirectories.
func FindContestDirs(rootPath string) ([]string, error) {
	if rootPath == "" {
		zap.S().Warn("contests_root is not configured. No contests will be loaded.")
		return []string{}, nil
	}

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read contests_root directory '%s': %w", rootPath, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(rootPath, entry.Name()))
		}
	}
	return dirs, nil
}

// LoadContests loads every contest directory. Directories that fail to load are
// logged and left out; the second return value counts them.
func LoadContests(contestDirs []string) ([]*Contest, int) {
	contests := make([]*Contest, 0, len(contestDirs))
	seen := make(map[string]string)
	skipped := 0

	for _, dir := range contestDirs {
		contest, err := LoadContest(dir)
		if err != nil {
			zap.S().Warnf("failed to load contest from %s: %v", dir, err)
			skipped++
			continue
		}
		if prev, exists := seen[contest.ID]; exists {
			zap.S().Warnf("duplicate contest ID %s in %s (already loaded from %s), skipping", contest.ID, dir, prev)
			skipped++
			continue
		}
		seen[contest.ID] = dir
		contests = append(contests, contest)
	}
	return contests, skipped
}

// LoadContest reads contest.yaml, an optional index.md description and the
// problem.yaml of every listed problem directory.
func LoadContest(dir string) (*Contest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "contest.yaml"))
	if err != nil {
		return nil, err
	}
	var contest Contest
	if err := yaml.Unmarshal(data, &contest); err != nil {
		return nil, err
	}
	if err := contest.validate(); err != nil {
		return nil, err
	}

	desc, _ := os.ReadFile(filepath.Join(dir, "index.md"))
	contest.Description = string(desc)

	problemIDs := make(map[string]struct{})
	for _, problemDirName := range contest.ProblemDirs {
		problem, err := loadProblem(filepath.Join(dir, problemDirName))
		if err != nil {
			return nil, fmt.Errorf("problem %s: %w", problemDirName, err)
		}
		if _, dup := problemIDs[problem.ID]; dup {
			return nil, fmt.Errorf("duplicate problem ID %s", problem.ID)
		}
		problemIDs[problem.ID] = struct{}{}
		contest.Problems = append(contest.Problems, problem)
	}
	return &contest, nil
}

func (c *Contest) validate() error {
	if c.ID == "" {
		return errors.New("contest id is required")
	}
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		return errors.New("starttime and endtime are required")
	}
	if !c.EndTime.After(c.StartTime) {
		return errors.New("endtime must be after starttime")
	}
	return nil
}

func loadProblem(dir string) (*Problem, error) {
	data, err := os.ReadFile(filepath.Join(dir, "problem.yaml"))
	if err != nil {
		return nil, err
	}
	var problem Problem
	if err := yaml.Unmarshal(data, &problem); err != nil {
		return nil, err
	}
	if problem.ID == "" {
		return nil, errors.New("problem id is required")
	}
	if problem.Points <= 0 {
		return nil, fmt.Errorf("problem %s: points must be positive, got %d", problem.ID, problem.Points)
	}
	return &problem, nil
}
