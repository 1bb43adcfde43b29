package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"snowshift/internal/common"
	"snowshift/internal/migrate"

	"github.com/google/uuid"
)

// Entry is the persisted outcome for one object in a run
type Entry struct {
	Object     string `json:"object"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Totals aggregates entry statuses
type Totals struct {
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Report is the durable record of one command run
type Report struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Account    string    `json:"account"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []Entry   `json:"entries"`
	Totals     Totals    `json:"totals"`
}

// FromSummary builds a report from a run summary
func FromSummary(command, account string, startedAt time.Time, summary *migrate.Summary) *Report {
	r := &Report{
		ID:         uuid.New().String(),
		Command:    command,
		Account:    account,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Entries:    make([]Entry, 0, len(summary.Results)),
	}

	for _, res := range summary.Results {
		entry := Entry{
			Object:     res.Object,
			Status:     string(res.Status),
			Reason:     res.Reason,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		r.Entries = append(r.Entries, entry)

		switch res.Status {
		case migrate.StatusDone:
			r.Totals.Done++
		case migrate.StatusSkipped:
			r.Totals.Skipped++
		case migrate.StatusFailed:
			r.Totals.Failed++
		}
	}

	return r
}

// Store persists run reports as JSON files
type Store struct {
	dir string
}

// NewStore opens the report store under the app directory
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(home, common.AppDirName, "runs"))
}

// NewStoreAt opens a report store rooted at dir
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, common.DirPermissionNormal); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the report and returns its file path
func (s *Store) Save(r *Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("run-%s.json", r.ID))
	if err := os.WriteFile(path, data, common.FilePermissionNormal); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

// List returns stored reports, newest first
func (s *Store) List() ([]*Report, error) {
	pattern := filepath.Join(s.dir, "run-*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var reports []*Report
	for _, file := range files {
		r, err := s.load(file)
		if err != nil {
			// Skip unreadable reports but keep listing
			continue
		}
		reports = append(reports, r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})

	return reports, nil
}

func (s *Store) load(path string) (*Report, error) {
	validatedPath, err := common.ValidatePath(path, s.dir)
	if err != nil {
		return nil, fmt.Errorf("invalid report path: %w", err)
	}

	data, err := os.ReadFile(validatedPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}
