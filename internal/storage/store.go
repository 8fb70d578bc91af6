// Package storage keeps simulated runs on disk: one directory per run holding
// metadata.json and poses.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	posesFile    = "poses.csv"
)

var csvHeader = []string{
	"time", "action",
	"x", "y", "heading",
	"true_x", "true_y", "true_heading",
	"left_v", "right_v",
}

// Sample is one drivetrain tick. Headings are degrees.
type Sample struct {
	Time        float64 `json:"t"`
	Action      string  `json:"action"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Heading     float64 `json:"heading"`
	TrueX       float64 `json:"true_x"`
	TrueY       float64 `json:"true_y"`
	TrueHeading float64 `json:"true_heading"`
	Left        float64 `json:"left_v"`
	Right       float64 `json:"right_v"`
}

// ActionSummary records how one action of a routine ended.
type ActionSummary struct {
	Name     string  `json:"name"`
	Reason   string  `json:"reason"`
	Ms       int64   `json:"ms"`
	Ticks    int     `json:"ticks"`
	Diverged bool    `json:"diverged,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Heading  float64 `json:"heading"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Routine    string             `json:"routine"`
	Preset     string             `json:"preset,omitempty"`
	Side       string             `json:"side"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Period     float64            `json:"period"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Actions    []ActionSummary    `json:"actions"`
	Metrics    map[string]float64 `json:"metrics"`
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create data dir")
}

// Save writes a run and returns its id. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Routine, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run dir")
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode metadata")
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", errors.Wrap(err, "write metadata")
	}

	if err := WriteCSV(filepath.Join(runDir, posesFile), samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "list runs")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, runID)
		}
		return nil, errors.Wrap(err, "read metadata")
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata of %s", runID)
	}
	return &meta, nil
}

// CSVPath is where a run's samples live.
func (s *Store) CSVPath(runID string) string {
	return filepath.Join(s.baseDir, runID, posesFile)
}

func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(s.CSVPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, runID)
		}
		return nil, errors.Wrap(err, "open samples")
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read samples")
	}

	samples := make([]Sample, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) != len(csvHeader) {
			continue
		}
		var vals [9]float64
		cols := append([]string{record[0]}, record[2:]...)
		ok := true
		for j, col := range cols {
			v, err := strconv.ParseFloat(col, 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			Time: vals[0], Action: record[1],
			X: vals[1], Y: vals[2], Heading: vals[3],
			TrueX: vals[4], TrueY: vals[5], TrueHeading: vals[6],
			Left: vals[7], Right: vals[8],
		})
	}
	return samples, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(path string, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv")
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Time, 'f', 6, 64), s.Action,
			f(s.X), f(s.Y), f(s.Heading),
			f(s.TrueX), f(s.TrueY), f(s.TrueHeading),
			f(s.Left), f(s.Right),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write csv")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}
