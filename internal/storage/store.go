package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/flowsim/internal/metrics"
	"github.com/san-kum/flowsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Field       string             `json:"field"`
	Integrator  string             `json:"integrator"`
	Group       string             `json:"group,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Ticks       int                `json:"ticks"`
	Capacity    int                `json:"capacity"`
	EmitPerTick int                `json:"emit_per_tick"`
	MaxAge      float64            `json:"max_age,omitempty"`
	Emitted     int                `json:"emitted"`
	Evicted     int                `json:"evicted"`
	Diverged    int                `json:"diverged"`
	Exited      int                `json:"exited"`
	Expired     int                `json:"expired"`
	Live        int                `json:"live"`
	Metrics     map[string]float64 `json:"metrics"`
}

// TickRecord is one row of ticks.csv.
type TickRecord struct {
	Tick       int     `csv:"tick"`
	Time       float64 `csv:"time"`
	Emitted    int     `csv:"emitted"`
	Evicted    int     `csv:"evicted"`
	Diverged   int     `csv:"diverged"`
	Exited     int     `csv:"exited"`
	Expired    int     `csv:"expired"`
	Live       int     `csv:"live"`
	MeanEnergy float64 `csv:"mean_energy"`
	MeanAge    float64 `csv:"mean_age"`
}

func tickRecord(s sim.Snapshot) TickRecord {
	st := s.Stats
	rec := TickRecord{
		Tick:     s.Tick,
		Time:     s.Time,
		Emitted:  st.Emitted,
		Evicted:  st.Evicted,
		Diverged: st.Diverged,
		Exited:   st.Exited,
		Expired:  st.Expired,
		Live:     st.Live,
	}
	if d, ok := metrics.Describe(s.Energies); ok {
		rec.MeanEnergy = d.Mean
	}
	if d, ok := metrics.Describe(s.Ages); ok {
		rec.MeanAge = d.Mean
	}
	return rec
}

// Create starts a new run directory and returns a recorder that appends one
// ticks.csv row per tick. meta.ID and meta.Timestamp are filled in.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	meta.Timestamp = time.Now()
	base := fmt.Sprintf("%s_%s_%d", meta.Field, meta.Integrator, meta.Timestamp.Unix())

	var runDir string
	for i := 0; ; i++ {
		meta.ID = base
		if i > 0 {
			meta.ID = fmt.Sprintf("%s_%d", base, i)
		}
		runDir = filepath.Join(s.baseDir, meta.ID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}

	f, err := os.Create(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	return &Recorder{
		dir:  runDir,
		meta: meta,
		file: f,
		buf:  bufio.NewWriter(f),
	}, nil
}

// Recorder is a sim.Observer writing tick telemetry. The first write error
// stops recording and is returned by Close.
type Recorder struct {
	dir           string
	meta          RunMetadata
	file          *os.File
	buf           *bufio.Writer
	headerWritten bool
	err           error
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnTick(s sim.Snapshot) {
	if r.err != nil {
		return
	}
	records := []TickRecord{tickRecord(s)}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.buf); err != nil {
			r.err = fmt.Errorf("writing ticks: %w", err)
			return
		}
		r.headerWritten = true
		return
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.buf); err != nil {
		r.err = fmt.Errorf("writing ticks: %w", err)
	}
}

// Close flushes ticks.csv and writes metadata.json with the totals and
// metrics of result, which may be nil for an aborted run.
func (r *Recorder) Close(result *sim.Result) error {
	if result != nil {
		r.meta.Ticks = result.Ticks
		r.meta.Emitted = result.Emitted
		r.meta.Evicted = result.Evicted
		r.meta.Diverged = result.Diverged
		r.meta.Exited = result.Exited
		r.meta.Expired = result.Expired
		r.meta.Live = result.Final.Len()
		r.meta.Metrics = result.Metrics
	}

	errs := []error{r.err}
	if err := r.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, writeJSON(filepath.Join(r.dir, "metadata.json"), r.meta))
	return errors.Join(errs...)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns the recorded runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadTicks(runID string) ([]TickRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records := []TickRecord{}
	if info, err := f.Stat(); err != nil || info.Size() == 0 {
		return records, err
	}
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("run %s ticks: %w", runID, err)
	}
	return records, nil
}
