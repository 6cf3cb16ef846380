package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/windward/internal/domain/legs"
	"github.com/okian/windward/internal/domain/polar"
	"github.com/okian/windward/internal/domain/telemetry"
	"github.com/okian/windward/pkg/logger"
)

const (
	outputFilePerm = 0o644
	outputDirPerm  = 0o755
)

// raceReport is the serialized form of one race's results.
type raceReport struct {
	Race        string           `json:"race"`
	Regatta     string           `json:"regatta"`
	Boat        string           `json:"boat,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Diagnostics RaceDiagnostics  `json:"diagnostics"`
	Legs        []legs.LegRecord `json:"legs"`
	Track       []TrackPoint     `json:"track,omitempty"`
}

// polarReport is the serialized form of the merged polar table.
type polarReport struct {
	Regatta     string      `json:"regatta"`
	GeneratedAt time.Time   `json:"generated_at"`
	Grid        polar.Grid  `json:"grid"`
	SampleCount int64       `json:"sample_count"`
	Rows        []polar.Row `json:"rows"`
}

// seriesRow is one synchronized tick, flattened for spreadsheet import.
type seriesRow struct {
	Time time.Time          `json:"time"`
	Vals map[string]float64 `json:"values"`
}

// Emit writes the run's reports under dir: one <race>.json per race, a
// <race>.series.json tick dump, and polar.json for the merged table.
// Failed races are skipped; their errors already live in the RunResult.
func (s *Service) Emit(ctx context.Context, dir string, run *RunResult) error {
	if err := os.MkdirAll(dir, outputDirPerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	now := time.Now().UTC()

	for i := range run.Races {
		race := &run.Races[i]
		if race.Err != nil {
			continue
		}
		report := raceReport{
			Race:        race.Race,
			Regatta:     run.Regatta,
			Boat:        run.Boat,
			GeneratedAt: now,
			Diagnostics: race.Diagnostics,
			Legs:        race.Legs,
			Track:       race.Track,
		}
		if err := writeJSON(filepath.Join(dir, race.Race+".json"), report); err != nil {
			return err
		}
		if race.Series != nil {
			rows := seriesRows(race.Series)
			if err := writeJSON(filepath.Join(dir, race.Race+".series.json"), rows); err != nil {
				return err
			}
		}
	}

	if run.Polar != nil {
		report := polarReport{
			Regatta:     run.Regatta,
			GeneratedAt: now,
			Grid:        run.Polar.Grid,
			SampleCount: run.Polar.SampleCount(),
			Rows:        run.Polar.Rows(),
		}
		if err := writeJSON(filepath.Join(dir, "polar.json"), report); err != nil {
			return err
		}
	}
	s.log.Info(ctx, "reports written", logger.String("dir", dir))
	return nil
}

// seriesRows flattens a series into per-tick rows, omitting missing values.
func seriesRows(series *telemetry.SyncSeries) []seriesRow {
	out := make([]seriesRow, 0, series.Len())
	for i := 0; i < series.Len(); i++ {
		row := seriesRow{Time: series.Time(i), Vals: make(map[string]float64)}
		for _, c := range telemetry.AllChannels {
			if v, ok := series.At(c, i); ok {
				row.Vals[c.String()] = v
			}
		}
		if len(row.Vals) > 0 {
			out = append(out, row)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, outputFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
