// Package dataset persists generated tables and identifies them.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"

	"github.com/torosent/netsynth/internal/model"
)

// csvHeader is the persistence contract: downstream consumers key on these
// exact columns in this exact order. Units: ms, ms, fraction, Mbps.
var csvHeader = []string{"rtt", "ttfb", "loss", "throughput"}

// WriteCSV writes the table to path in generation order. The file is locked
// for the duration of the write so concurrent runs pointed at the same path
// cannot interleave rows.
func WriteCSV(path string, table *model.Table) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < table.Len(); i++ {
		s := table.At(i)
		record := []string{
			formatFloat(s.RTT),
			formatFloat(s.TTFB),
			formatFloat(s.Loss),
			formatFloat(s.Throughput),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Sync()
}

// ReadCSV loads a dataset previously written with WriteCSV. Provenance
// (seed, params) is not recoverable from the file and is left zero.
func ReadCSV(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if len(records[0]) != len(csvHeader) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(csvHeader), len(records[0]))
	}
	for i, name := range csvHeader {
		if records[0][i] != name {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i, records[0][i], name)
		}
	}

	samples := make([]model.Sample, 0, len(records)-1)
	for rowIdx, record := range records[1:] {
		var values [4]float64
		for col, raw := range record {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, rowIdx+1, err)
			}
			values[col] = v
		}
		samples = append(samples, model.Sample{
			RTT:         values[0],
			TTFB:        values[1],
			ServerDelay: values[1] - values[0],
			Loss:        values[2],
			Throughput:  values[3],
		})
	}
	return model.TableFromSamples(samples, 0, model.Params{}), nil
}

// WriteJSON exports the table including the latent server_delay column,
// which the CSV contract deliberately omits.
func WriteJSON(path string, table *model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table.Samples()); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Sync()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
