package collect

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteCSV persists collected results. This raw schema is deliberately
// separate from the synthetic dataset contract: collected ping data has no
// ttfb or throughput columns.
func WriteCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp", "probe_id", "rtt_min", "rtt_avg", "rtt_max", "sent", "rcvd", "loss"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range results {
		record := []string{
			r.Timestamp.Format("2006-01-02T15:04:05Z"),
			strconv.FormatInt(r.ProbeID, 10),
			strconv.FormatFloat(r.RTTMin, 'g', -1, 64),
			strconv.FormatFloat(r.RTTAvg, 'g', -1, 64),
			strconv.FormatFloat(r.RTTMax, 'g', -1, 64),
			strconv.FormatInt(r.Sent, 10),
			strconv.FormatInt(r.Received, 10),
			strconv.FormatFloat(r.Loss, 'g', -1, 64),
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
