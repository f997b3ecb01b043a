package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gofrs/flock"

	"github.com/torosent/outbreak/internal/bench"
)

// CSVHeader is the first line of the results table.
var CSVHeader = []string{"Threads", "Simulations", "Time(ms)", "Speedup", "AvgDeceased", "AvgPeakBeds", "CapacityExceededCount"}

// WriteCSV replaces path with the report's results table. An exclusive lock
// on path+".lock" is held while writing so concurrent benchmarks sharing an
// output path do not interleave.
func WriteCSV(path string, report *bench.Report) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeCSV(f, report); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeCSV writes the results table to w.
func EncodeCSV(w io.Writer, report *bench.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range report.Rows {
		record := []string{
			row.Label(),
			strconv.Itoa(row.Trials),
			strconv.FormatInt(row.TimeMs, 10),
			strconv.FormatFloat(row.Speedup, 'f', 2, 64),
			strconv.FormatInt(row.AvgDeceased, 10),
			strconv.FormatInt(row.AvgPeakBeds, 10),
			strconv.FormatInt(row.CapacityExceeded, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
