package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var csvHeader = []string{"ID", "Task", "Topic", "Subtopic", "Started", "Minutes", "Duration", "Note"}

func ToCSV(entries []store.TimeEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, entries)
}

// WriteCSV writes one row per entry using the entry's task snapshot, so
// entries of deleted tasks keep their labels.
func WriteCSV(out io.Writer, entries []store.TimeEntry) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.ID,
			e.TaskTitle,
			e.TaskTopic,
			e.TaskSubtopic,
			e.StartedAt.Local().Format(time.RFC3339),
			strconv.Itoa(e.DurationMinutes),
			formatMinutes(e.DurationMinutes),
			e.Note,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
