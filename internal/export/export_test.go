package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

func sampleData() []store.TimeEntry {
	now := time.Now().UTC()
	return []store.TimeEntry{
		{
			ID:              "e1",
			TaskID:          "t1",
			DurationMinutes: 60,
			StartedAt:       now.Add(-2 * time.Hour),
			Note:            "worked on feature",
			TaskTitle:       "Feature",
			TaskTopic:       "Work",
			TaskSubtopic:    "Backend",
		},
		{
			ID:              "e2",
			TaskID:          "t2",
			DurationMinutes: 95,
			StartedAt:       now.Add(-time.Hour),
			TaskTitle:       "Reading",
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "e1" || row[1] != "Feature" || row[2] != "Work" || row[3] != "Backend" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[5] != "60" || row[6] != "01:00" {
		t.Fatalf("duration columns = %q %q", row[5], row[6])
	}
	if row[7] != "worked on feature" {
		t.Fatalf("Note = %q", row[7])
	}
	if records[2][6] != "01:35" {
		t.Fatalf("Duration = %q, want 01:35", records[2][6])
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	entries := []store.TimeEntry{{
		ID:              "e1",
		DurationMinutes: 1,
		StartedAt:       time.Now(),
		TaskTitle:       `Task "Special"`,
		Note:            `notes with "quotes" and, commas`,
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `Task "Special"` {
		t.Fatalf("task title mangled: %q", records[1][1])
	}
	if records[1][7] != `notes with "quotes" and, commas` {
		t.Fatalf("note mangled: %q", records[1][7])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	milestones := []store.Milestone{{Type: store.MilestoneTime, Value: 60, AchievedAt: time.Now(), TaskTitle: "Feature"}}

	if err := ToJSON(sampleData(), milestones, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 2 || len(result.Entries) != 2 {
		t.Fatalf("count = %d entries = %d, want 2", result.Count, len(result.Entries))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	e := result.Entries[0]
	if e.ID != "e1" || e.TaskID != "t1" || e.Task != "Feature" || e.Topic != "Work" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Minutes != 60 || e.Duration != "01:00" {
		t.Fatalf("duration = %d %q", e.Minutes, e.Duration)
	}
	for _, e := range result.Entries {
		if _, err := time.Parse(time.RFC3339, e.StartedAt); err != nil {
			t.Fatalf("started_at is not valid RFC3339: %q", e.StartedAt)
		}
	}

	if len(result.Milestones) != 1 || result.Milestones[0].Type != "time_milestone" || result.Milestones[0].Value != 60 {
		t.Fatalf("milestones = %+v", result.Milestones)
	}
}

func TestToJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 0 || result.Entries != nil {
		t.Fatalf("expected empty export, got %+v", result)
	}
	if strings.Contains(buf.String(), "milestones") {
		t.Fatal("empty milestones should be omitted")
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// formatMinutes (internal helper)
// ============================================================

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{0, "00:00"},
		{1, "00:01"},
		{60, "01:00"},
		{95, "01:35"},
		{1440, "24:00"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.mins); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}
