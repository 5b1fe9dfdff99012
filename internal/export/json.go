package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

type jsonExport struct {
	ExportedAt string          `json:"exported_at"`
	Count      int             `json:"count"`
	Entries    []jsonEntry     `json:"entries"`
	Milestones []jsonMilestone `json:"milestones,omitempty"`
}

type jsonEntry struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Task      string `json:"task"`
	Topic     string `json:"topic,omitempty"`
	Subtopic  string `json:"subtopic,omitempty"`
	StartedAt string `json:"started_at"`
	Minutes   int    `json:"minutes"`
	Duration  string `json:"duration"`
	Note      string `json:"note,omitempty"`
}

type jsonMilestone struct {
	Type       string `json:"type"`
	Value      int    `json:"value"`
	AchievedAt string `json:"achieved_at"`
	Task       string `json:"task,omitempty"`
}

func ToJSON(entries []store.TimeEntry, milestones []store.Milestone, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, entries, milestones)
}

func WriteJSON(w io.Writer, entries []store.TimeEntry, milestones []store.Milestone) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.Entries = append(export.Entries, jsonEntry{
			ID:        e.ID,
			TaskID:    e.TaskID,
			Task:      e.TaskTitle,
			Topic:     e.TaskTopic,
			Subtopic:  e.TaskSubtopic,
			StartedAt: e.StartedAt.Local().Format(time.RFC3339),
			Minutes:   e.DurationMinutes,
			Duration:  formatMinutes(e.DurationMinutes),
			Note:      e.Note,
		})
	}
	for _, m := range milestones {
		export.Milestones = append(export.Milestones, jsonMilestone{
			Type:       string(m.Type),
			Value:      m.Value,
			AchievedAt: m.AchievedAt.Local().Format(time.RFC3339),
			Task:       m.TaskTitle,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
