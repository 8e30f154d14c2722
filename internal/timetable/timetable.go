// Package timetable parses the YAML documents produced by the external
// timetable generator and converts them into recurring template inputs.
package timetable

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// Document is the root of a generated timetable file.
type Document struct {
	Semester string  `yaml:"semester"`
	Entries  []Entry `yaml:"entries"`
}

// Entry is one weekly course meeting emitted by the generator. Times use
// 24-hour "15:04" notation; weekday is the lowercase English name.
type Entry struct {
	CourseID string `yaml:"course_id"`
	RoomID   string `yaml:"room_id"`
	Weekday  string `yaml:"weekday"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

// Parse decodes a timetable document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("timetable: failed to parse document: %w", err)
	}
	if len(doc.Entries) == 0 {
		return Document{}, fmt.Errorf("timetable: document has no entries")
	}
	return doc, nil
}

// ToTemplates converts the document's entries into template inputs, reporting
// the first malformed entry by index.
func (d Document) ToTemplates() ([]application.TemplateInput, error) {
	inputs := make([]application.TemplateInput, 0, len(d.Entries))
	for i, entry := range d.Entries {
		input, err := entry.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("timetable: entry %d: %w", i, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func (e Entry) toTemplate() (application.TemplateInput, error) {
	if strings.TrimSpace(e.CourseID) == "" {
		return application.TemplateInput{}, fmt.Errorf("course_id is required")
	}
	if strings.TrimSpace(e.RoomID) == "" {
		return application.TemplateInput{}, fmt.Errorf("room_id is required")
	}

	weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(e.Weekday))]
	if !ok {
		return application.TemplateInput{}, fmt.Errorf("unknown weekday %q", e.Weekday)
	}

	start, err := scheduler.ParseTimeOfDay(e.Start)
	if err != nil {
		return application.TemplateInput{}, fmt.Errorf("invalid start %q: %w", e.Start, err)
	}
	end, err := scheduler.ParseTimeOfDay(e.End)
	if err != nil {
		return application.TemplateInput{}, fmt.Errorf("invalid end %q: %w", e.End, err)
	}
	if start >= end {
		return application.TemplateInput{}, fmt.Errorf("end %q must be after start %q", e.End, e.Start)
	}

	return application.TemplateInput{
		CourseID: strings.TrimSpace(e.CourseID),
		RoomID:   strings.TrimSpace(e.RoomID),
		Weekday:  weekday,
		Start:    start,
		End:      end,
	}, nil
}
