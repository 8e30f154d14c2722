package timetable

import (
	"strings"
	"testing"
	"time"
)

const sampleDocument = `
semester: 2025-spring
entries:
  - course_id: course-101
    room_id: room-1
    weekday: monday
    start: "09:00"
    end: "10:30"
  - course_id: course-202
    room_id: room-2
    weekday: Thursday
    start: "13:15"
    end: "14:45"
`

func TestParse(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Semester != "2025-spring" {
		t.Errorf("Semester = %q", doc.Semester)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(doc.Entries))
	}
}

func TestParseRejectsEmptyDocuments(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("semester: 2025-spring\n")); err == nil {
		t.Fatal("Parse() accepted a document with no entries")
	}
	if _, err := Parse([]byte("{not yaml")); err == nil {
		t.Fatal("Parse() accepted malformed YAML")
	}
}

func TestToTemplates(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	inputs, err := doc.ToTemplates()
	if err != nil {
		t.Fatalf("ToTemplates() error = %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("len(inputs) = %d, want 2", len(inputs))
	}

	first := inputs[0]
	if first.CourseID != "course-101" || first.RoomID != "room-1" {
		t.Errorf("first = %+v", first)
	}
	if first.Weekday != time.Monday || int(first.Start) != 9*60 || int(first.End) != 10*60+30 {
		t.Errorf("first slot = %v %d-%d", first.Weekday, first.Start, first.End)
	}
	if inputs[1].Weekday != time.Thursday {
		t.Errorf("second weekday = %v, want Thursday (case-insensitive)", inputs[1].Weekday)
	}
}

func TestToTemplatesRejectsMalformedEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"missing course", Entry{RoomID: "room-1", Weekday: "monday", Start: "09:00", End: "10:00"}, "course_id"},
		{"weekend", Entry{CourseID: "c", RoomID: "room-1", Weekday: "saturday", Start: "09:00", End: "10:00"}, "weekday"},
		{"bad start", Entry{CourseID: "c", RoomID: "room-1", Weekday: "monday", Start: "9am", End: "10:00"}, "start"},
		{"inverted", Entry{CourseID: "c", RoomID: "room-1", Weekday: "monday", Start: "11:00", End: "10:00"}, "after start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Entries: []Entry{tt.entry}}
			_, err := doc.ToTemplates()
			if err == nil {
				t.Fatal("ToTemplates() accepted malformed entry")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
