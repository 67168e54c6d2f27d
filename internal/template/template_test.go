package template

import (
	"slices"
	"strings"
	"testing"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	s := Builtin()
	if got := s.IDs(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("IDs(): got %v, want [1 2 3]", got)
	}

	legal, ok := s.Get(3)
	if !ok {
		t.Fatal("template 3 missing")
	}
	if legal.ContentType != HTML {
		t.Errorf("template 3 content type: got %q, want %q", legal.ContentType, HTML)
	}
	if !slices.Contains(legal.Placeholders(), "notice_id") {
		t.Error("legal notice should reference notice_id")
	}

	urdu, _ := s.Get(2)
	if urdu.Language != "ur" {
		t.Errorf("template 2 language: got %q, want ur", urdu.Language)
	}

	if _, ok := s.Get(99); ok {
		t.Error("Get(99) should report a missing template")
	}
}

func TestNewStore_Validation(t *testing.T) {
	t.Parallel()

	valid := Record{ID: 1, Name: "a", ContentType: Plain, Subject: "s", Body: "b"}

	tests := []struct {
		name    string
		records []Record
		wantErr string
	}{
		{name: "empty", records: nil, wantErr: "at least one"},
		{name: "duplicate id", records: []Record{valid, valid}, wantErr: "duplicate template id 1"},
		{name: "missing subject", records: []Record{{ID: 2, Name: "x", ContentType: Plain, Body: "b"}}, wantErr: "subject is required"},
		{name: "missing body", records: []Record{{ID: 2, Name: "x", ContentType: Plain, Subject: "s"}}, wantErr: "body is required"},
		{name: "bad content type", records: []Record{{ID: 2, Name: "x", ContentType: "markdown", Subject: "s", Body: "b"}}, wantErr: "unknown content type"},
		{name: "zero id", records: []Record{{Name: "x", ContentType: Plain, Subject: "s", Body: "b"}}, wantErr: "id must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewStore(tt.records...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_Placeholders(t *testing.T) {
	t.Parallel()

	r := Record{
		Subject: "Issue {primary_issue} ({reference_number})",
		Body:    "{reference_number} at {area_name}; {not valid} {9bad}",
	}
	want := []string{"primary_issue", "reference_number", "area_name"}
	if got := r.Placeholders(); !slices.Equal(got, want) {
		t.Errorf("Placeholders(): got %v, want %v", got, want)
	}
}

func TestIDs_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := Builtin()
	ids := s.IDs()
	ids[0] = 42
	if s.IDs()[0] != 1 {
		t.Error("IDs() must not expose internal state")
	}
}
