package experiment

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadCSVFromReader(t *testing.T) {
	data := "ds,y\n2024-01-01,10.5\n2024-01-02,11.0\n2024-01-03,9.75\n"

	s, err := LoadCSVFromReader(strings.NewReader(data), &CSVOptions{
		ValueColumn: "y",
		DateColumn:  "ds",
	})
	if err != nil {
		t.Fatalf("LoadCSVFromReader failed: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", s.Len())
	}

	if s.Values[0] != 10.5 || s.Values[2] != 9.75 {
		t.Errorf("unexpected values: %v", s.Values)
	}

	if s.Timestamps[1].Format("2006-01-02") != "2024-01-02" {
		t.Errorf("unexpected timestamp: %v", s.Timestamps[1])
	}
}

func TestLoadCSVFromReader_SkipsNonNumeric(t *testing.T) {
	data := "y\n1.0\nN/A\n3.0\n"

	s, err := LoadCSVFromReader(strings.NewReader(data), nil)
	if err != nil {
		t.Fatalf("LoadCSVFromReader failed: %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("expected non-numeric row to be skipped, got %d rows", s.Len())
	}
}

func TestLoadCSVFromReader_CaseInsensitiveHeader(t *testing.T) {
	data := "Date,Value\n2024-01-01,5\n"

	s, err := LoadCSVFromReader(strings.NewReader(data), &CSVOptions{
		ValueColumn: "value",
		DateColumn:  "date",
	})
	if err != nil {
		t.Fatalf("LoadCSVFromReader failed: %v", err)
	}

	if s.Len() != 1 || s.Values[0] != 5 {
		t.Errorf("unexpected series: %v", s.Values)
	}
}

func TestLoadCSVFromReader_Errors(t *testing.T) {
	if _, err := LoadCSVFromReader(strings.NewReader("a,b\n1,2\n"), &CSVOptions{ValueColumn: "y"}); !errors.Is(err, ErrValueColumnNotFound) {
		t.Errorf("expected ErrValueColumnNotFound, got %v", err)
	}

	if _, err := LoadCSVFromReader(strings.NewReader("y\n"), nil); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}
