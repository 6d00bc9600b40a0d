package services

import (
	"strings"
	"testing"
)

func TestMapColumns(t *testing.T) {
	header := []string{"Title", " description ", "CATEGORY", "min_investment",
		"roi_percent", "target_amount", "duration_months"}

	columns, err := mapColumns(header)
	if err != nil {
		t.Fatalf("mapColumns failed: %v", err)
	}
	if columns["title"] != 0 || columns["description"] != 1 || columns["category"] != 2 {
		t.Errorf("header normalization broken: %v", columns)
	}
}

func TestMapColumnsMissing(t *testing.T) {
	_, err := mapColumns([]string{"title", "description"})
	if err == nil {
		t.Fatal("expected missing-column error")
	}
	if !strings.Contains(err.Error(), "roi_percent") {
		t.Errorf("error %q should name the missing columns", err.Error())
	}
}

func TestParseProjectRow(t *testing.T) {
	columns, err := mapColumns(importColumns)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{
			name: "valid row with currency formatting",
			row:  []string{"Solar Farm", "Panels", "Energy", "$1,000", "12.5", "50000", "18", "yes"},
		},
		{
			name:    "bad duration",
			row:     []string{"Solar Farm", "Panels", "energy", "1000", "12.5", "50000", "soon", ""},
			wantErr: "duration_months",
		},
		{
			name:    "missing target amount",
			row:     []string{"Solar Farm", "Panels", "energy", "1000", "12.5", "", "18", ""},
			wantErr: "target_amount",
		},
		{
			name:    "roi out of range fails validation",
			row:     []string{"Solar Farm", "Panels", "energy", "1000", "5000", "50000", "18", ""},
			wantErr: "roi_percent",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			project, err := parseProjectRow(tc.row, columns)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if project.MinInvestment != 1000 || !project.IsPremium {
					t.Errorf("row parsed incorrectly: %+v", project)
				}
				if project.Category != "energy" {
					t.Errorf("category not lowercased: %q", project.Category)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q, got project %+v", tc.wantErr, project)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}
