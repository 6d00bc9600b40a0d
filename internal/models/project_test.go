package models

import "testing"

func TestProject_ProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		funded   float64
		target   float64
		expected float64
	}{
		{"empty project", 0, 1000, 0},
		{"half funded", 500, 1000, 50},
		{"fully funded", 1000, 1000, 100},
		{"capped at 100", 1500, 1000, 100},
		{"zero target", 500, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Project{FundedAmount: tt.funded, TargetAmount: tt.target}
			if got := p.ProgressPercent(); got != tt.expected {
				t.Errorf("ProgressPercent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestProject_RemainingHeadroom(t *testing.T) {
	p := &Project{TargetAmount: 1000, FundedAmount: 900}
	if got := p.RemainingHeadroom(); got != 100 {
		t.Errorf("RemainingHeadroom() = %v, want 100", got)
	}

	over := &Project{TargetAmount: 1000, FundedAmount: 1100}
	if got := over.RemainingHeadroom(); got != 0 {
		t.Errorf("RemainingHeadroom() floored = %v, want 0", got)
	}
}

func TestProject_Validate(t *testing.T) {
	valid := Project{
		Title:          "Solar farm",
		MinInvestment:  100,
		ROIPercent:     20,
		TargetAmount:   100000,
		DurationMonths: 12,
		Status:         ProjectStatusActive,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid project, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Project)
		field  string
	}{
		{"missing title", func(p *Project) { p.Title = "" }, "title"},
		{"negative min investment", func(p *Project) { p.MinInvestment = -1 }, "min_investment"},
		{"roi too high", func(p *Project) { p.ROIPercent = 1001 }, "roi_percent"},
		{"negative target", func(p *Project) { p.TargetAmount = -5 }, "target_amount"},
		{"duration too short", func(p *Project) { p.DurationMonths = 0 }, "duration_months"},
		{"duration too long", func(p *Project) { p.DurationMonths = 241 }, "duration_months"},
		{"bad status", func(p *Project) { p.Status = "archived" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, f := range err.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tt.field, err.Fields)
			}
		})
	}
}
