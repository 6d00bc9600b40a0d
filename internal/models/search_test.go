package models

import "testing"

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

func TestSearchRequest_Normalize(t *testing.T) {
	r := SearchRequest{}
	r.Normalize()

	if r.Page != 1 || r.Limit != 20 {
		t.Errorf("defaults = page %d limit %d, want 1/20", r.Page, r.Limit)
	}
	if r.SortBy != SortByCreatedAt || r.SortOrder != SortOrderDesc {
		t.Errorf("default sort = %s %s, want createdAt desc", r.SortBy, r.SortOrder)
	}

	big := SearchRequest{Limit: 500}
	big.Normalize()
	if big.Limit != MaxLimit {
		t.Errorf("limit capped = %d, want %d", big.Limit, MaxLimit)
	}
}

func TestSearchRequest_IsDefaultSort(t *testing.T) {
	tests := []struct {
		name     string
		req      SearchRequest
		expected bool
	}{
		{"empty", SearchRequest{}, true},
		{"explicit default", SearchRequest{SortBy: SortByCreatedAt, SortOrder: SortOrderDesc}, true},
		{"ascending createdAt", SearchRequest{SortBy: SortByCreatedAt, SortOrder: SortOrderAsc}, false},
		{"roi sort", SearchRequest{SortBy: SortByROIPercent}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.IsDefaultSort(); got != tt.expected {
				t.Errorf("IsDefaultSort() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{"empty is valid", SearchRequest{}, false},
		{"full valid request", SearchRequest{
			Page: 2, Limit: 50, Status: ProjectStatusActive,
			MinROI: f64(5), MaxROI: f64(15),
			MinAmount: f64(1000), MaxAmount: f64(50000),
			MinDuration: iptr(6), MaxDuration: iptr(36),
			SortBy: SortByROIPercent, SortOrder: SortOrderAsc,
		}, false},
		{"limit too high", SearchRequest{Limit: 101}, true},
		{"negative page", SearchRequest{Page: -5}, true},
		{"bad status", SearchRequest{Status: "draft"}, true},
		{"roi min above max", SearchRequest{MinROI: f64(20), MaxROI: f64(10)}, true},
		{"amount min above max", SearchRequest{MinAmount: f64(500), MaxAmount: f64(100)}, true},
		{"duration min above max", SearchRequest{MinDuration: iptr(24), MaxDuration: iptr(12)}, true},
		{"negative roi bound", SearchRequest{MinROI: f64(-1)}, true},
		{"unknown sort field", SearchRequest{SortBy: "popularity"}, true},
		{"unknown sort order", SearchRequest{SortOrder: "random"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		limit      int
		totalPages int64
	}{
		{"exact pages", 100, 20, 5},
		{"partial last page", 101, 20, 6},
		{"empty", 0, 20, 0},
		{"single item", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(1, tt.limit, tt.total)
			if p.TotalPages != tt.totalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.totalPages)
			}
		})
	}
}
