package models

// Sortable fields for project search
const (
	SortByCreatedAt      = "createdAt"
	SortByROIPercent     = "roiPercent"
	SortByTargetAmount   = "targetAmount"
	SortByFundedAmount   = "fundedAmount"
	SortByProgress       = "progress"
	SortByDurationMonths = "durationMonths"
)

// Sort orders
const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Pagination bounds
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

var validSortFields = map[string]bool{
	SortByCreatedAt:      true,
	SortByROIPercent:     true,
	SortByTargetAmount:   true,
	SortByFundedAmount:   true,
	SortByProgress:       true,
	SortByDurationMonths: true,
}

// SearchRequest is the advanced-search payload. Range bounds are pointers so
// a filter applies only on the bounds actually supplied.
type SearchRequest struct {
	Page  int `bson:"page,omitempty" json:"page"`
	Limit int `bson:"limit,omitempty" json:"limit"`

	Category   string   `bson:"category,omitempty" json:"category,omitempty"`
	Categories []string `bson:"categories,omitempty" json:"categories,omitempty"`
	Status     string   `bson:"status,omitempty" json:"status,omitempty"`
	Search     string   `bson:"search,omitempty" json:"search,omitempty"`

	MinROI *float64 `bson:"minRoi,omitempty" json:"min_roi,omitempty"`
	MaxROI *float64 `bson:"maxRoi,omitempty" json:"max_roi,omitempty"`

	MinAmount *float64 `bson:"minAmount,omitempty" json:"min_amount,omitempty"`
	MaxAmount *float64 `bson:"maxAmount,omitempty" json:"max_amount,omitempty"`

	MinDuration *int `bson:"minDuration,omitempty" json:"min_duration,omitempty"`
	MaxDuration *int `bson:"maxDuration,omitempty" json:"max_duration,omitempty"`

	SortBy    string `bson:"sortBy,omitempty" json:"sort_by,omitempty"`
	SortOrder string `bson:"sortOrder,omitempty" json:"sort_order,omitempty"`
}

// Normalize fills pagination and sort defaults in place
func (r *SearchRequest) Normalize() {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.SortBy == "" {
		r.SortBy = SortByCreatedAt
	}
	if r.SortOrder == "" {
		r.SortOrder = SortOrderDesc
	}
}

// IsDefaultSort reports whether the request keeps the default ordering
// (createdAt descending). Anything else requires the advancedSort capability.
func (r *SearchRequest) IsDefaultSort() bool {
	return (r.SortBy == "" || r.SortBy == SortByCreatedAt) &&
		(r.SortOrder == "" || r.SortOrder == SortOrderDesc)
}

// Validate returns field-level errors for malformed input. Defaults are not
// applied here; call Normalize after validation passes.
func (r *SearchRequest) Validate() *ValidationError {
	var fields []FieldError

	if r.Page < 0 {
		fields = append(fields, FieldError{Field: "page", Message: "must be >= 1"})
	}
	if r.Limit < 0 || r.Limit > MaxLimit {
		fields = append(fields, FieldError{Field: "limit", Message: "must be between 1 and 100"})
	}
	if r.Status != "" && r.Status != ProjectStatusActive && r.Status != ProjectStatusCompleted && r.Status != ProjectStatusClosed {
		fields = append(fields, FieldError{Field: "status", Message: "must be one of active, completed, closed"})
	}
	if r.MinROI != nil && *r.MinROI < 0 {
		fields = append(fields, FieldError{Field: "min_roi", Message: "must be >= 0"})
	}
	if r.MaxROI != nil && *r.MaxROI < 0 {
		fields = append(fields, FieldError{Field: "max_roi", Message: "must be >= 0"})
	}
	if r.MinROI != nil && r.MaxROI != nil && *r.MinROI > *r.MaxROI {
		fields = append(fields, FieldError{Field: "min_roi", Message: "must not exceed max_roi"})
	}
	if r.MinAmount != nil && *r.MinAmount < 0 {
		fields = append(fields, FieldError{Field: "min_amount", Message: "must be >= 0"})
	}
	if r.MaxAmount != nil && *r.MaxAmount < 0 {
		fields = append(fields, FieldError{Field: "max_amount", Message: "must be >= 0"})
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		fields = append(fields, FieldError{Field: "min_amount", Message: "must not exceed max_amount"})
	}
	if r.MinDuration != nil && *r.MinDuration < 1 {
		fields = append(fields, FieldError{Field: "min_duration", Message: "must be >= 1"})
	}
	if r.MaxDuration != nil && *r.MaxDuration > 240 {
		fields = append(fields, FieldError{Field: "max_duration", Message: "must be <= 240"})
	}
	if r.MinDuration != nil && r.MaxDuration != nil && *r.MinDuration > *r.MaxDuration {
		fields = append(fields, FieldError{Field: "min_duration", Message: "must not exceed max_duration"})
	}
	if r.SortBy != "" && !validSortFields[r.SortBy] {
		fields = append(fields, FieldError{Field: "sort_by", Message: "unknown sort field"})
	}
	if r.SortOrder != "" && r.SortOrder != SortOrderAsc && r.SortOrder != SortOrderDesc {
		fields = append(fields, FieldError{Field: "sort_order", Message: "must be asc or desc"})
	}

	if len(fields) > 0 {
		return NewFieldValidationError("invalid search request", fields...)
	}
	return nil
}

// Pagination describes an offset-paginated result window
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination computes total pages for a result count
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
