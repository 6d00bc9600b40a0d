package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status constants
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusClosed    = "closed"
)

// Project is a crowdfunding listing. Funding counters (fundedAmount,
// totalInvestors) and the active/completed transition are mutated only by
// the investment ledger.
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Category       string             `bson:"category" json:"category"`
	MinInvestment  float64            `bson:"minInvestment" json:"min_investment"`
	ROIPercent     float64            `bson:"roiPercent" json:"roi_percent"`
	TargetAmount   float64            `bson:"targetAmount" json:"target_amount"`
	FundedAmount   float64            `bson:"fundedAmount" json:"funded_amount"`
	TotalInvestors int64              `bson:"totalInvestors" json:"total_investors"`
	DurationMonths int                `bson:"durationMonths" json:"duration_months"`
	Status         string             `bson:"status" json:"status"`
	IsPremium      bool               `bson:"isPremium" json:"is_premium"`
	CreatedBy      string             `bson:"createdBy" json:"created_by"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}

// ProgressPercent returns funding progress capped at 100
func (p *Project) ProgressPercent() float64 {
	if p.TargetAmount <= 0 {
		return 0
	}
	progress := p.FundedAmount / p.TargetAmount * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// RemainingHeadroom returns how much funding the project can still accept
func (p *Project) RemainingHeadroom() float64 {
	headroom := p.TargetAmount - p.FundedAmount
	if headroom < 0 {
		return 0
	}
	return headroom
}

// IsActive reports whether the project accepts investments
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// Validate checks attribute ranges on create/update
func (p *Project) Validate() *ValidationError {
	var fields []FieldError

	if p.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "title is required"})
	}
	if p.MinInvestment < 0 {
		fields = append(fields, FieldError{Field: "min_investment", Message: "must be >= 0"})
	}
	if p.ROIPercent < 0 || p.ROIPercent > 1000 {
		fields = append(fields, FieldError{Field: "roi_percent", Message: "must be between 0 and 1000"})
	}
	if p.TargetAmount < 0 {
		fields = append(fields, FieldError{Field: "target_amount", Message: "must be >= 0"})
	}
	if p.DurationMonths < 1 || p.DurationMonths > 240 {
		fields = append(fields, FieldError{Field: "duration_months", Message: "must be between 1 and 240"})
	}
	if p.Status != "" && p.Status != ProjectStatusActive && p.Status != ProjectStatusCompleted && p.Status != ProjectStatusClosed {
		fields = append(fields, FieldError{Field: "status", Message: "must be one of active, completed, closed"})
	}

	if len(fields) > 0 {
		return NewFieldValidationError("invalid project", fields...)
	}
	return nil
}
