package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Investment status constants. Creation currently produces completed
// immediately (synchronous capture); pending/failed exist for forward
// compatibility with asynchronous payment capture. refunded is terminal.
const (
	InvestmentStatusPending   = "pending"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusFailed    = "failed"
	InvestmentStatusRefunded  = "refunded"
)

// DefaultRefundReason is recorded when a cancel request supplies no reason
const DefaultRefundReason = "User requested refund"

// Investment records a single funding contribution against a project.
// Amount never changes after creation; the only backward transition is
// pending/completed -> refunded.
type Investment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"user_id"`
	ProjectID     primitive.ObjectID `bson:"projectId" json:"project_id"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentMethod string             `bson:"paymentMethod" json:"payment_method"`
	PaymentRef    string             `bson:"paymentRef" json:"payment_ref"`
	Status        string             `bson:"status" json:"status"`

	InvestmentDate     time.Time `bson:"investmentDate" json:"investment_date"`
	ExpectedReturn     float64   `bson:"expectedReturn" json:"expected_return"`
	ExpectedReturnDate time.Time `bson:"expectedReturnDate" json:"expected_return_date"`

	ActualReturn     *float64   `bson:"actualReturn,omitempty" json:"actual_return,omitempty"`
	ActualReturnDate *time.Time `bson:"actualReturnDate,omitempty" json:"actual_return_date,omitempty"`

	RefundReason string     `bson:"refundReason,omitempty" json:"refund_reason,omitempty"`
	RefundRef    string     `bson:"refundRef,omitempty" json:"refund_ref,omitempty"`
	RefundDate   *time.Time `bson:"refundDate,omitempty" json:"refund_date,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// IsRefundable reports whether the investment can still be refunded
func (i *Investment) IsRefundable() bool {
	return i.Status == InvestmentStatusPending || i.Status == InvestmentStatusCompleted
}

// WithinCancelWindow reports whether now is inside the non-admin cancel
// window measured from the investment date
func (i *Investment) WithinCancelWindow(now time.Time, window time.Duration) bool {
	return now.Sub(i.InvestmentDate) <= window
}

// ExpectedReturnFor computes the projected payout for an amount at a
// project's ROI
func ExpectedReturnFor(amount, roiPercent float64) float64 {
	return amount * (1 + roiPercent/100)
}
