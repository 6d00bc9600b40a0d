package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"crowdvest/internal/models"
)

func activeProject(funded float64) *models.Project {
	return &models.Project{
		Title:          "Solar Farm",
		Status:         models.ProjectStatusActive,
		MinInvestment:  50,
		ROIPercent:     20,
		TargetAmount:   1000,
		FundedAmount:   funded,
		DurationMonths: 12,
	}
}

func TestCheckInvestableOrdering(t *testing.T) {
	tests := []struct {
		name        string
		project     *models.Project
		amount      float64
		wantState   bool
		wantInvalid bool
		wantMessage string
	}{
		{
			name: "closed project rejected before amount checks",
			project: func() *models.Project {
				p := activeProject(0)
				p.Status = models.ProjectStatusClosed
				return p
			}(),
			amount:      1, // also below minimum, but state wins
			wantState:   true,
			wantMessage: "not accepting investments",
		},
		{
			name: "zero amount on closed project still reports state first",
			project: func() *models.Project {
				p := activeProject(0)
				p.Status = models.ProjectStatusClosed
				return p
			}(),
			amount:      0,
			wantState:   true,
			wantMessage: "not accepting investments",
		},
		{
			name:        "zero amount",
			project:     activeProject(0),
			amount:      0,
			wantInvalid: true,
			wantMessage: "must be greater than zero",
		},
		{
			name:        "below minimum",
			project:     activeProject(0),
			amount:      10,
			wantInvalid: true,
			wantMessage: "Minimum investment is $50.00",
		},
		{
			name: "fully funded rejected before headroom",
			project: func() *models.Project {
				p := activeProject(1000)
				return p
			}(),
			amount:      100,
			wantState:   true,
			wantMessage: "fully funded",
		},
		{
			name:        "over headroom names exact remaining amount",
			project:     activeProject(900),
			amount:      150,
			wantInvalid: true,
			wantMessage: "Maximum you can invest: $100.00",
		},
		{
			name:    "exact headroom accepted",
			project: activeProject(900),
			amount:  100,
		},
		{
			name:    "minimum exactly met",
			project: activeProject(0),
			amount:  50,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkInvestable(tc.project, tc.amount)

			if !tc.wantState && !tc.wantInvalid {
				if err != nil {
					t.Fatalf("expected acceptance, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection, got nil")
			}

			if tc.wantState {
				var stateErr *models.InvalidStateError
				if !errors.As(err, &stateErr) {
					t.Fatalf("expected InvalidStateError, got %T: %v", err, err)
				}
			}
			if tc.wantInvalid {
				var validationErr *models.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %T: %v", err, err)
				}
			}
			if !strings.Contains(err.Error(), tc.wantMessage) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantMessage)
			}
		})
	}
}

func TestRollbackCountersFloorsAtZero(t *testing.T) {
	tests := []struct {
		name          string
		funded        float64
		investors     int64
		amount        float64
		wantFunded    float64
		wantInvestors int64
	}{
		{"normal rollback", 500, 3, 100, 400, 2},
		{"full rollback to zero", 100, 1, 100, 0, 0},
		{"funded underflow floored", 50, 2, 100, 0, 1},
		{"investor underflow floored", 100, 0, 100, 0, 0},
		{"both underflow floored", 0, 0, 100, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			funded, investors := rollbackCounters(tc.funded, tc.investors, tc.amount)
			if funded != tc.wantFunded {
				t.Errorf("fundedAmount = %v, want %v", funded, tc.wantFunded)
			}
			if investors != tc.wantInvestors {
				t.Errorf("totalInvestors = %v, want %v", investors, tc.wantInvestors)
			}
		})
	}
}

func TestFundingTransitions(t *testing.T) {
	t.Run("active project at target completes", func(t *testing.T) {
		p := activeProject(1000)
		if !fundingComplete(p) {
			t.Error("expected project at target to complete")
		}
	})
	t.Run("active project below target stays active", func(t *testing.T) {
		if fundingComplete(activeProject(999)) {
			t.Error("project below target must not complete")
		}
	})
	t.Run("completed project below target reopens", func(t *testing.T) {
		p := activeProject(900)
		p.Status = models.ProjectStatusCompleted
		if !fundingReopened(p) {
			t.Error("expected completed project below target to reopen")
		}
	})
	t.Run("completed project at target stays completed", func(t *testing.T) {
		p := activeProject(1000)
		p.Status = models.ProjectStatusCompleted
		if fundingReopened(p) {
			t.Error("fully funded project must not reopen")
		}
	})
	t.Run("closed project never reopens", func(t *testing.T) {
		p := activeProject(0)
		p.Status = models.ProjectStatusClosed
		if fundingReopened(p) {
			t.Error("closed project must not reopen")
		}
	})
}

// Replays an invest/cancel sequence through the same transition decisions the
// transaction closures use and checks the funding counters stay consistent
// with the surviving investments.
func TestInvestCancelSequenceKeepsCountersConsistent(t *testing.T) {
	project := activeProject(0)

	type entry struct {
		amount   float64
		refunded bool
	}
	ledger := []*entry{}

	invest := func(amount float64) *entry {
		if err := checkInvestable(project, amount); err != nil {
			t.Fatalf("invest(%v) rejected: %v", amount, err)
		}
		project.FundedAmount += amount
		project.TotalInvestors++
		if fundingComplete(project) {
			project.Status = models.ProjectStatusCompleted
		}
		e := &entry{amount: amount}
		ledger = append(ledger, e)
		return e
	}
	cancel := func(e *entry) {
		if e.refunded {
			t.Fatal("cancelled the same investment twice")
		}
		e.refunded = true
		project.FundedAmount, project.TotalInvestors = rollbackCounters(
			project.FundedAmount, project.TotalInvestors, e.amount)
		if fundingReopened(project) {
			project.Status = models.ProjectStatusActive
		}
	}
	checkInvariant := func(step string) {
		var want float64
		for _, e := range ledger {
			if !e.refunded {
				want += e.amount
			}
		}
		if project.FundedAmount != want {
			t.Fatalf("%s: fundedAmount = %v, want sum of completed amounts %v", step, project.FundedAmount, want)
		}
	}

	first := invest(400)
	checkInvariant("after first invest")
	second := invest(500)
	checkInvariant("after second invest")

	// Boundary investment consumes the exact headroom and completes the project
	invest(100)
	checkInvariant("after boundary invest")
	if project.Status != models.ProjectStatusCompleted {
		t.Fatalf("project at target should be completed, got %s", project.Status)
	}
	if err := checkInvestable(project, 50); err == nil {
		t.Fatal("completed project must not accept further investments")
	}

	// Cancelling reopens the completed project
	cancel(second)
	checkInvariant("after cancel")
	if project.Status != models.ProjectStatusActive {
		t.Fatalf("project below target should reopen, got %s", project.Status)
	}

	cancel(first)
	checkInvariant("after second cancel")
	if project.TotalInvestors != 1 {
		t.Errorf("totalInvestors = %d, want 1", project.TotalInvestors)
	}
}

func TestHeadroomFilterBoundary(t *testing.T) {
	projectID := primitive.NewObjectID()
	filter := headroomFilter(projectID, 1000, 100)

	bound, ok := filter["fundedAmount"].(bson.M)["$lte"].(float64)
	if !ok {
		t.Fatal("expected a numeric $lte bound on fundedAmount")
	}

	// funded <= target - amount is exactly funded + amount <= target
	if exactHeadroom := 900.0; exactHeadroom > bound {
		t.Errorf("exact-headroom investment must match: funded %v vs bound %v", exactHeadroom, bound)
	}
	if oneOver := 901.0; oneOver <= bound {
		t.Errorf("overfunding investment must not match: funded %v vs bound %v", oneOver, bound)
	}
	if filter["status"] != models.ProjectStatusActive {
		t.Errorf("filter status = %v, want active", filter["status"])
	}
}

func TestRefundableFilterMatchesRefundableStatuses(t *testing.T) {
	filter := refundableFilter(primitive.NewObjectID())
	allowed, ok := filter["status"].(bson.M)["$in"].(bson.A)
	if !ok {
		t.Fatal("expected a $in guard on status")
	}

	inFilter := func(status string) bool {
		for _, s := range allowed {
			if s == status {
				return true
			}
		}
		return false
	}

	statuses := []string{
		models.InvestmentStatusPending,
		models.InvestmentStatusCompleted,
		models.InvestmentStatusFailed,
		models.InvestmentStatusRefunded,
	}
	for _, status := range statuses {
		investment := models.Investment{Status: status}
		if got, want := inFilter(status), investment.IsRefundable(); got != want {
			t.Errorf("status %q: filter matches %v, IsRefundable %v", status, got, want)
		}
	}
}

func TestExpectedReturnComputation(t *testing.T) {
	tests := []struct {
		amount float64
		roi    float64
		want   float64
	}{
		{100, 20, 120},
		{1000, 0, 1000},
		{500, 7.5, 537.5},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%.0f at %.1f%%", tc.amount, tc.roi), func(t *testing.T) {
			if got := models.ExpectedReturnFor(tc.amount, tc.roi); got != tc.want {
				t.Errorf("ExpectedReturnFor(%v, %v) = %v, want %v", tc.amount, tc.roi, got, tc.want)
			}
		})
	}
}

func TestErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", models.NewValidationError("bad"), "validation"},
		{"authorization", models.NewAuthorizationError("no"), "authorization"},
		{"not found", models.NewNotFoundError("Project"), "not_found"},
		{"invalid state", models.NewInvalidStateError("closed"), "invalid_state"},
		{"wrapped invalid state", fmt.Errorf("tx: %w", models.NewInvalidStateError("closed")), "invalid_state"},
		{"internal", errors.New("boom"), "internal"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorCategory(tc.err); got != tc.want {
				t.Errorf("errorCategory = %q, want %q", got, tc.want)
			}
		})
	}
}
