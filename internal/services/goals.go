package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade-journal-go/internal/api"

	"go.uber.org/zap"
)

// PeriodType is the span a goal covers.
type PeriodType string

const (
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodYearly  PeriodType = "YEARLY"
)

// Goal is the client-facing goal shape.
type Goal struct {
	ID            int64
	UserID        int64
	PeriodType    PeriodType
	StartDate     time.Time
	EndDate       time.Time
	ProfitTarget  *float64
	TradesTarget  *int
	WinRateTarget *float64
	OtherTargets  string
	Notes         string
	CreatedAt     time.Time
}

type wireGoal struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	PeriodType    PeriodType `json:"period_type"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	ProfitTarget  *float64   `json:"profit_target"`
	TradesTarget  *int       `json:"trades_target"`
	WinRateTarget *float64   `json:"win_rate_target"`
	OtherTargets  string     `json:"other_targets"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

const goalDateLayout = "2006-01-02"

func (w *wireGoal) toGoal() Goal {
	start, _ := time.Parse(goalDateLayout, w.StartDate)
	end, _ := time.Parse(goalDateLayout, w.EndDate)
	return Goal{
		ID:            w.ID,
		UserID:        w.UserID,
		PeriodType:    w.PeriodType,
		StartDate:     start,
		EndDate:       end,
		ProfitTarget:  w.ProfitTarget,
		TradesTarget:  w.TradesTarget,
		WinRateTarget: w.WinRateTarget,
		OtherTargets:  w.OtherTargets,
		Notes:         w.Notes,
		CreatedAt:     w.CreatedAt,
	}
}

// GoalCreate is the payload for setting a goal. Optional targets serialize
// as explicit null when unset.
type GoalCreate struct {
	PeriodType    PeriodType `json:"period_type"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	ProfitTarget  *float64   `json:"profit_target"`
	TradesTarget  *int       `json:"trades_target"`
	WinRateTarget *float64   `json:"win_rate_target"`
	OtherTargets  string     `json:"other_targets,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Validate checks period and date ordering before sending.
func (g *GoalCreate) Validate() error {
	switch g.PeriodType {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
	default:
		return &FieldError{Field: "period_type", Message: "must be WEEKLY, MONTHLY or YEARLY"}
	}

	start, err := time.Parse(goalDateLayout, g.StartDate)
	if err != nil {
		return &FieldError{Field: "start_date", Message: "must be a YYYY-MM-DD date"}
	}
	end, err := time.Parse(goalDateLayout, g.EndDate)
	if err != nil {
		return &FieldError{Field: "end_date", Message: "must be a YYYY-MM-DD date"}
	}
	if end.Before(start) {
		return &FieldError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}

// GoalUpdate is a partial update; nil fields are left untouched by the
// server.
type GoalUpdate struct {
	PeriodType    *PeriodType `json:"period_type,omitempty"`
	StartDate     *string     `json:"start_date,omitempty"`
	EndDate       *string     `json:"end_date,omitempty"`
	ProfitTarget  *float64    `json:"profit_target,omitempty"`
	TradesTarget  *int        `json:"trades_target,omitempty"`
	WinRateTarget *float64    `json:"win_rate_target,omitempty"`
	OtherTargets  *string     `json:"other_targets,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
}

// Validate checks the fields that are present. Date ordering is only
// enforceable locally when the update carries both dates; a single-sided
// change is the server's to judge against the stored goal.
func (g *GoalUpdate) Validate() error {
	if g.PeriodType != nil {
		switch *g.PeriodType {
		case PeriodWeekly, PeriodMonthly, PeriodYearly:
		default:
			return &FieldError{Field: "period_type", Message: "must be WEEKLY, MONTHLY or YEARLY"}
		}
	}

	var start, end time.Time
	var err error
	if g.StartDate != nil {
		if start, err = time.Parse(goalDateLayout, *g.StartDate); err != nil {
			return &FieldError{Field: "start_date", Message: "must be a YYYY-MM-DD date"}
		}
	}
	if g.EndDate != nil {
		if end, err = time.Parse(goalDateLayout, *g.EndDate); err != nil {
			return &FieldError{Field: "end_date", Message: "must be a YYYY-MM-DD date"}
		}
	}
	if g.StartDate != nil && g.EndDate != nil && end.Before(start) {
		return &FieldError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}

// GoalService maps the /api/goals resource onto typed operations.
type GoalService struct {
	client *api.Client
	logger *zap.Logger
}

// NewGoalService creates a new goal service.
func NewGoalService(client *api.Client, logger *zap.Logger) *GoalService {
	return &GoalService{client: client, logger: logger}
}

// List fetches all goals of the current user.
func (s *GoalService) List(ctx context.Context) ([]Goal, error) {
	var wires []wireGoal
	req := s.client.NewRequest().SetResult(&wires)

	if _, err := s.client.Do(ctx, http.MethodGet, "/api/goals/", req); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	goals := make([]Goal, 0, len(wires))
	for i := range wires {
		goals = append(goals, wires[i].toGoal())
	}
	return goals, nil
}

// Get fetches a single goal by id.
func (s *GoalService) Get(ctx context.Context, goalID int64) (*Goal, error) {
	req := s.client.NewRequest().SetResult(&wireGoal{})

	resp, err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/api/goals/%d", goalID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get goal %d: %w", goalID, err)
	}

	goal := resp.Result().(*wireGoal).toGoal()
	return &goal, nil
}

// Create sets a new goal.
func (s *GoalService) Create(ctx context.Context, payload GoalCreate) (*Goal, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireGoal{})

	resp, err := s.client.Do(ctx, http.MethodPost, "/api/goals/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	goal := resp.Result().(*wireGoal).toGoal()
	s.logger.Info("Created goal",
		zap.Int64("goal_id", goal.ID),
		zap.String("period", string(goal.PeriodType)),
	)
	return &goal, nil
}

// Update applies a partial update to a goal.
func (s *GoalService) Update(ctx context.Context, goalID int64, payload GoalUpdate) (*Goal, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireGoal{})

	resp, err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/api/goals/%d", goalID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal %d: %w", goalID, err)
	}

	goal := resp.Result().(*wireGoal).toGoal()
	return &goal, nil
}

// Delete removes a goal.
func (s *GoalService) Delete(ctx context.Context, goalID int64) error {
	req := s.client.NewRequest()
	if _, err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/goals/%d", goalID), req); err != nil {
		return fmt.Errorf("failed to delete goal %d: %w", goalID, err)
	}
	return nil
}
