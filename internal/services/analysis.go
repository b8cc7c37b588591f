package services

import (
	"context"
	"fmt"
	"net/http"

	"trade-journal-go/internal/api"

	"go.uber.org/zap"
)

// PerformanceOverview is the server-computed summary of the user's trading
// results. It is displayed as-is; the client does no analytics of its own.
type PerformanceOverview struct {
	TotalTrades   int            `json:"total_trades"`
	WinCount      int            `json:"win_count"`
	LossCount     int            `json:"loss_count"`
	OpenCount     int            `json:"open_count"`
	WinRate       float64        `json:"win_rate"`
	AvgProfit     float64        `json:"avg_profit"`
	AvgLoss       float64        `json:"avg_loss"`
	AvgRiskReward float64        `json:"avg_risk_reward"`
	LargestProfit float64        `json:"largest_profit"`
	LargestLoss   float64        `json:"largest_loss"`
	TradingPeriod map[string]any `json:"trading_period"`
}

// AnalysisService maps the /api/analysis resource onto typed operations.
type AnalysisService struct {
	client *api.Client
	logger *zap.Logger
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(client *api.Client, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{client: client, logger: logger}
}

// Overview fetches the performance summary.
func (s *AnalysisService) Overview(ctx context.Context) (*PerformanceOverview, error) {
	req := s.client.NewRequest().SetResult(&PerformanceOverview{})

	resp, err := s.client.Do(ctx, http.MethodGet, "/api/analysis/overview", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance overview: %w", err)
	}

	return resp.Result().(*PerformanceOverview), nil
}
