package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"trade-journal-go/internal/api"

	"go.uber.org/zap"
)

// Direction is the position orientation of a trade.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Outcome is the server-recorded result of a trade. OPEN means the trade
// has not been closed yet.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeOpen Outcome = "OPEN"
)

// Status is derived from the outcome, never stored.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Trade is the client-facing trade shape. Optional numerics are pointers:
// nil means the server has no value for the field.
type Trade struct {
	ID               int64
	AccountID        int64
	CurrencyPair     string
	PositionSize     float64
	Direction        Direction
	EntryPrice       float64
	StopLoss         *float64
	TakeProfit       *float64
	DateOpen         time.Time
	DateClosed       *time.Time
	ExitPrice        *float64
	RiskReward       *float64
	Outcome          *Outcome
	ProfitAmount     *float64
	LossAmount       *float64
	ProfitPercentage *float64
	LossPercentage   *float64
	BalanceAfter     *float64
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// wireTrade is the server's snake_case representation.
type wireTrade struct {
	ID               int64      `json:"id"`
	AccountID        int64      `json:"account_id"`
	CurrencyPair     string     `json:"currency_pair"`
	PositionSize     float64    `json:"position_size"`
	Direction        Direction  `json:"direction"`
	EntryPrice       float64    `json:"entry_price"`
	StopLoss         *float64   `json:"stop_loss"`
	TakeProfit       *float64   `json:"take_profit"`
	DateOpen         time.Time  `json:"date_open"`
	DateClosed       *time.Time `json:"date_closed"`
	ExitPrice        *float64   `json:"exit_price"`
	RiskReward       *float64   `json:"risk_reward"`
	WinLoss          *Outcome   `json:"win_loss"`
	ProfitAmount     *float64   `json:"profit_amount"`
	LossAmount       *float64   `json:"loss_amount"`
	ProfitPercentage *float64   `json:"profit_percentage"`
	LossPercentage   *float64   `json:"loss_percentage"`
	BalanceAfter     *float64   `json:"balance_after"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// toTrade translates a wire record into the client shape and derives the
// open/closed status from the outcome. Translation is total: every wire
// field carries over.
func (w *wireTrade) toTrade() Trade {
	status := StatusClosed
	if w.WinLoss == nil || *w.WinLoss == OutcomeOpen {
		status = StatusOpen
	}
	return Trade{
		ID:               w.ID,
		AccountID:        w.AccountID,
		CurrencyPair:     w.CurrencyPair,
		PositionSize:     w.PositionSize,
		Direction:        w.Direction,
		EntryPrice:       w.EntryPrice,
		StopLoss:         w.StopLoss,
		TakeProfit:       w.TakeProfit,
		DateOpen:         w.DateOpen,
		DateClosed:       w.DateClosed,
		ExitPrice:        w.ExitPrice,
		RiskReward:       w.RiskReward,
		Outcome:          w.WinLoss,
		ProfitAmount:     w.ProfitAmount,
		LossAmount:       w.LossAmount,
		ProfitPercentage: w.ProfitPercentage,
		LossPercentage:   w.LossPercentage,
		BalanceAfter:     w.BalanceAfter,
		Status:           status,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

// TradeCreate is the payload for opening a trade. StopLoss and TakeProfit
// serialize as explicit null when unset so the server can tell "no value"
// from "not provided".
type TradeCreate struct {
	CurrencyPair string    `json:"currency_pair"`
	PositionSize float64   `json:"position_size"`
	Direction    Direction `json:"direction"`
	EntryPrice   float64   `json:"entry_price"`
	StopLoss     *float64  `json:"stop_loss"`
	TakeProfit   *float64  `json:"take_profit"`
	DateOpen     time.Time `json:"date_open"`
}

// Validate enforces the price-ordering invariant before anything is sent:
// for LONG, stop loss < entry < take profit; for SHORT the inequalities
// invert. Violations come back as a FieldError naming the offending field.
func (t *TradeCreate) Validate() error {
	if t.CurrencyPair == "" {
		return &FieldError{Field: "currency_pair", Message: "must not be empty"}
	}
	if t.PositionSize <= 0 {
		return &FieldError{Field: "position_size", Message: "must be greater than zero"}
	}
	if t.EntryPrice <= 0 {
		return &FieldError{Field: "entry_price", Message: "must be greater than zero"}
	}

	switch t.Direction {
	case DirectionLong:
		if t.StopLoss != nil && *t.StopLoss >= t.EntryPrice {
			return &FieldError{Field: "stop_loss", Message: "must be below the entry price for a LONG trade"}
		}
		if t.TakeProfit != nil && *t.TakeProfit <= t.EntryPrice {
			return &FieldError{Field: "take_profit", Message: "must be above the entry price for a LONG trade"}
		}
	case DirectionShort:
		if t.StopLoss != nil && *t.StopLoss <= t.EntryPrice {
			return &FieldError{Field: "stop_loss", Message: "must be above the entry price for a SHORT trade"}
		}
		if t.TakeProfit != nil && *t.TakeProfit >= t.EntryPrice {
			return &FieldError{Field: "take_profit", Message: "must be below the entry price for a SHORT trade"}
		}
	default:
		return &FieldError{Field: "direction", Message: "must be LONG or SHORT"}
	}
	return nil
}

// RiskReward computes the reward-to-risk ratio of the planned trade, or nil
// when a stop loss or take profit is missing or the stop sits on the wrong
// side of the entry. A LONG with entry 100, stop 90 and target 120 yields
// 2.0, i.e. a 1:2 trade.
func (t *TradeCreate) RiskReward() *float64 {
	return riskReward(t.Direction, t.EntryPrice, t.StopLoss, t.TakeProfit)
}

func riskReward(direction Direction, entry float64, stopLoss, takeProfit *float64) *float64 {
	if stopLoss == nil || takeProfit == nil {
		return nil
	}

	var risk, reward float64
	if direction == DirectionLong {
		risk = entry - *stopLoss
		reward = *takeProfit - entry
	} else {
		risk = *stopLoss - entry
		reward = entry - *takeProfit
	}

	if risk <= 0 {
		return nil
	}

	ratio := math.Round(reward/risk*100) / 100
	return &ratio
}

// TradeUpdate is a partial update. Nil fields are omitted entirely and left
// untouched by the server.
type TradeUpdate struct {
	CurrencyPair *string    `json:"currency_pair,omitempty"`
	PositionSize *float64   `json:"position_size,omitempty"`
	Direction    *Direction `json:"direction,omitempty"`
	EntryPrice   *float64   `json:"entry_price,omitempty"`
	StopLoss     *float64   `json:"stop_loss,omitempty"`
	TakeProfit   *float64   `json:"take_profit,omitempty"`
	DateOpen     *time.Time `json:"date_open,omitempty"`
}

// TradeClose is the payload for closing a trade.
type TradeClose struct {
	ExitPrice  float64   `json:"exit_price"`
	DateClosed time.Time `json:"date_closed"`
	Outcome    Outcome   `json:"win_loss"`
}

// Validate checks the close payload before it is sent.
func (t *TradeClose) Validate() error {
	if t.ExitPrice <= 0 {
		return &FieldError{Field: "exit_price", Message: "must be greater than zero"}
	}
	if t.Outcome != OutcomeWin && t.Outcome != OutcomeLoss {
		return &FieldError{Field: "win_loss", Message: "must be WIN or LOSS"}
	}
	return nil
}

// TradeService maps the /api/trades resource onto typed operations.
type TradeService struct {
	client *api.Client
	logger *zap.Logger
}

// NewTradeService creates a new trade service.
func NewTradeService(client *api.Client, logger *zap.Logger) *TradeService {
	return &TradeService{client: client, logger: logger}
}

// ListByAccount fetches all trades recorded against one account.
func (s *TradeService) ListByAccount(ctx context.Context, accountID int64) ([]Trade, error) {
	var wires []wireTrade
	req := s.client.NewRequest().SetResult(&wires)

	path := fmt.Sprintf("/api/trades/accounts/%d/trades", accountID)
	if _, err := s.client.Do(ctx, http.MethodGet, path, req); err != nil {
		return nil, fmt.Errorf("failed to list trades for account %d: %w", accountID, err)
	}

	trades := make([]Trade, 0, len(wires))
	for i := range wires {
		trades = append(trades, wires[i].toTrade())
	}
	return trades, nil
}

// ListAll fetches the trades of every account the user owns. The API has no
// cross-account endpoint, so this fans out over the account list and
// concatenates the results.
func (s *TradeService) ListAll(ctx context.Context) ([]Trade, error) {
	var accounts []wireAccount
	req := s.client.NewRequest().SetResult(&accounts)
	if _, err := s.client.Do(ctx, http.MethodGet, "/api/accounts", req); err != nil {
		return nil, fmt.Errorf("failed to list accounts for trade fan-out: %w", err)
	}

	var all []Trade
	for i := range accounts {
		trades, err := s.ListByAccount(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		all = append(all, trades...)
	}

	s.logger.Debug("Fetched trades across accounts",
		zap.Int("accounts", len(accounts)),
		zap.Int("trades", len(all)),
	)
	return all, nil
}

// Get fetches a single trade by id.
func (s *TradeService) Get(ctx context.Context, tradeID int64) (*Trade, error) {
	req := s.client.NewRequest().SetResult(&wireTrade{})

	resp, err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/api/trades/%d", tradeID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", tradeID, err)
	}

	trade := resp.Result().(*wireTrade).toTrade()
	return &trade, nil
}

// Create opens a new trade on the given account. The payload is validated
// locally first; invalid input never reaches the server.
func (s *TradeService) Create(ctx context.Context, accountID int64, payload TradeCreate) (*Trade, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireTrade{})

	path := fmt.Sprintf("/api/trades/accounts/%d/trades", accountID)
	resp, err := s.client.Do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	trade := resp.Result().(*wireTrade).toTrade()
	s.logger.Info("Opened trade",
		zap.Int64("trade_id", trade.ID),
		zap.String("pair", trade.CurrencyPair),
		zap.String("direction", string(trade.Direction)),
	)
	return &trade, nil
}

// Update applies a partial update to a trade.
func (s *TradeService) Update(ctx context.Context, tradeID int64, payload TradeUpdate) (*Trade, error) {
	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireTrade{})

	resp, err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/api/trades/%d", tradeID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to update trade %d: %w", tradeID, err)
	}

	trade := resp.Result().(*wireTrade).toTrade()
	return &trade, nil
}

// Close records the exit of a trade.
func (s *TradeService) Close(ctx context.Context, tradeID int64, payload TradeClose) (*Trade, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireTrade{})

	resp, err := s.client.Do(ctx, http.MethodPatch, fmt.Sprintf("/api/trades/%d/close", tradeID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to close trade %d: %w", tradeID, err)
	}

	trade := resp.Result().(*wireTrade).toTrade()
	s.logger.Info("Closed trade",
		zap.Int64("trade_id", trade.ID),
		zap.Float64("exit_price", payload.ExitPrice),
	)
	return &trade, nil
}

// Delete removes a trade.
func (s *TradeService) Delete(ctx context.Context, tradeID int64) error {
	req := s.client.NewRequest()
	if _, err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/trades/%d", tradeID), req); err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", tradeID, err)
	}
	return nil
}
