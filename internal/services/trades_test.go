package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func f(v float64) *float64 { return &v }

func TestRiskReward(t *testing.T) {
	cases := []struct {
		name       string
		direction  Direction
		entry      float64
		stopLoss   *float64
		takeProfit *float64
		want       *float64
	}{
		{
			// reward (120-100) over risk (100-90)
			name: "Long", direction: DirectionLong,
			entry: 100, stopLoss: f(90), takeProfit: f(120),
			want: f(2.0),
		},
		{
			// reward (100-80) over risk (110-100)
			name: "Short", direction: DirectionShort,
			entry: 100, stopLoss: f(110), takeProfit: f(80),
			want: f(2.0),
		},
		{
			name: "MissingStopLoss", direction: DirectionLong,
			entry: 100, takeProfit: f(120),
			want: nil,
		},
		{
			name: "MissingTakeProfit", direction: DirectionLong,
			entry: 100, stopLoss: f(90),
			want: nil,
		},
		{
			name: "StopOnWrongSide", direction: DirectionLong,
			entry: 100, stopLoss: f(100), takeProfit: f(120),
			want: nil,
		},
		{
			name: "RoundedToTwoDecimals", direction: DirectionLong,
			entry: 100, stopLoss: f(97), takeProfit: f(110),
			want: f(3.33),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := TradeCreate{
				Direction:  tc.direction,
				EntryPrice: tc.entry,
				StopLoss:   tc.stopLoss,
				TakeProfit: tc.takeProfit,
			}
			got := payload.RiskReward()
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tc.want, *got, 1e-9)
			}
		})
	}
}

func TestTradeCreateValidate(t *testing.T) {
	valid := TradeCreate{
		CurrencyPair: "EURUSD",
		PositionSize: 1,
		Direction:    DirectionLong,
		EntryPrice:   100,
		StopLoss:     f(90),
		TakeProfit:   f(120),
		DateOpen:     time.Now(),
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("LongStopAboveEntry", func(t *testing.T) {
		payload := valid
		payload.StopLoss = f(100)

		err := payload.Validate()
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "stop_loss", fieldErr.Field)
	})

	t.Run("LongTargetBelowEntry", func(t *testing.T) {
		payload := valid
		payload.TakeProfit = f(99)

		err := payload.Validate()
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "take_profit", fieldErr.Field)
	})

	t.Run("ShortStopBelowEntry", func(t *testing.T) {
		payload := valid
		payload.Direction = DirectionShort
		payload.StopLoss = f(90)
		payload.TakeProfit = f(80)

		err := payload.Validate()
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "stop_loss", fieldErr.Field)
	})

	t.Run("UnknownDirection", func(t *testing.T) {
		payload := valid
		payload.Direction = "SIDEWAYS"

		err := payload.Validate()
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "direction", fieldErr.Field)
	})
}

func TestTradeCreateRejectedLocally(t *testing.T) {
	// A payload violating the price-ordering invariant must never reach
	// the server.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	client, _, _ := setupServices(t, handler)
	svc := NewTradeService(client, zap.NewNop())

	payload := TradeCreate{
		CurrencyPair: "EURUSD",
		PositionSize: 1,
		Direction:    DirectionLong,
		EntryPrice:   100,
		StopLoss:     f(105),
		DateOpen:     time.Now(),
	}
	_, err := svc.Create(context.Background(), 1, payload)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "stop_loss", fieldErr.Field)
}

func TestTradeCreateWire(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/trades/accounts/3/trades", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"EURUSD"`, string(body["currency_pair"]))
		// Unset optionals travel as explicit null, not omitted.
		require.Contains(t, body, "take_profit")
		assert.JSONEq(t, `null`, string(body["take_profit"]))

		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 42, "account_id": 3, "currency_pair": "EURUSD",
			"position_size": 1.5, "direction": "LONG", "entry_price": 1.1,
			"stop_loss": 1.05, "take_profit": nil,
			"date_open": "2026-08-01T10:00:00Z", "win_loss": "OPEN",
			"created_at": "2026-08-01T10:00:00Z", "updated_at": "2026-08-01T10:00:00Z",
		})
	})

	client, _, _ := setupServices(t, handler)
	svc := NewTradeService(client, zap.NewNop())

	trade, err := svc.Create(context.Background(), 3, TradeCreate{
		CurrencyPair: "EURUSD",
		PositionSize: 1.5,
		Direction:    DirectionLong,
		EntryPrice:   1.1,
		StopLoss:     f(1.05),
		DateOpen:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), trade.ID)
	assert.Equal(t, StatusOpen, trade.Status)
	assert.Nil(t, trade.TakeProfit)
}

func TestStatusDerivation(t *testing.T) {
	open := OutcomeOpen
	win := OutcomeWin

	cases := []struct {
		name    string
		winLoss *Outcome
		want    Status
	}{
		{"NilOutcomeIsOpen", nil, StatusOpen},
		{"OpenOutcomeIsOpen", &open, StatusOpen},
		{"WinIsClosed", &win, StatusClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := wireTrade{WinLoss: tc.winLoss}
			assert.Equal(t, tc.want, w.toTrade().Status)
		})
	}
}

func TestTradeClose(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/trades/42/close", r.URL.Path)
			require.Equal(t, http.MethodPatch, r.Method)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "WIN", body["win_loss"])

			writeJSON(w, http.StatusOK, map[string]any{
				"id": 42, "account_id": 3, "currency_pair": "EURUSD",
				"position_size": 1.5, "direction": "LONG", "entry_price": 1.1,
				"exit_price": 1.2, "win_loss": "WIN",
				"date_open": "2026-08-01T10:00:00Z", "date_closed": "2026-08-02T10:00:00Z",
				"created_at": "2026-08-01T10:00:00Z", "updated_at": "2026-08-02T10:00:00Z",
			})
		})

		client, _, _ := setupServices(t, handler)
		svc := NewTradeService(client, zap.NewNop())

		trade, err := svc.Close(context.Background(), 42, TradeClose{
			ExitPrice:  1.2,
			DateClosed: time.Now(),
			Outcome:    OutcomeWin,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, trade.Status)
		require.NotNil(t, trade.ExitPrice)
		assert.Equal(t, 1.2, *trade.ExitPrice)
	})

	t.Run("OpenIsNotAValidCloseOutcome", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("invalid close payload must not be sent")
		})

		client, _, _ := setupServices(t, handler)
		svc := NewTradeService(client, zap.NewNop())

		_, err := svc.Close(context.Background(), 42, TradeClose{
			ExitPrice:  1.2,
			DateClosed: time.Now(),
			Outcome:    OutcomeOpen,
		})
		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "win_loss", fieldErr.Field)
	})
}

func TestListAllFansOutOverAccounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "user_id": 1, "name": "Main", "currency": "USD"},
			{"id": 2, "user_id": 1, "name": "Swing", "currency": "EUR"},
		})
	})
	mux.HandleFunc("/api/trades/accounts/1/trades", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 10, "account_id": 1, "currency_pair": "EURUSD", "direction": "LONG",
				"position_size": 1, "entry_price": 1.1, "win_loss": "OPEN",
				"date_open":  "2026-08-01T10:00:00Z",
				"created_at": "2026-08-01T10:00:00Z", "updated_at": "2026-08-01T10:00:00Z"},
		})
	})
	mux.HandleFunc("/api/trades/accounts/2/trades", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 20, "account_id": 2, "currency_pair": "GBPUSD", "direction": "SHORT",
				"position_size": 2, "entry_price": 1.3, "win_loss": "WIN",
				"date_open":  "2026-07-01T10:00:00Z",
				"created_at": "2026-07-01T10:00:00Z", "updated_at": "2026-07-02T10:00:00Z"},
		})
	})

	client, _, _ := setupServices(t, mux)
	svc := NewTradeService(client, zap.NewNop())

	trades, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, int64(10), trades[0].ID)
	assert.Equal(t, StatusOpen, trades[0].Status)
	assert.Equal(t, int64(20), trades[1].ID)
	assert.Equal(t, StatusClosed, trades[1].Status)
}
