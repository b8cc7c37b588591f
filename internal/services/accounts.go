package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade-journal-go/internal/api"

	"go.uber.org/zap"
)

// Account is the client-facing account shape.
type Account struct {
	ID             int64
	UserID         int64
	Name           string
	Currency       string
	Broker         string
	AccountType    string
	Description    string
	InitialBalance float64
	CurrentBalance float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// wireAccount is the server's snake_case representation.
type wireAccount struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	Broker         string    `json:"broker"`
	AccountType    string    `json:"account_type"`
	Description    string    `json:"description"`
	InitialBalance float64   `json:"initial_balance"`
	CurrentBalance float64   `json:"current_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// toAccount translates a wire record into the client shape. Every field
// carries over; translation never drops data.
func (w *wireAccount) toAccount() Account {
	return Account{
		ID:             w.ID,
		UserID:         w.UserID,
		Name:           w.Name,
		Currency:       w.Currency,
		Broker:         w.Broker,
		AccountType:    w.AccountType,
		Description:    w.Description,
		InitialBalance: w.InitialBalance,
		CurrentBalance: w.CurrentBalance,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// AccountCreate is the payload for creating an account.
type AccountCreate struct {
	Name           string  `json:"name"`
	Currency       string  `json:"currency"`
	InitialBalance float64 `json:"initial_balance"`
	Broker         string  `json:"broker,omitempty"`
	AccountType    string  `json:"account_type,omitempty"`
	Description    string  `json:"description,omitempty"`
}

// Validate checks the payload before it is sent anywhere.
func (a *AccountCreate) Validate() error {
	if a.Name == "" {
		return &FieldError{Field: "name", Message: "must not be empty"}
	}
	if len(a.Currency) < 2 {
		return &FieldError{Field: "currency", Message: "must be a currency code"}
	}
	if a.InitialBalance <= 0 {
		return &FieldError{Field: "initial_balance", Message: "must be greater than zero"}
	}
	return nil
}

// AccountUpdate is a partial update; nil fields are left untouched by the
// server.
type AccountUpdate struct {
	Name     *string `json:"name,omitempty"`
	Currency *string `json:"currency,omitempty"`
}

// Deposit is the client-facing deposit shape.
type Deposit struct {
	ID        int64
	AccountID int64
	Amount    float64
	Date      time.Time
	Notes     string
}

type wireDeposit struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes"`
}

func (w *wireDeposit) toDeposit() Deposit {
	return Deposit{
		ID:        w.ID,
		AccountID: w.AccountID,
		Amount:    w.Amount,
		Date:      w.Date,
		Notes:     w.Notes,
	}
}

// DepositCreate is the payload for recording a deposit.
type DepositCreate struct {
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes,omitempty"`
}

// AccountService maps the /api/accounts resource onto typed operations.
type AccountService struct {
	client *api.Client
	logger *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(client *api.Client, logger *zap.Logger) *AccountService {
	return &AccountService{client: client, logger: logger}
}

// List fetches all accounts owned by the current user.
func (s *AccountService) List(ctx context.Context) ([]Account, error) {
	var wires []wireAccount
	req := s.client.NewRequest().SetResult(&wires)

	if _, err := s.client.Do(ctx, http.MethodGet, "/api/accounts", req); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]Account, 0, len(wires))
	for i := range wires {
		accounts = append(accounts, wires[i].toAccount())
	}
	return accounts, nil
}

// Get fetches a single account by id.
func (s *AccountService) Get(ctx context.Context, accountID int64) (*Account, error) {
	req := s.client.NewRequest().SetResult(&wireAccount{})

	resp, err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}

	account := resp.Result().(*wireAccount).toAccount()
	return &account, nil
}

// Create creates a new trading account.
func (s *AccountService) Create(ctx context.Context, payload AccountCreate) (*Account, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireAccount{})

	resp, err := s.client.Do(ctx, http.MethodPost, "/api/accounts", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	account := resp.Result().(*wireAccount).toAccount()
	s.logger.Info("Created account",
		zap.Int64("account_id", account.ID),
		zap.String("name", account.Name),
	)
	return &account, nil
}

// Update applies a partial update to an account.
func (s *AccountService) Update(ctx context.Context, accountID int64, payload AccountUpdate) (*Account, error) {
	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireAccount{})

	resp, err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/api/accounts/%d", accountID), req)
	if err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", accountID, err)
	}

	account := resp.Result().(*wireAccount).toAccount()
	return &account, nil
}

// Delete removes an account.
func (s *AccountService) Delete(ctx context.Context, accountID int64) error {
	req := s.client.NewRequest()
	if _, err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", accountID), req); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", accountID, err)
	}
	return nil
}

// Deposits fetches the deposit history of an account.
func (s *AccountService) Deposits(ctx context.Context, accountID int64) ([]Deposit, error) {
	var wires []wireDeposit
	req := s.client.NewRequest().SetResult(&wires)

	path := fmt.Sprintf("/api/accounts/%d/deposits", accountID)
	if _, err := s.client.Do(ctx, http.MethodGet, path, req); err != nil {
		return nil, fmt.Errorf("failed to list deposits for account %d: %w", accountID, err)
	}

	deposits := make([]Deposit, 0, len(wires))
	for i := range wires {
		deposits = append(deposits, wires[i].toDeposit())
	}
	return deposits, nil
}

// CreateDeposit records a deposit into an account.
func (s *AccountService) CreateDeposit(ctx context.Context, accountID int64, payload DepositCreate) (*Deposit, error) {
	if payload.Amount <= 0 {
		return nil, &FieldError{Field: "amount", Message: "must be greater than zero"}
	}

	req := s.client.NewRequest().
		SetBody(payload).
		SetResult(&wireDeposit{})

	path := fmt.Sprintf("/api/accounts/%d/deposits", accountID)
	resp, err := s.client.Do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	deposit := resp.Result().(*wireDeposit).toDeposit()
	return &deposit, nil
}
