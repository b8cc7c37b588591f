package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJournal is a minimal in-memory rendition of the journal API, enough
// to walk the register → login → create-account flow end to end.
type fakeJournal struct {
	t        *testing.T
	password string
	accounts []map[string]any
	nextID   int64
}

func (f *fakeJournal) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.password = body["password"]
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 1, "username": body["username"], "email": body["email"],
			"access_token": "tok-register", "token_type": "bearer",
		})
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		if r.PostFormValue("password") != f.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 1, "username": "alice", "email": r.PostFormValue("username"),
			"access_token": "tok-login", "token_type": "bearer",
		})
	})

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.nextID++
			account := map[string]any{
				"id": f.nextID, "user_id": 1,
				"name": body["name"], "currency": body["currency"],
				"initial_balance": body["initial_balance"],
				"current_balance": body["initial_balance"],
				"created_at":      "2026-08-01T00:00:00Z",
				"updated_at":      "2026-08-01T00:00:00Z",
			}
			f.accounts = append(f.accounts, account)
			writeJSON(w, http.StatusCreated, account)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, f.accounts)
		}
	})

	return mux
}

func TestRegisterLoginAccountScenario(t *testing.T) {
	fake := &fakeJournal{t: t}
	client, sessions, _ := setupServices(t, fake.handler())

	authSvc := NewAuthService(client, sessions, zap.NewNop())
	accountSvc := NewAccountService(client, zap.NewNop())

	// Registration creates the identity and logs in.
	sess, err := authSvc.Register(context.Background(), "alice", "alice@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	require.NotNil(t, sessions.Current())

	// A wrong password is an authorization failure and leaves no session.
	require.NoError(t, authSvc.Logout(context.Background()))
	_, err = authSvc.Login(context.Background(), "alice@x.com", "wrongpw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, sessions.Current())

	// Correct login restores the session.
	_, err = authSvc.Login(context.Background(), "alice@x.com", "pw123456")
	require.NoError(t, err)

	// A created account appears in the next list fetch with its balance.
	created, err := accountSvc.Create(context.Background(), AccountCreate{
		Name: "Main", Currency: "USD", InitialBalance: 1000,
	})
	require.NoError(t, err)

	accounts, err := accountSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, created.ID, accounts[0].ID)
	assert.Equal(t, "Main", accounts[0].Name)
	assert.Equal(t, 1000.0, accounts[0].CurrentBalance)
}
