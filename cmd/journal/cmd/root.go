package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"trade-journal-go/internal/api"
	"trade-journal-go/internal/cache"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/services"
	"trade-journal-go/internal/session"
	"trade-journal-go/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Application state shared by the subcommands, wired once per invocation in
// initApp. Everything downstream receives its dependencies explicitly; there
// is no ambient credential state outside the session store.
var (
	cfgPath string

	cfg       config.Config
	log       *zap.Logger
	sessions  *session.FileStore
	client    *api.Client
	authSvc   *services.AuthService
	accounts  *services.AccountService
	trades    *services.TradeService
	goals     *services.GoalService
	analysis  *services.AnalysisService
	snapshots *cache.Store

	accountsView *store.Container[[]services.Account]
	tradesView   *store.Container[[]services.Trade]
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "A command-line client for a personal trading journal",
	Long: `Journal is a command-line client for a remote trading-journal API.

It lets you register and log in, manage trading accounts and deposits,
record and close trades, set periodic goals and review the server-computed
performance analysis. A session persists between invocations in
~/.tradejournal; list commands fall back to the last cached snapshot when
the server is unreachable.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

// Execute runs the command tree.
func Execute() error {
	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "directory containing config.yml")
}

func initApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	log, err = logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}

	sessions = session.NewFileStore(cfg.Session.Path, log)
	client = api.NewClient(&cfg.API, sessions, log)
	authSvc = services.NewAuthService(client, sessions, log)
	accounts = services.NewAccountService(client, log)
	trades = services.NewTradeService(client, log)
	goals = services.NewGoalService(client, log)
	analysis = services.NewAnalysisService(client, log)

	accountsView = store.New[[]services.Account]()
	tradesView = store.New[[]services.Trade]()

	if cfg.Cache.Enabled {
		snapshots, err = cache.Open(cfg.Cache.DSN)
		if err != nil {
			// The cache only serves offline fallbacks; losing it is not fatal.
			log.Warn("Snapshot cache unavailable", zap.Error(err))
			snapshots = nil
		}
	}

	return nil
}

// requireSession gates protected commands on a locally present session.
// Presence is an optimistic render-time check only; the server's 401 is the
// sole authority on whether the credential is still good.
func requireSession(cmd *cobra.Command, args []string) error {
	s := sessions.Current()
	if !s.Valid() || s.ID == 0 {
		return errors.New("not logged in, run 'journal login' first")
	}
	return nil
}

// userCacheKey scopes snapshots to the logged-in user, so a later login on
// the same machine never reads another user's rows. The session can be gone
// by the time a failed fetch falls back here (a failed refresh clears it),
// hence the ok return.
func userCacheKey() (string, bool) {
	s := sessions.Current()
	if !s.Valid() {
		return "", false
	}
	return strconv.FormatInt(s.ID, 10), true
}

// optionalFloat formats an optional numeric field for display.
func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
