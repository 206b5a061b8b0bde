package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/ciyi/internal/catalog"
	"github.com/robalobadob/ciyi/internal/command"
	"github.com/robalobadob/ciyi/internal/config"
	"github.com/robalobadob/ciyi/internal/daily"
	"github.com/robalobadob/ciyi/internal/game"
	"github.com/robalobadob/ciyi/internal/httpserver"
	"github.com/robalobadob/ciyi/internal/store"
	"github.com/robalobadob/ciyi/internal/words"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateway HTTP server (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := words.Load(cfg.AnswersFile, cfg.AllowedFile)
	if err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	cal, err := daily.NewCalendar(cfg.Timezone)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cat := catalog.NewHTTP(cfg.CatalogURL, cfg.CatalogTimeout)
	eng := game.NewEngine(pool, cat, st, st, cal)
	dispatch := command.NewDispatcher(eng, command.Options{
		AtReply:      cfg.AtReply,
		QuoteReply:   cfg.QuoteReply,
		PassiveGuess: cfg.PassiveGuess,
		MaxHistory:   int(cfg.MaxHistory),
		MaxRank:      int(cfg.MaxRank),
	})
	srv := httpserver.New(eng, dispatch, httpserver.Options{
		GatewaySecret: cfg.GatewaySecret,
		RatePerSec:    cfg.RatePerSec,
		RateBurst:     cfg.RateBurst,
		Timeout:       cfg.CatalogTimeout + 5*time.Second,
	})

	if cfg.GatewaySecret == "" {
		log.Warn().Msg("CIYI_GATEWAY_SECRET is empty; /v1 is unauthenticated")
	}
	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.Store).
		Str("zone", cal.Location().String()).
		Msg("starting ciyi")
	return srv.Start(":" + cfg.Port)
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store == "memory" {
		log.Warn().Msg("using in-memory store; progress is lost on restart")
		return store.NewMemoryStore(), nil
	}
	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := store.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := store.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.DBPath)
			return nil
		},
	}
}

func newWordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "words",
		Short: "Print word list statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := words.Load(cfg.AnswersFile, cfg.AllowedFile)
			if err != nil {
				return err
			}
			a, g := pool.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "answers: %d\nallowed: %d\n", a, g)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		bot string
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a gateway bearer token for a messaging adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := httpserver.SignGatewayToken(cfg.GatewaySecret, bot, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&bot, "bot", "", "adapter name stored in the bot claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (0 = no expiry)")
	_ = cmd.MarkFlagRequired("bot")
	return cmd
}
