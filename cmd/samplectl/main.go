// samplectl is the operator CLI: schema, outbox replay, user roles, and
// offline helpers for the streak and SM-2 calculations.
package main

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sampleapps/internal/config"
	pkgconfig "sampleapps/pkg/config"
	"sampleapps/pkg/db"
	"sampleapps/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	env       string
	configDir string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "samplectl",
		Short:         "Operate the sampleapps backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.env, "env", pkgconfig.GetConfigEnv(), "config environment (CONFIG_ENV)")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", pkgconfig.GetEnv("CONFIG_DIR", "config"), "directory holding base.yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "development logging")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newOutboxCmd(opts),
		newUserCmd(opts),
		newStreakCmd(),
		newSM2Cmd(),
		newClassifyCmd(),
	)
	return cmd
}

// session holds what the database-backed commands share.
type session struct {
	cfg  *config.Config
	log  *zap.Logger
	pool *pgxpool.Pool
}

func (o *rootOptions) open() (*session, error) {
	cfg, err := config.Load(o.env, o.configDir)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger()
	if o.verbose {
		log = logger.NewDevelopment()
	}

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &session{cfg: cfg, log: log, pool: pool}, nil
}

func (s *session) Close() {
	s.pool.Close()
	_ = s.log.Sync()
}
