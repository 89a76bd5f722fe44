// Command mcttrener runs MCT training sessions against a simulated GAD patient.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toradrage/mct-trener/internal/config"
	"github.com/toradrage/mct-trener/internal/logging"
	"github.com/toradrage/mct-trener/internal/paraphrase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
	"github.com/toradrage/mct-trener/internal/simulator"
	"github.com/toradrage/mct-trener/internal/trainer"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region root

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile  string
	dbPath   string
	logLevel string

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "mcttrener",
		Short:        "Practice metacognitive therapy on a simulated GAD patient",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "session database (overrides config and MCT_DB)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newSessionCmd(a),
		newTurnCmd(a),
		newPhase2Cmd(a),
		newPlayCmd(a),
		newReplayCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
		newRulesCmd(a),
		newParaphraseServerCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DB = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

// #endregion root

// #region wiring

func (a *app) rules() (rules.Config, error) {
	r, err := a.cfg.Rules()
	if err != nil {
		return rules.Config{}, fmt.Errorf("load rules: %w", err)
	}
	return r, nil
}

// openService opens the store and builds the trainer. The cleanup func closes both.
func (a *app) openService() (*trainer.Service, *session.Store, func(), error) {
	ruleCfg, err := a.rules()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := session.NewStore(a.cfg.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store %s: %w", a.cfg.DB, err)
	}
	p, closeP, err := a.cfg.Paraphraser()
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("paraphraser: %w", err)
	}
	pl := paraphrase.NewPolisher(p, nil, ruleCfg, a.cfg.Budget(), a.log)
	svc := trainer.New(store, simulator.New(ruleCfg, nil), pl, nil, a.log)
	cleanup := func() {
		if err := closeP(); err != nil {
			a.log.Warn("close paraphraser", zap.Error(err))
		}
		store.Close()
	}
	a.log.Debug("service ready",
		zap.String("db", a.cfg.DB),
		zap.String("rules", ruleCfg.Version),
		zap.String("paraphrase", a.cfg.Paraphrase.Mode),
	)
	return svc, store, cleanup, nil
}

// #endregion wiring
