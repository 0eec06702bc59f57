package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/builtin"
	"github.com/kasuganosora/aggexec/pkg/config"
	"github.com/kasuganosora/aggexec/pkg/executor"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/parser"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	driver     string
	dsn        string
	collation  string
	execute    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "aggexec",
	Short: "Grouped aggregate evaluation with user-defined aggregates",
	Long: `aggexec runs SELECT ... GROUP BY queries whose aggregates are user-defined
functions against a table in SQLite, MySQL or PostgreSQL.`,
	SilenceUsage: true,
	RunE:         runQuery,
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the available aggregate functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return writeFunctionsJSON(cmd.OutOrStdout(), builtin.GetGlobalRegistry().List())
		}
		renderFunctions(cmd.OutOrStdout(), builtin.GetGlobalRegistry().List())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search config.json, $AGGEXEC_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	rootCmd.Flags().StringVar(&driver, "driver", "", "Database driver, overrides the config (sqlite, mysql, postgres)")
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "Data source name, overrides the config")
	rootCmd.Flags().StringVar(&collation, "collation", "", "Collation for string group keys, overrides the config")
	rootCmd.Flags().StringVarP(&execute, "execute", "e", "", "Aggregate query to run")
	rootCmd.AddCommand(functionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath == "" {
		cfg = config.LoadConfigOrDefault()
	} else {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if driver != "" {
		cfg.Handle.Driver = driver
	}
	if dsn != "" {
		cfg.Handle.DSN = dsn
	}
	if collation != "" {
		cfg.Aggregate.Collation = collation
	}
	return cfg, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if execute == "" {
		return errors.New("no query given, use --execute")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logutil.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logutil.SetBgLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := sqlhandle.Open(ctx, cfg.Handle, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	runtime := executor.NewRuntime()
	qctx, queryID, finish := runtime.Begin(ctx, execute)
	defer finish()
	logger = logger.With(zap.String("query", queryID))

	table, err := parser.TableName(execute)
	if err != nil {
		return err
	}
	info, err := executor.DescribeTable(qctx, conn, table)
	if err != nil {
		return err
	}

	b := &parser.Builder{
		Lookup:    builtin.GetGlobalRegistry().Lookup,
		Columns:   info.Columns,
		Collation: cfg.Aggregate.Collation,
		Logger:    logger,
	}
	plan, err := b.Build(execute)
	if err != nil {
		return err
	}
	if err := plan.Prepare(expression.NewBindContext(conn, logger)); err != nil {
		return err
	}

	runtime.UpdateStatus(queryID, "scanning", 0)
	scan := &executor.TableScan{
		Handle:   conn,
		Table:    plan.Table,
		Columns:  info.Columns,
		Progress: func(rows int64) { runtime.UpdateStatus(queryID, "", rows) },
	}
	input, err := scan.Execute(qctx)
	if err != nil {
		return err
	}

	runtime.UpdateStatus(queryID, "aggregating", input.Total)
	res, err := plan.Execute(qctx, input)
	if err != nil {
		return err
	}
	logger.Info("query finished",
		zap.String("table", plan.Table),
		zap.Int64("input", input.Total),
		zap.Int64("groups", res.Total))

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	renderTable(cmd.OutOrStdout(), res)
	return nil
}
