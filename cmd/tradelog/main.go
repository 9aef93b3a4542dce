package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"
	"tradelog/internal/broker/ibgw"
	"tradelog/internal/config"
	"tradelog/internal/engine"
	"tradelog/internal/ledger"
	"tradelog/internal/logger"
	"tradelog/internal/metrics"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "1.0.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tradelog [flags] [TradeLogIB.csv]",
	Short: "IB options trade log",
	Long: `tradelog polls an Interactive Brokers gateway for executions, keeps the
option fills that have a commission report and writes them, sorted and
deduplicated, to a CSV trade log.`,
	Example: `  tradelog
  tradelog TradeLogIB.csv
  tradelog --daemon --port 7496 --console-log-level info`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			viper.Set("ledger.output_file", args[0])
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		return run(cfg)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Config file (default: configs/config.yaml if present).")
	flags.String("host", "127.0.0.1", "Gateway host.")
	flags.Int("port", 4001, "Gateway port.")
	flags.Int("client-id", 0, "Gateway client id.")
	flags.String("transport", config.TransportWS, "Gateway transport: ws or rest.")
	flags.StringP("output", "o", "TradeLogIB.csv", "Trade log CSV file.")
	flags.Bool("apply-multiplier", false, "Multiply total cost by the contract multiplier.")
	flags.String("cost-sign", "raw", "Total cost sign: raw or debit_negative.")
	flags.String("source-zone", "UTC", "Zone of execution times without an explicit zone.")
	flags.Bool("utc", false, "Keep ledger times in UTC instead of the local zone.")
	flags.Bool("daemon", false, "Keep polling until interrupted.")
	flags.String("console-log-level", "warn", "Console log level: debug, info, warn, error or off.")
	flags.String("log-level", "off", "Log file level: debug, info, warn, error or off.")
	flags.String("log-file", "TradeLogIB.log", "Log file.")
	flags.String("metrics-addr", "", "Serve /health and /metrics on this address.")

	if err := bindFlags(viper.GetViper(), flags); err != nil {
		panic(err)
	}
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"gateway.host":              "host",
	"gateway.port":              "port",
	"gateway.client_id":         "client-id",
	"gateway.transport":         "transport",
	"ledger.output_file":        "output",
	"cost.apply_multiplier":     "apply-multiplier",
	"cost.sign":                 "cost-sign",
	"time.source_zone":          "source-zone",
	"time.utc":                  "utc",
	"runtime.daemon":            "daemon",
	"runtime.log.console_level": "console-log-level",
	"runtime.log.level":         "log-level",
	"runtime.log.file":          "log-file",
	"metrics.addr":              "metrics-addr",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("Неизвестный флаг %s для %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func run(cfg *config.Config) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log := logger.New(logger.Config{
		ConsoleLevel: cfg.Runtime.Log.ConsoleLevel,
		Level:        cfg.Runtime.Log.Level,
		Format:       cfg.Runtime.Log.Format,
		Output:       cfg.Runtime.Log.File,
		MaxSize:      cfg.Runtime.Log.MaxSize,
		MaxBackups:   cfg.Runtime.Log.MaxBackups,
		MaxAge:       cfg.Runtime.Log.MaxAge,
		Compress:     cfg.Runtime.Log.Compress,
	})
	defer log.Close()

	log.WithFields(map[string]interface{}{
		"gateway":   cfg.GatewayAddr(),
		"transport": cfg.Gateway.Transport,
		"output":    cfg.Ledger.OutputFile,
		"daemon":    cfg.Runtime.Daemon,
	}).Info("Журнал сделок запущен.")

	session, err := ibgw.New(cfg, log)
	if err != nil {
		return err
	}

	book := ledger.New(ledger.NewFile(cfg.Ledger.OutputFile))
	eng := engine.New(cfg, session, book, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, eng.Status, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Error("HTTP метрики завершились с ошибкой.")
			}
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- eng.Start(ctx)
	}()

	select {
	case err = <-done:
	case <-sigCh:
		cancel()
		err = <-done
	}

	if err != nil {
		log.WithError(err).Error("\"Двигатель\" завершился с ошибкой.")
		return err
	}

	log.Info("Журнал сделок остановлен.")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
