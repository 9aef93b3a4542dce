package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"
	"tradelog/internal/logger"
	"tradelog/internal/trade"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	TransportWS   = "ws"
	TransportREST = "rest"
)

type Config struct {
	Gateway GatewayConfig
	Ledger  LedgerConfig
	Cost    CostConfig
	Time    TimeConfig
	Runtime RuntimeConfig
	Metrics MetricsConfig
}

type GatewayConfig struct {
	Host            string
	Port            int
	ClientID        int
	Transport       string
	ApiKey          string
	Secret          string
	ReadyTimeout    time.Duration
	SnapshotTimeout time.Duration
}

type LedgerConfig struct {
	OutputFile string
}

type CostConfig struct {
	ApplyMultiplier bool
	Sign            trade.CostSign
	RegFees         decimal.Decimal
}

type TimeConfig struct {
	UTC        bool
	SourceZone *time.Location
	LocalZone  *time.Location
}

type RuntimeConfig struct {
	Daemon         bool
	PollInterval   time.Duration
	ReconnectAfter time.Duration
	Log            LogConfig
}

type LogConfig struct {
	ConsoleLevel string
	Level        string
	Format       string
	File         string
	MaxSize      int
	MaxBackups   int
	MaxAge       int
	Compress     bool
}

type MetricsConfig struct {
	Addr string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("gateway.host", "127.0.0.1")
	v.SetDefault("gateway.port", 4001)
	v.SetDefault("gateway.client_id", 0)
	v.SetDefault("gateway.transport", TransportWS)
	v.SetDefault("gateway.ready_timeout", 10*time.Second)
	v.SetDefault("gateway.snapshot_timeout", 30*time.Second)

	v.SetDefault("ledger.output_file", "TradeLogIB.csv")

	v.SetDefault("cost.apply_multiplier", false)
	v.SetDefault("cost.sign", string(trade.CostSignRaw))
	v.SetDefault("cost.reg_fees", 0.0)

	v.SetDefault("time.utc", false)
	v.SetDefault("time.source_zone", "UTC")
	v.SetDefault("time.local_zone", "Local")

	v.SetDefault("runtime.daemon", false)
	v.SetDefault("runtime.poll_interval", time.Second)
	v.SetDefault("runtime.reconnect_after", 60*time.Second)
	v.SetDefault("runtime.log.console_level", "warn")
	v.SetDefault("runtime.log.level", "off")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.log.file", "TradeLogIB.log")
	v.SetDefault("runtime.log.max_size", 10)
	v.SetDefault("runtime.log.max_backups", 3)
	v.SetDefault("runtime.log.max_age", 28)
	v.SetDefault("runtime.log.compress", false)

	v.SetDefault("metrics.addr", "")
}

// Load reads configs/config.yaml (or configFile), .env and TRADELOG_* variables
// into the global viper instance, on top of whatever flags were bound to it.
func Load(configFile string) (*Config, error) {
	v := viper.GetViper()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Не удалось прочитать .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix("TRADELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Не удалось прочитать конфигурацию: %w", err)
		}
	}

	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Gateway = GatewayConfig{
		Host:            v.GetString("gateway.host"),
		Port:            v.GetInt("gateway.port"),
		ClientID:        v.GetInt("gateway.client_id"),
		Transport:       strings.ToLower(v.GetString("gateway.transport")),
		ApiKey:          envSub(v, "gateway.api_key"),
		Secret:          envSub(v, "gateway.secret"),
		ReadyTimeout:    v.GetDuration("gateway.ready_timeout"),
		SnapshotTimeout: v.GetDuration("gateway.snapshot_timeout"),
	}

	cfg.Ledger = LedgerConfig{
		OutputFile: v.GetString("ledger.output_file"),
	}

	sign, err := trade.ParseCostSign(v.GetString("cost.sign"))
	if err != nil {
		return nil, err
	}
	cfg.Cost = CostConfig{
		ApplyMultiplier: v.GetBool("cost.apply_multiplier"),
		Sign:            sign,
		RegFees:         decimal.NewFromFloat(v.GetFloat64("cost.reg_fees")),
	}

	source, err := loadZone(v.GetString("time.source_zone"))
	if err != nil {
		return nil, err
	}
	local, err := loadZone(v.GetString("time.local_zone"))
	if err != nil {
		return nil, err
	}
	cfg.Time = TimeConfig{
		UTC:        v.GetBool("time.utc"),
		SourceZone: source,
		LocalZone:  local,
	}

	cfg.Runtime = RuntimeConfig{
		Daemon:         v.GetBool("runtime.daemon"),
		PollInterval:   v.GetDuration("runtime.poll_interval"),
		ReconnectAfter: v.GetDuration("runtime.reconnect_after"),
		Log: LogConfig{
			ConsoleLevel: v.GetString("runtime.log.console_level"),
			Level:        v.GetString("runtime.log.level"),
			Format:       v.GetString("runtime.log.format"),
			File:         v.GetString("runtime.log.file"),
			MaxSize:      v.GetInt("runtime.log.max_size"),
			MaxBackups:   v.GetInt("runtime.log.max_backups"),
			MaxAge:       v.GetInt("runtime.log.max_age"),
			Compress:     v.GetBool("runtime.log.compress"),
		},
	}

	cfg.Metrics = MetricsConfig{
		Addr: v.GetString("metrics.addr"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Gateway.Transport {
	case TransportWS, TransportREST:
	default:
		return fmt.Errorf("Некорректный транспорт шлюза: %s", c.Gateway.Transport)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("Некорректный порт шлюза: %d", c.Gateway.Port)
	}
	if c.Gateway.ReadyTimeout <= 0 || c.Gateway.SnapshotTimeout <= 0 {
		return fmt.Errorf("Таймауты шлюза должны быть положительными.")
	}
	if c.Ledger.OutputFile == "" {
		return fmt.Errorf("Не задан файл журнала сделок.")
	}
	for _, lvl := range []string{c.Runtime.Log.ConsoleLevel, c.Runtime.Log.Level} {
		if !logger.ValidLevel(lvl) {
			return fmt.Errorf("Некорректный уровень логирования: %s", lvl)
		}
	}
	if c.Runtime.PollInterval <= 0 || c.Runtime.ReconnectAfter <= 0 {
		return fmt.Errorf("Интервалы опроса и переподключения должны быть положительными.")
	}
	return nil
}

// DisplayZone is the zone ledger dates and keys are rendered in.
func (c *Config) DisplayZone() *time.Location {
	if c.Time.UTC {
		return time.UTC
	}
	return c.Time.LocalZone
}

func (c *Config) GatewayAddr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}

func loadZone(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("Неизвестный часовой пояс %q: %w", name, err)
	}
	return loc, nil
}

var envRe = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envRe.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
