package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LedgerConfig carries operational settings that may change without a
// restart.
type LedgerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcileInterval"`
	AtomicWrites      bool          `mapstructure:"atomicWrites"`
	DefaultPageSize   int           `mapstructure:"defaultPageSize"`
	UnitSizes         []string      `mapstructure:"unitSizes"`
	LateFee           LateFeeConfig `mapstructure:"lateFee"`
}

type LateFeeConfig struct {
	Amount    decimal.Decimal `mapstructure:"amount"`
	GraceDays int             `mapstructure:"graceDays"`
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		ReconcileInterval: time.Hour,
		AtomicWrites:      true,
		DefaultPageSize:   50,
		UnitSizes:         []string{"5x5", "5x10", "10x10", "10x15", "10x20", "15x15", "15x20"},
		LateFee: LateFeeConfig{
			Amount:    decimal.NewFromInt(25),
			GraceDays: 5,
		},
	}
}

// AllowsUnitSize reports whether size is one of the configured unit sizes.
func (c LedgerConfig) AllowsUnitSize(size string) bool {
	size = strings.TrimSpace(size)
	for _, allowed := range c.UnitSizes {
		if strings.EqualFold(allowed, size) {
			return true
		}
	}
	return false
}

type LedgerConfigHolder struct {
	current atomic.Value // holds LedgerConfig
}

var defaultLedgerConfigPaths = []string{
	"/var/lib/storagedesk/config",
	"/etc/storagedesk",
	".",
}

// NewLedgerConfigHolder loads ledger.yml and keeps watching it for changes.
func NewLedgerConfigHolder(log *zap.Logger) (*LedgerConfigHolder, error) {
	return newLedgerConfigHolder(defaultLedgerConfigPaths, log)
}

// NewStaticLedgerConfigHolder returns a holder that never reloads.
func NewStaticLedgerConfigHolder(cfg LedgerConfig) *LedgerConfigHolder {
	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func newLedgerConfigHolder(paths []string, log *zap.Logger) (*LedgerConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ledger.config")

	v := viper.New()
	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("STORAGEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerConfig()
	v.SetDefault("ledger.reconcileInterval", defaults.ReconcileInterval)
	v.SetDefault("ledger.atomicWrites", defaults.AtomicWrites)
	v.SetDefault("ledger.defaultPageSize", defaults.DefaultPageSize)
	v.SetDefault("ledger.unitSizes", defaults.UnitSizes)
	v.SetDefault("ledger.lateFee.amount", defaults.LateFee.Amount.String())
	v.SetDefault("ledger.lateFee.graceDays", defaults.LateFee.GraceDays)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeLedgerConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)

	if !fileFound {
		log.Info("ledger config file not found, using defaults")
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeLedgerConfig(v)
		if err != nil {
			log.Warn("ledger config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("ledger config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *LedgerConfigHolder) Get() LedgerConfig {
	return h.current.Load().(LedgerConfig)
}

func decodeLedgerConfig(v *viper.Viper) (LedgerConfig, error) {
	var file struct {
		Ledger LedgerConfig `mapstructure:"ledger"`
	}
	// Unmarshal merges defaults per leaf key; UnmarshalKey would not.
	if err := v.Unmarshal(&file, viper.DecodeHook(ledgerDecodeHook)); err != nil {
		return LedgerConfig{}, err
	}
	if err := validateLedgerConfig(file.Ledger); err != nil {
		return LedgerConfig{}, err
	}
	return file.Ledger, nil
}

// ledgerDecodeHook keeps viper's duration and slice hooks and reads money
// amounts from YAML numbers or strings without a float round trip.
var ledgerDecodeHook = mapstructure.ComposeDecodeHookFunc(
	decodeDecimal,
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

func decodeDecimal(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case float64:
		// YAML parses 12.50 as a float; its shortest form is what was written.
		return decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return data, nil
}

func validateLedgerConfig(cfg LedgerConfig) error {
	if cfg.ReconcileInterval <= 0 {
		return errors.New("ledger.reconcileInterval must be positive")
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > pagination.MaxPageSize {
		return fmt.Errorf("ledger.defaultPageSize must be within 1..%d, got %d", pagination.MaxPageSize, cfg.DefaultPageSize)
	}
	if len(cfg.UnitSizes) == 0 {
		return errors.New("ledger.unitSizes cannot be empty")
	}
	if cfg.LateFee.Amount.IsNegative() {
		return errors.New("ledger.lateFee.amount cannot be negative")
	}
	if cfg.LateFee.GraceDays < 0 {
		return errors.New("ledger.lateFee.graceDays cannot be negative")
	}
	return nil
}
