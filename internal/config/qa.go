package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// QAConfig tunes the KPI aggregation defaults.
type QAConfig struct {
	TempThreshold     float64 `mapstructure:"tempThreshold"`
	DefaultWindowDays int     `mapstructure:"defaultWindowDays"`
}

func DefaultQAConfig() QAConfig {
	return QAConfig{
		TempThreshold:     8,
		DefaultWindowDays: 30,
	}
}

// DefaultWindow is the lookback used when a KPI query omits "from".
func (c QAConfig) DefaultWindow() time.Duration {
	return time.Duration(c.DefaultWindowDays) * 24 * time.Hour
}

type QAConfigHolder struct {
	current atomic.Value // holds QAConfig
}

// NewStaticQAConfigHolder returns a holder that never reloads.
func NewStaticQAConfigHolder(cfg QAConfig) *QAConfigHolder {
	holder := &QAConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewQAConfigHolder(cfg Config) (*QAConfigHolder, error) {
	v := viper.New()

	if path := strings.TrimSpace(cfg.QAConfigPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("qa")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/agrilink")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AGRILINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultQAConfig()
	v.SetDefault("qa.tempThreshold", defaults.TempThreshold)
	v.SetDefault("qa.defaultWindowDays", defaults.DefaultWindowDays)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var qa QAConfig
	if err := v.UnmarshalKey("qa", &qa); err != nil {
		return nil, err
	}
	if err := validateQAConfig(qa); err != nil {
		return nil, err
	}

	holder := &QAConfigHolder{}
	holder.current.Store(qa)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated QAConfig
			if err := v.UnmarshalKey("qa", &updated); err != nil {
				log.Printf("[qa-config] reload failed: %v", err)
				return
			}
			if err := validateQAConfig(updated); err != nil {
				log.Printf("[qa-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[qa-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *QAConfigHolder) Get() QAConfig {
	if h == nil {
		return DefaultQAConfig()
	}
	return h.current.Load().(QAConfig)
}

func validateQAConfig(cfg QAConfig) error {
	if cfg.TempThreshold < -50 || cfg.TempThreshold > 100 {
		return errors.New("qa.tempThreshold must be within -50..100")
	}
	if cfg.DefaultWindowDays <= 0 {
		return errors.New("qa.defaultWindowDays must be positive")
	}
	return nil
}
