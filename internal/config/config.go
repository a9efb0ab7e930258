package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ExecConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	FrontendURL string        `mapstructure:"frontend_url"`
	LogLevel    string        `mapstructure:"log_level"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	Exec        ExecConfig    `mapstructure:"exec"`

	// Backpressure is "kick" or "drop".
	Backpressure string `mapstructure:"backpressure"`
}

// AllowedOrigins returns the CORS allow-list. Nil means any origin.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return nil
		}
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("frontend_url", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("exec.url", "https://emkc.org/api/v2/piston/execute")
	v.SetDefault("exec.timeout", "5s")
	v.SetDefault("exec.rate_limit", 5)
	v.SetDefault("exec.rate_window", "10s")
}

func flagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("coderoom", pflag.ContinueOnError)
	f.StringP("config", "c", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	f.IntP("port", "p", 5000, "listen port")
	f.String("mode", "release", "gin mode: release or debug")
	f.StringP("log-level", "l", "info", "log level")
	f.String("frontend-url", "*", "comma separated CORS allow-list")
	f.String("exec-url", "https://emkc.org/api/v2/piston/execute", "execution provider endpoint")
	f.Duration("exec-timeout", 5*time.Second, "execution provider timeout")
	return f
}

// Load resolves configuration from, in increasing priority: defaults, the
// yaml file, environment variables, command line flags.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	flags := flagSet()
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"port":         "port",
		"mode":         "mode",
		"log_level":    "log-level",
		"frontend_url": "frontend-url",
		"exec.url":     "exec-url",
		"exec.timeout": "exec-timeout",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("CODEROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("frontend_url", "FRONTEND_URL")

	fileName, _ := flags.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("frontend_url", cfg.FrontendURL).Msg("config resolved")
	return &cfg, nil
}
