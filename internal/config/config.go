package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Diff     DiffConfig   `mapstructure:"diff"`
	Server   ServerConfig `mapstructure:"server"`
	Output   OutputConfig `mapstructure:"output"`
	LogLevel string       `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
}

type DiffConfig struct {
	// MaxTokens caps each side of a comparison; 0 disables the cap.
	MaxTokens int  `mapstructure:"max_tokens" validate:"gte=0"`
	Verify    bool `mapstructure:"verify"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr" validate:"required"`
	Workers         int    `mapstructure:"workers" validate:"gte=1,lte=256"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes" validate:"gt=0"`
	RequestTimeout  int    `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json yaml yml msgpack"`
	Style  string `mapstructure:"style" validate:"oneof=plain porcelain"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Diff: DiffConfig{
			MaxTokens: 2000,
			Verify:    false,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxBodyBytes:    1 << 20,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
		},
		Output: OutputConfig{
			Format: "text",
			Style:  "plain",
		},
		LogLevel: "info",
	}
}

// binding ties a config key to the flag that overrides it.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"diff.max_tokens", "diff-max-tokens"},
	{"diff.verify", "diff-verify"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "server-workers"},
	{"server.max_body_bytes", "server-max-body-bytes"},
	{"server.request_timeout", "server-request-timeout"},
	{"server.shutdown_timeout", "server-shutdown-timeout"},
	{"output.format", "format"},
	{"output.style", "style"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Int("diff-max-tokens", defaults.Diff.MaxTokens, "Maximum tokens per compared text (0 disables the limit)")
	fs.Bool("diff-verify", defaults.Diff.Verify, "Re-check every alignment against its inputs")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Maximum concurrent comparisons")
	fs.Int64("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Maximum HTTP request body size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("format", defaults.Output.Format, "Output format (text|json|yaml|msgpack)")
	fs.String("style", defaults.Output.Style, "Text diff style (plain|porcelain)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

// Load merges defaults, config file, PROMPTDIFF_* environment variables and
// explicitly set flags, in increasing order of precedence.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for _, b := range bindings {
			f := fs.Lookup(b.flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(b.key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", b.flag, err)
			}
		}
	}

	v.SetEnvPrefix("PROMPTDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("promptdiff")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Style = strings.ToLower(strings.TrimSpace(cfg.Output.Style))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

var validate = validator.New()

// Validate reports every field that is out of range as one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("diff.max_tokens", c.Diff.MaxTokens)
	v.SetDefault("diff.verify", c.Diff.Verify)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("output.style", c.Output.Style)
	v.SetDefault("log_level", c.LogLevel)
}
