package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	configFile     string
	maxPlayers     int
	port           int
	prefix         string
	profile        bool
	redisAddr      string
	redisDB        int
	redisPassword  string
	roomTTL        time.Duration
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	log     *log.Logger
	logOnce sync.Once
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 1 {
		return fmt.Errorf("invalid max players (must be at least 1): %d", c.maxPlayers)
	}
	if c.redisDB < 0 {
		return fmt.Errorf("invalid redis db (must not be negative): %d", c.redisDB)
	}
	if c.roomTTL < 0 || c.sessionTimeout < 0 {
		return errors.New("--room-ttl and --session-timeout must not be negative")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// bindFlags applies config file and environment values to every flag the
// user did not set explicitly. Flags win over env, env wins over the file.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TIERCLASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "tierclash",
		Short:         "A party game where friends take turns ranking cards into a shared tier list.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.configFile == "" {
				cfg.configFile = v.GetString("config")
			}

			if cfg.configFile != "" {
				v.SetConfigFile(cfg.configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}

			bindFlags(v, cmd.Flags())

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.version {
				cmd.Printf("tierclash v%s\n", releaseVersion)
				return nil
			}

			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringVarP(&cfg.configFile, "config", "c", "", "path to a config file in any format viper reads (env: TIERCLASH_CONFIG)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TIERCLASH_VERBOSE)")

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TIERCLASH_BIND)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 6, "maximum players per room (env: TIERCLASH_MAX_PLAYERS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TIERCLASH_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TIERCLASH_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TIERCLASH_PROFILE)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "share rooms through redis at this address instead of keeping them in memory (env: TIERCLASH_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: TIERCLASH_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: TIERCLASH_REDIS_PASSWORD)")
	fs.DurationVar(&cfg.roomTTL, "room-ttl", 24*time.Hour, "time before untouched rooms are deleted (env: TIERCLASH_ROOM_TTL)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before rooms with no connected players stop broadcasting (env: TIERCLASH_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TIERCLASH_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TIERCLASH_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TIERCLASH_VERSION)")

	cmd.AddCommand(newSimulateCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("tierclash v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
