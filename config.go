package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	cacheTTL      time.Duration
	chances       int
	decayInterval time.Duration
	graceWindow   time.Duration
	maxRooms      int
	pairInterval  time.Duration
	port          int
	prefix        string
	profile       bool
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.chances < 1 {
		return fmt.Errorf("invalid chance count (must be at least 1): %d", c.chances)
	}
	if c.maxRooms < 1 {
		return fmt.Errorf("invalid room limit (must be at least 1): %d", c.maxRooms)
	}
	if c.decayInterval < time.Second || c.pairInterval < time.Second {
		return errors.New("intervals below one second are not supported")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VGUESSR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "vguessr",
		Short:         "A two-player realtime VTuber guessing game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: VGUESSR_BIND)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", time.Minute, "time leaderboard responses stay cached (env: VGUESSR_CACHE_TTL)")
	fs.IntVar(&cfg.chances, "chances", 5, "guesses granted to each player per round (env: VGUESSR_CHANCES)")
	fs.DurationVar(&cfg.decayInterval, "decay-interval", 25*time.Second, "time before an unused chance is consumed automatically (env: VGUESSR_DECAY_INTERVAL)")
	fs.DurationVar(&cfg.graceWindow, "grace-window", 10*time.Second, "time a disconnected player can reconnect without losing their seat (env: VGUESSR_GRACE_WINDOW)")
	fs.IntVar(&cfg.maxRooms, "max-rooms", 500, "maximum number of live rooms (env: VGUESSR_MAX_ROOMS)")
	fs.DurationVar(&cfg.pairInterval, "pair-interval", 5*time.Second, "period of the matchmaking pairing sweep (env: VGUESSR_PAIR_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: VGUESSR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: VGUESSR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: VGUESSR_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: VGUESSR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: VGUESSR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: VGUESSR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: VGUESSR_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("vguessr v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// testConfig returns a Config with production defaults, suitable for
// exercising the hub without the CLI layer.
func testConfig() *Config {
	return &Config{
		bind:          "127.0.0.1",
		cacheTTL:      time.Minute,
		chances:       5,
		decayInterval: 25 * time.Second,
		graceWindow:   10 * time.Second,
		maxRooms:      500,
		pairInterval:  5 * time.Second,
		port:          8080,
	}
}
