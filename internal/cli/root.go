// Package cli is the candidate-side command line for the submission portal.
// It drives the session API through portalclient and mirrors progress to a
// local file, or to Redis for shared kiosks, so an attempt can be resumed.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/stemsi/submission-portal/internal/logger"
	"github.com/stemsi/submission-portal/internal/mirror"
	"github.com/stemsi/submission-portal/internal/portalclient"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	Dir      string
	Debounce time.Duration
	Format   string // "json" | "text"
	LogLevel string

	// MirrorRedis switches the mirror from Dir to Redis, keyed by ClientID.
	MirrorRedis string
	ClientID    string
	MirrorTTL   time.Duration

	rdb *redis.Client
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Project submission portal client",
		Long: `Work through the project submission wizard from the terminal.

Progress is kept in a local mirror file and replicated to the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.connectMirror()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.rdb != nil {
				return opts.rdb.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("PORTAL_SERVER", "http://localhost:8080"), "portal server base URL")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", envOr("PORTAL_MIRROR_DIR", defaultMirrorDir()), "directory holding the session mirror")
	cmd.PersistentFlags().DurationVar(&opts.Debounce, "debounce", 800*time.Millisecond, "delay before progress is replicated")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level")
	cmd.PersistentFlags().StringVar(&opts.MirrorRedis, "mirror-redis", os.Getenv("PORTAL_MIRROR_REDIS"), "redis URL holding the mirror instead of --dir")
	cmd.PersistentFlags().StringVar(&opts.ClientID, "client-id", envOr("PORTAL_CLIENT_ID", defaultClientID()), "mirror key used with --mirror-redis")
	cmd.PersistentFlags().DurationVar(&opts.MirrorTTL, "mirror-ttl", 7*24*time.Hour, "expiry of a redis mirror (0 keeps it)")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewResumeCommand(opts))
	cmd.AddCommand(NewProgressCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewFailCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewAckCommand(opts))

	return cmd
}

func (o *RootOptions) client(cmd *cobra.Command) *portalclient.Client {
	log := logger.SetupWriter(o.LogLevel, "pretty", cmd.ErrOrStderr())
	return portalclient.New(o.Server, o.mirrorStore(),
		portalclient.WithDebounce(o.Debounce),
		portalclient.WithLogger(log),
	)
}

func (o *RootOptions) connectMirror() error {
	if o.MirrorRedis == "" {
		return nil
	}
	if o.ClientID == "" {
		return fmt.Errorf("--client-id is required with --mirror-redis")
	}
	opt, err := redis.ParseURL(o.MirrorRedis)
	if err != nil {
		return fmt.Errorf("parse --mirror-redis: %w", err)
	}
	o.rdb = redis.NewClient(opt)
	return nil
}

func (o *RootOptions) mirrorStore() mirror.Store {
	if o.rdb != nil {
		return mirror.NewRedisStore(o.rdb, o.ClientID, o.MirrorTTL)
	}
	return mirror.NewFileStore(o.Dir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

func defaultMirrorDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "submission-portal")
	}
	return ".portal"
}
