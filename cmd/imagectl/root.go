package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	imageclient "github.com/Skryldev/image-client"
	"github.com/Skryldev/image-client/config"
	"github.com/Skryldev/image-client/hooks"
)

const envPrefix = "IMAGES"

// app carries state shared by every subcommand.
type app struct {
	v      *viper.Viper
	client *imageclient.Client
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "imagectl",
		Short: "Upload, list and manage images on the remote image API",
		Long: `imagectl talks to the remote image API.

Settings come from flags, then IMAGES_* environment variables, then a .env
file (see --env-file). For example IMAGES_ACCOUNT_ID and IMAGES_API_TOKEN.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return a.connect(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("env-file", ".env", "dotenv file loaded before reading IMAGES_* variables")
	flags.String("account-id", "", "account identifier")
	flags.String("api-token", "", "API bearer token")
	flags.String("base-url", config.DefaultBaseURL, "API base URL, or the images root when no account id is set")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.Bool("logging", false, "log HTTP requests and responses")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("max-size", "", "reject uploads larger than this, e.g. 10MB")
	flags.StringP("output", "o", "json", "output format: json or yaml")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newUploadCommand(a),
		newUploadURLCommand(a),
		newGetCommand(a),
		newListCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newStatsCommand(a),
		newInspectCommand(a),
	)
	return root, a
}

// execute runs the command tree. The client is closed afterwards whether or
// not the command failed; cobra skips post-run hooks after an error.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if a.client != nil {
		if closeErr := a.client.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the resolved settings into a config.Config.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Default()
	cfg.Merge(config.Config{
		AccountID: v.GetString("account-id"),
		APIToken:  v.GetString("api-token"),
		BaseURL:   v.GetString("base-url"),
		Timeout:   v.GetDuration("timeout"),
		Logging:   v.GetBool("logging"),
		LogLevel:  v.GetString("log-level"),
	})
	if raw := strings.TrimSpace(v.GetString("max-size")); raw != "" {
		n, err := units.RAMInBytes(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid max-size %q: %w", raw, err)
		}
		cfg.MaxUploadBytes = n
	}
	return cfg, config.Validate(cfg)
}

func (a *app) connect(cmd *cobra.Command) error {
	if err := loadEnvFile(a.v.GetString("env-file")); err != nil {
		return err
	}
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}

	client, err := imageclient.New(cfg)
	if err != nil {
		return err
	}
	logger := hooks.NewTextLogger(os.Stderr, cfg.LogLevel)
	client.SetLogger(logger)
	client.AddHook(hooks.NewLoggingHook(logger))
	a.client = client
	return nil
}
