package commands

import (
	"context"
	"errors"
	"fmt"
	"ncue-api/internal/components/configutil"
	"ncue-api/internal/components/telemetry"
	"ncue-api/internal/portal"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpDir    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ncue.json5", "The config file to read, <name>.local.json5 overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump-http", "", "Write every portal request and response to this directory.")
}

var rootCmd = &cobra.Command{
	Use:           "ncue",
	Short:         "ncue is a CLI for the NCUE student app portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		config, err := readConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if dumpDir != "" {
			config.DumpDir = dumpDir
		}

		tel := telemetry.SlogAPI{}
		otel, err := telemetry.Setup(cmd.Context(), "ncue", config.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}

		session, err := portal.NewSession()
		if err != nil {
			return err
		}
		client, err := portal.NewClient(config.ClientOptions(), session, tel)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		cmd.SetContext(setGlobals(cmd.Context(), &Globals{
			Config: config,
			Client: client,
			Tel:    tel,
			Otel:   otel,
		}))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return getGlobals(cmd.Context()).Otel.Shutdown(context.Background())
	},
}

// readConfig looks for a relative path in the working directory and its
// parents. A missing config is empty, only authenticated commands need one.
func readConfig(path string) (Config, error) {
	var config Config
	var err error
	if filepath.IsAbs(path) {
		config, err = configutil.ReadConfig[Config](path)
	} else {
		config, err = configutil.ReadRecursively[Config](path)
	}
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return config, err
}

// login logs the client in with the configured credentials.
func login(ctx context.Context, g *Globals) error {
	if g.Config.UserId == "" || g.Config.Password == "" {
		return fmt.Errorf("user_id and password must be set in %s: %w", configPath, portal.ErrCredentialsMissing)
	}
	ok, err := g.Client.Login(ctx, g.Config.LoginRequest())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("login rejected for %s, check user_id and password", g.Config.UserId)
	}
	return nil
}

// authenticated wraps a command that needs a logged in session.
func authenticated(run func(cmd *cobra.Command, args []string, g *Globals) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		err := login(cmd.Context(), g)
		if err != nil {
			return err
		}
		return run(cmd, args, g)
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
