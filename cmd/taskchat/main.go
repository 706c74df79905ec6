// The taskchat command runs the chat-driven task manager. The bare command
// starts the HTTP server; `taskchat mcp --user <email>` serves the task tools
// to a local MCP client over stdio instead.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/server"
	mcpserver "github.com/usetaskchat/taskchat/server/mcp"
	"github.com/usetaskchat/taskchat/store"
	"github.com/usetaskchat/taskchat/store/db"
)

const version = "0.1.0"

const greetingBanner = `
 _____             _     ___  _           _
|_   _| __ _  ___ | |__ / __|| |_   __ _ | |_
  | |  / _' |(_-< | / /| (__ | ' \ / _' ||  _|
  |_|  \__,_|/__/ |_\_\ \___||_||_|\__,_| \__|

`

var rootCmd = &cobra.Command{
	Use:     "taskchat",
	Short:   "A task manager you talk to",
	Version: version,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		st, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Print(greetingBanner)
		fmt.Printf("version %s, mode %s, driver %s\n\n", version, instanceProfile.Mode, instanceProfile.Driver)

		return server.NewServer(instanceProfile, st).Start(ctx)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the task tools to a local MCP client over stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, err := cmd.Flags().GetString("user")
		if err != nil {
			return err
		}
		email = strings.ToLower(strings.TrimSpace(email))

		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), instanceProfile)
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := st.GetUser(cmd.Context(), &store.FindUser{Email: &email})
		if err != nil {
			return errors.Wrapf(err, "no account for %q, sign up through the HTTP API first", email)
		}

		// Logs go to stderr, stdout belongs to the protocol.
		slog.Info("mcp server started", "user", user.Email)
		return mcpserver.ServeStdio(mcpserver.NewServer(st, user.ID, version))
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `server mode, "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "binding port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver: sqlite, mysql or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	// Everything is also settable as TASKCHAT_MODE, TASKCHAT_AI_API_KEY,
	// TASKCHAT_HISTORY_WINDOW and so on.
	viper.SetEnvPrefix("taskchat")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	mcpCmd.Flags().String("user", "", "email of the account whose tasks the MCP server manages")
	_ = mcpCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(mcpCmd)
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:          viper.GetString("mode"),
		Addr:          viper.GetString("addr"),
		Port:          viper.GetInt("port"),
		Data:          viper.GetString("data"),
		Driver:        viper.GetString("driver"),
		DSN:           viper.GetString("dsn"),
		Secret:        viper.GetString("secret"),
		AIBaseURL:     viper.GetString("ai-base-url"),
		AIAPIKey:      viper.GetString("ai-api-key"),
		AIModel:       viper.GetString("ai-model"),
		AITimeout:     viper.GetDuration("ai-timeout"),
		HistoryWindow: viper.GetInt("history-window"),
	}
	if err := instanceProfile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, instanceProfile)
	if err := st.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return st, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "err", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
