package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"worship_management/internal/app"
	"worship_management/internal/config"
	"worship_management/internal/database"
	"worship_management/internal/models"
)

var (
	rootCmd = &cobra.Command{
		Use:           "worship",
		Short:         "Worship team management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  cmdServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  cmdMigrate,
	}

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "Add a team member, typically the first admin",
		RunE:  cmdCreateUser,
	}

	envFile string
	port    string
	newUser models.UserCreate
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before reading the environment")
	serveCmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides PORT and SERVER_PORT)")

	createUserCmd.Flags().StringVar(&newUser.Name, "name", "", "display name")
	createUserCmd.Flags().StringVar(&newUser.Email, "email", "", "login email")
	createUserCmd.Flags().StringVar(&newUser.Password, "password", "", "initial password")
	createUserCmd.Flags().StringVar(&newUser.Role, "role", string(models.RoleAdmin), "ADMIN or SINGER")
	createUserCmd.Flags().StringVar(&newUser.DefaultKey, "default-key", "", "singer's default key")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)
	// Bare invocation serves, as the process entry point on hosted platforms.
	rootCmd.RunE = cmdServe
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// setup loads config, builds the logger and opens the app.
func setup() (*app.App, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.ServerPort = port
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(log)

	a, err := app.New(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

func cmdServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = a.Log.Sync()
	}()

	if err := database.AutoMigrate(a.DB, a.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

func cmdMigrate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = a.Log.Sync()
	}()

	return database.AutoMigrate(a.DB, a.Log)
}

func cmdCreateUser(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = a.Log.Sync()
	}()

	if err := database.AutoMigrate(a.DB, a.Log); err != nil {
		return err
	}
	if newUser.Name == "" {
		newUser.Name = newUser.Email
	}
	user, err := a.Users.CreateUser(cmd.Context(), newUser)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
