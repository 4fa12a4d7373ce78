package main

import (
	"DormBiz/internal/app"
	"DormBiz/internal/config"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "dormbiz",
		Short: "Campus marketplace API",
		Long:  `DormBiz serves the student marketplace, services, study groups, events and chat. Configuration is read from the file named by CONFIG_PATH.`,
		Run:   runServeCommand,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API",
		Run:   runServeCommand,
	}
	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status|version|redo|reset]",
		Short:     "Runs database migrations",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
		RunE:      runMigrateCommand,
	}
	migrateOnStart bool
)

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServeCommand(_ *cobra.Command, _ []string) {
	gin.SetMode(gin.ReleaseMode)
	cfg := config.MustLoad()
	app.Run(cfg, migrateOnStart)
}

func runMigrateCommand(_ *cobra.Command, args []string) error {
	cfg := config.MustLoad()
	return app.Migrate(cfg, args[0], args[1:]...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
