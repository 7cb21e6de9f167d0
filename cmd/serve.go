package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/routes"
	"github.com/cppla/yatube/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.AutoMigrate)
	r := routes.SetupRouter(db)

	// Orphaned images are swept in the background until shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sweeperDone := utils.StartMediaSweeper(ctx, db, cfg.MediaRoot, time.Duration(cfg.MediaSweepMinutes)*time.Minute)
	stopSweeper := func() {
		cancel()
		<-sweeperDone
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, stopSweeper); err != nil {
		cancel()
		utils.Sugar.Errorf("server stopped with error: %v", err)
		return err
	}
	return nil
}
