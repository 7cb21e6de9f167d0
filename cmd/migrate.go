package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		if err := models.AutoMigrate(db); err != nil {
			return err
		}
		utils.Sugar.Infow("database migrated", "driver", cfg.DBDriver)
		return nil
	},
}
