package cmd

import (
	"log"

	"SipSound/config"
	"SipSound/db"
	"SipSound/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新曲库与用户行为表",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("无法连接数据库: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(db.GormDB, model.CatalogModels()...); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
