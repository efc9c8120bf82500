package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"SipSound/config"
	"SipSound/core/aidj"
	"SipSound/db"
	"SipSound/logger"
	"SipSound/server"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	sessionUser  string
	sessionLimit int
	sessionCache bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "为指定用户生成一次 AI DJ 会话",
	Long:  `连接数据库和推荐服务，生成一次会话并以 JSON 输出，用于排查推荐结果。不指定 --user 时按匿名用户处理。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.DefaultConfig(cfg.LogLevel, cfg.LogFile))
		defer logger.Sync()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("无法连接数据库: %v", err)
		}
		defer db.CloseGormDB()

		if sessionCache {
			if err := db.ConnectRedis(cfg); err != nil {
				log.Fatalf("无法连接到Redis: %v", err)
			}
			defer db.CloseRedis()
		}

		engine, _ := server.NewEngine(cfg, db.GormDB, db.RedisClient)
		result, err := engine.BuildSession(context.Background(), aidj.Request{
			UserID:    sessionUser,
			Limit:     sessionLimit,
			RequestID: uuid.NewString(),
		})
		if err != nil {
			log.Fatalf("生成会话失败: %v", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("输出结果失败: %v", err)
		}
		fmt.Fprintf(os.Stderr, "source=%s tracks=%d matched=%d\n", result.Source, len(result.Tracks), result.MatchedCount())
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().StringVarP(&sessionUser, "user", "u", "", "用户 ID，留空表示匿名")
	sessionCmd.Flags().IntVarP(&sessionLimit, "limit", "l", 0, "曲目数量，0 表示使用默认值")
	sessionCmd.Flags().BoolVar(&sessionCache, "cache", false, "使用 Redis 缓存推荐结果")

	sessionCmd.Example = `  # 匿名会话
  sipsound session

  # 指定用户和数量
  sipsound session -u 3f2a9c -l 10`
}
