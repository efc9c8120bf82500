package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"SipSound/config"
	"SipSound/core/recommender"
	"SipSound/db"

	"github.com/spf13/cobra"
)

var redisPurge bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。使用 --purge 清空推荐结果缓存。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer func() {
			if err := db.CloseRedis(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := db.TestRedis(ctx, db.RedisClient); err != nil {
			log.Fatalf("Redis操作测试失败: %v", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisPurge {
			n, err := recommender.Purge(ctx, db.RedisClient)
			if err != nil {
				log.Fatalf("清空推荐缓存失败: %v", err)
			}
			fmt.Printf("已删除 %d 条推荐缓存\n", n)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)

	redisCmd.Flags().BoolVar(&redisPurge, "purge", false, "清空推荐结果缓存")
}
