package cmd

import (
	"SipSound/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 AI DJ 服务",
	Long:  `启动 HTTP 服务器，提供 /api/ai-dj/session、/api/ai-dj/health 和 /metrics`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
