// Package cli 定义了 chatbot 命令行：serve 启动 HTTP/WebSocket 服务，repl 在终端里聊天，
// user add 创建账号。
package cli

import (
	"context"
	"fmt"
	"os"

	"chatbot-go/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "A single-conversation chat assistant",
	Long: `chatbot serves a chat page over WebSocket, or runs the same session in a terminal.

The conversation history is stored under one key in the configured store
(redis, minio, elasticsearch or memory) and replayed after sign-in.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		config.Conf = *cfg
		return nil
	},
}

// Execute 运行根命令，出错时以非零状态退出。
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, replCmd, userCmd)
}
