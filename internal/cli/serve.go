package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbot-go/internal/config"
	"chatbot-go/internal/handler"
	"chatbot-go/pkg/log"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the /chat WebSocket endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Conf
		log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		defer log.Sync()
		log.Info("日志记录器初始化成功")

		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		r := handler.NewRouter(cfg.Server.Mode, handler.Services{
			User:         a.users,
			Conversation: a.conversation,
			Chat:         a.chat,
		})

		// 启动 HTTP 服务器并实现优雅停机
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: r,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Infof("服务启动于 %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("HTTP 服务监听失败: %w", err)
			}
			return nil
		case <-quit:
		}
		log.Info("接收到停机信号，正在关闭服务...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
		}
		log.Info("服务已优雅关闭")
		return nil
	},
}
