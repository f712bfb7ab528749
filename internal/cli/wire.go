package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatbot-go/internal/config"
	"chatbot-go/internal/repository"
	"chatbot-go/internal/service"
	"chatbot-go/internal/session"
	"chatbot-go/pkg/database"
	"chatbot-go/pkg/es"
	"chatbot-go/pkg/kafka"
	"chatbot-go/pkg/kv"
	"chatbot-go/pkg/llm"
	"chatbot-go/pkg/log"
	"chatbot-go/pkg/storage"
	"chatbot-go/pkg/token"
)

// app 持有一次进程运行所需的全部依赖。
type app struct {
	users        service.UserService
	history      repository.HistoryRepository
	conversation service.ConversationService
	chat         service.ChatService
	publisher    *kafka.Publisher
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warnw("failed to close kafka publisher", "error", err)
		}
	}
}

// newKVStore 按 store.driver 创建历史记录所在的存储。
func newKVStore(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case "", "redis":
		if err := database.InitRedis(cfg.Database.Redis); err != nil {
			return nil, err
		}
		return kv.NewRedisStore(database.RDB, time.Duration(cfg.Store.TTLHours)*time.Hour), nil
	case "minio":
		client, err := storage.NewMinIO(ctx, cfg.Store.MinIO)
		if err != nil {
			return nil, err
		}
		return kv.NewMinioStore(client, cfg.Store.MinIO.BucketName, cfg.Store.MinIO.Prefix), nil
	case "elasticsearch", "es":
		client, err := es.NewClient(ctx, cfg.Store.Elasticsearch)
		if err != nil {
			return nil, err
		}
		return kv.NewElasticStore(client, cfg.Store.Elasticsearch.IndexName), nil
	case "memory":
		log.Warnf("使用内存存储，对话历史不会在进程重启后保留")
		return kv.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newUserService(cfg config.Config) (service.UserService, error) {
	if err := database.InitMySQL(cfg.Database.MySQL.DSN); err != nil {
		return nil, err
	}
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	return service.NewUserService(repository.NewUserRepository(database.DB), jwtManager), nil
}

// buildApp 依次初始化用户库、历史存储、推理客户端和可选的 Kafka 发布者。
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	users, err := newUserService(cfg)
	if err != nil {
		return nil, err
	}
	return assemble(ctx, cfg, users)
}

func assemble(ctx context.Context, cfg config.Config, users service.UserService) (*app, error) {
	store, err := newKVStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}

	a := &app{users: users}
	a.history = repository.NewHistoryRepository(store, cfg.Store.HistoryKey)
	a.conversation = service.NewConversationService(a.history)

	var publisher session.TurnPublisher
	if cfg.Kafka.Brokers != "" {
		a.publisher = kafka.NewPublisher(cfg.Kafka)
		publisher = a.publisher
		log.Infow("publishing chat turns", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	a.chat = service.NewChatService(users, llmClient, a.history, publisher, cfg.LLM)

	log.Infow("chat dependencies ready",
		"store", cfg.Store.Driver,
		"historyKey", a.history.Key(),
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"testMode", cfg.LLM.TestMode,
	)
	return a, nil
}
