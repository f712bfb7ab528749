package service

import (
	"chatbot-go/internal/config"
	"chatbot-go/internal/repository"
	"chatbot-go/internal/session"
	"chatbot-go/pkg/llm"
)

// ChatService 为每个连接创建独立的聊天会话，所有会话共享同一份持久化历史。
type ChatService interface {
	// NewSession 创建一个会话；accessToken 为连接携带的 token，可以为空。
	NewSession(accessToken string, renderer session.Renderer) (*session.Session, *TokenAuthenticator)
}

type chatService struct {
	users     UserService
	llmClient llm.Client
	history   repository.HistoryRepository
	publisher session.TurnPublisher
	llmCfg    config.LLMConfig
}

// NewChatService 创建一个新的 ChatService 实例。publisher 可以为 nil。
func NewChatService(users UserService, llmClient llm.Client, history repository.HistoryRepository, publisher session.TurnPublisher, llmCfg config.LLMConfig) ChatService {
	return &chatService{
		users:     users,
		llmClient: llmClient,
		history:   history,
		publisher: publisher,
		llmCfg:    llmCfg,
	}
}

func (s *chatService) NewSession(accessToken string, renderer session.Renderer) (*session.Session, *TokenAuthenticator) {
	auth := NewTokenAuthenticator(s.users, accessToken)
	sess := session.New(auth, s.llmClient, s.history, renderer, session.Options{
		Model:     s.llmCfg.Model,
		TestMode:  s.llmCfg.TestMode,
		Publisher: s.publisher,
	})
	return sess, auth
}
