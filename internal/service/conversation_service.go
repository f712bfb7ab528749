package service

import (
	"context"

	"chatbot-go/internal/model"
	"chatbot-go/internal/repository"
)

// ConversationService 提供对持久化对话历史的只读访问。
type ConversationService interface {
	// GetConversationHistory 返回存储的完整历史；没有记录时返回空切片。
	GetConversationHistory(ctx context.Context) (model.ChatHistory, error)
}

type conversationService struct {
	repo repository.HistoryRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.HistoryRepository) ConversationService {
	return &conversationService{repo: repo}
}

func (s *conversationService) GetConversationHistory(ctx context.Context) (model.ChatHistory, error) {
	history, found, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return model.ChatHistory{}, nil
	}
	return history, nil
}
