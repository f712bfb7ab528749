package repository

import (
	"context"

	"chatbot-go/internal/model"
	"chatbot-go/pkg/kv"
)

// HistoryRepository 在 KV 存储中以固定 key 读写整段对话历史。
type HistoryRepository interface {
	// Load 返回存储的历史；key 不存在或值为空串时 found 为 false。
	Load(ctx context.Context) (history model.ChatHistory, found bool, err error)
	// Save 用 history 覆盖存储中的值。
	Save(ctx context.Context, history model.ChatHistory) error
	// Key 返回历史所在的存储 key。
	Key() string
}

type kvHistoryRepository struct {
	store kv.Store
	key   string
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
func NewHistoryRepository(store kv.Store, key string) HistoryRepository {
	return &kvHistoryRepository{store: store, key: key}
}

func (r *kvHistoryRepository) Key() string {
	return r.key
}

func (r *kvHistoryRepository) Load(ctx context.Context) (model.ChatHistory, bool, error) {
	data, found, err := r.store.Get(ctx, r.key)
	if err != nil || !found || data == "" {
		return nil, false, err
	}
	history, err := model.UnmarshalHistory(data)
	if err != nil {
		return nil, true, err
	}
	return history, true, nil
}

func (r *kvHistoryRepository) Save(ctx context.Context, history model.ChatHistory) error {
	data, err := model.MarshalHistory(history)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.key, data)
}
