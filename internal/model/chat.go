// Package model 包含了应用的数据模型定义。
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role 标识一条对话消息的发送方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid 报告 r 是否为已知角色。
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatTurn 代表一条对话消息，创建后不再修改。
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatHistory 是按对话顺序排列的消息序列。
type ChatHistory []ChatTurn

// Append 返回追加了 turn 的新历史，不修改调用方持有的底层数组。
func (h ChatHistory) Append(turns ...ChatTurn) ChatHistory {
	out := make(ChatHistory, 0, len(h)+len(turns))
	out = append(out, h...)
	return append(out, turns...)
}

// Clone 返回历史的独立副本。
func (h ChatHistory) Clone() ChatHistory {
	if h == nil {
		return ChatHistory{}
	}
	return h.Append()
}

// MarshalHistory 将历史编码为 JSON 数组文本。
func MarshalHistory(h ChatHistory) (string, error) {
	if h == nil {
		h = ChatHistory{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat history: %w", err)
	}
	return string(b), nil
}

// UnmarshalHistory 解析存储中的历史文本，任何格式错误都会返回错误。
func UnmarshalHistory(data string) (ChatHistory, error) {
	var h ChatHistory
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	if h == nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: expected a JSON array")
	}
	for i, t := range h {
		if !t.Role.Valid() {
			return nil, fmt.Errorf("failed to unmarshal chat history: turn %d has unknown role %q", i, t.Role)
		}
	}
	return h, nil
}

// TurnEvent 在一轮问答成功持久化后发布到消息队列。
type TurnEvent struct {
	SessionID string     `json:"session_id"`
	Username  string     `json:"username"`
	Turns     []ChatTurn `json:"turns"`
	At        time.Time  `json:"at"`
}
