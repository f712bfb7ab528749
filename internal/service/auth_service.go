package service

import (
	"context"
	"errors"
	"sync"

	"chatbot-go/internal/model"
	"chatbot-go/pkg/token"
)

// TokenAuthenticator 为单个连接实现 session.Authenticator。
// 它记住连接携带的 access token，登录成功后替换为新签发的 token。
type TokenAuthenticator struct {
	users UserService

	mu    sync.Mutex
	token string
}

// NewTokenAuthenticator 创建一个 TokenAuthenticator；accessToken 可以为空。
func NewTokenAuthenticator(users UserService, accessToken string) *TokenAuthenticator {
	return &TokenAuthenticator{users: users, token: accessToken}
}

// CurrentIdentity 返回 token 对应的用户。没有 token 或 token 失效都视为未登录。
func (a *TokenAuthenticator) CurrentIdentity(ctx context.Context) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	tok := a.token
	a.mu.Unlock()
	if tok == "" {
		return nil, nil
	}

	id, err := a.users.Authenticate(tok)
	if errors.Is(err, token.ErrInvalidToken) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return id, nil
}

// SignIn 使用用户名和密码登录。
func (a *TokenAuthenticator) SignIn(ctx context.Context, creds model.Credentials) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := a.users.Login(creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.token = id.Token
	a.mu.Unlock()
	return id, nil
}

// Token 返回当前持有的 access token。
func (a *TokenAuthenticator) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}
