package model

// Identity 是认证成功后得到的最小用户信息。
type Identity struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// DisplayName 优先返回邮箱，其次用户名，都为空时返回 "user"。
func (i *Identity) DisplayName() string {
	if i == nil {
		return "user"
	}
	if i.Email != "" {
		return i.Email
	}
	if i.Username != "" {
		return i.Username
	}
	return "user"
}

// Credentials 是交互式登录流程收集的凭证。
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
