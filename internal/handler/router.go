package handler

import (
	"chatbot-go/internal/middleware"
	"chatbot-go/internal/service"

	"github.com/gin-gonic/gin"
)

// Services 汇总了路由需要的业务服务。
type Services struct {
	User         service.UserService
	Conversation service.ConversationService
	Chat         service.ChatService
}

// NewRouter 创建 Gin 引擎并注册所有路由。
func NewRouter(mode string, svc Services) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	userHandler := NewUserHandler(svc.User)
	authMiddleware := middleware.AuthMiddleware(svc.User)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", NewAuthHandler(svc.User).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.GET("/me", authMiddleware, userHandler.GetProfile)
		}

		apiV1.GET("/conversation", authMiddleware, NewConversationHandler(svc.Conversation).GetConversation)
	}

	r.GET("/chat", NewChatHandler(svc.Chat).Handle)
	return r
}
