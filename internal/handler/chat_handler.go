package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chatbot-go/internal/middleware"
	"chatbot-go/internal/model"
	"chatbot-go/internal/service"
	"chatbot-go/internal/session"
	"chatbot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// frameQueueSize 限制尚未处理的客户端帧数量，队列满时读循环阻塞。
	frameQueueSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// clientFrame 是客户端发来的消息：
// {"type":"signIn","username":"..","password":".."} 或 {"type":"send","text":".."}。
type clientFrame struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Text     string `json:"text,omitempty"`
}

// serverFrame 是一条渲染指令的 JSON 形式。
type serverFrame struct {
	Type     string          `json:"type"`
	Role     model.Role      `json:"role,omitempty"`
	Content  string          `json:"content,omitempty"`
	Visible  *bool           `json:"visible,omitempty"`
	Enabled  *bool           `json:"enabled,omitempty"`
	Identity *model.Identity `json:"identity,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func frameFor(cmd session.RenderCommand) serverFrame {
	f := serverFrame{Type: string(cmd.Kind)}
	switch cmd.Kind {
	case session.CmdTurn:
		f.Role = cmd.Turn.Role
		f.Content = cmd.Turn.Content
	case session.CmdLoading, session.CmdSignIn:
		v := cmd.Visible
		f.Visible = &v
	case session.CmdInput:
		e := cmd.Enabled
		f.Enabled = &e
	case session.CmdIdentity:
		f.Identity = cmd.Identity
	}
	return f
}

// wsRenderer 把渲染指令写成 WebSocket 文本帧。gorilla 连接只允许一个并发写者。
type wsRenderer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (r *wsRenderer) write(f serverFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := r.conn.WriteJSON(f); err != nil {
		log.Warnw("failed to write websocket frame", "type", f.Type, "error", err)
	}
}

func (r *wsRenderer) Render(cmd session.RenderCommand) {
	r.write(frameFor(cmd))
}

// ChatHandler 负责处理 WebSocket 聊天连接，每个连接对应一个会话。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Handle 处理一个传入的 WebSocket 连接。token 可以放在 query 或 Authorization 头中，
// 缺失或失效时连接仍会建立，客户端随后通过 signIn 帧登录。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString = middleware.BearerToken(c)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := &wsRenderer{conn: conn}
	sess, _ := h.chatService.NewSession(tokenString, out)
	log.Infow("WebSocket 连接已建立", "session", sess.ID(), "remote", conn.RemoteAddr().String())

	// 失败已经渲染给客户端
	_ = sess.CheckAuthentication(ctx)

	// 帧按到达顺序交给同一个 worker 处理，读循环只负责读取。
	frames := make(chan clientFrame, frameQueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for frame := range frames {
			h.dispatchFrame(ctx, sess, out, frame)
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnw("从 WebSocket 读取消息失败", "session", sess.ID(), "error", err)
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			out.write(serverFrame{Type: "error", Error: "malformed frame"})
			continue
		}
		frames <- frame
	}

	close(frames)
	cancel()
	wg.Wait()
	log.Infow("WebSocket 连接已关闭", "session", sess.ID())
}

func (h *ChatHandler) dispatchFrame(ctx context.Context, sess *session.Session, out *wsRenderer, frame clientFrame) {
	switch frame.Type {
	case "signIn":
		_ = sess.SignIn(ctx, model.Credentials{Username: frame.Username, Password: frame.Password})
	case "send":
		_ = sess.SendMessage(ctx, frame.Text)
	default:
		out.write(serverFrame{Type: "error", Error: "unknown frame type: " + frame.Type})
	}
}
