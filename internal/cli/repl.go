package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chatbot-go/internal/config"
	"chatbot-go/internal/model"
	"chatbot-go/internal/session"
	"chatbot-go/internal/terminal"
	"chatbot-go/pkg/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var replToken string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Chat in the terminal using the same session flow as the web page",
	Long: `repl runs one chat session on stdin/stdout.

Lines are sent as messages. /signin prompts for credentials, /quit exits.
Pass --token (or CHATBOT_TOKEN) to resume as an already signed-in user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Conf
		log.SetLogger(replLogger(cfg.Log))
		defer log.Sync()

		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		tok := replToken
		if tok == "" {
			tok = os.Getenv("CHATBOT_TOKEN")
		}
		out := cmd.OutOrStdout()
		renderer := terminal.NewRenderer(out)
		sess, _ := a.chat.NewSession(tok, renderer)

		r := &repl{
			session:  sess,
			in:       bufio.NewScanner(cmd.InOrStdin()),
			out:      out,
			password: readPassword,
		}
		return r.run(cmd.Context())
	},
}

func init() {
	replCmd.Flags().StringVar(&replToken, "token", "", "access token of an already signed-in user")
}

// replLogger 只写日志文件，避免日志和对话混在同一个终端里。
func replLogger(cfg config.LogConfig) *zap.Logger {
	if cfg.OutputPath == "" {
		return zap.NewNop()
	}
	zapConfig := zap.NewProductionConfig()
	_ = os.MkdirAll(cfg.OutputPath, os.ModePerm)
	zapConfig.OutputPaths = []string{filepath.Join(cfg.OutputPath, "chatbot-repl.log")}
	if err := zapConfig.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		zapConfig.Level.SetLevel(zap.InfoLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// readPassword 在终端上关闭回显读取密码；非终端时退回到普通读取。
func readPassword(in *bufio.Scanner) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	return scanLine(in)
}

func scanLine(in *bufio.Scanner) (string, error) {
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return in.Text(), nil
}

type repl struct {
	session  *session.Session
	in       *bufio.Scanner
	out      io.Writer
	password func(in *bufio.Scanner) (string, error)
}

func (r *repl) run(ctx context.Context) error {
	// 会话错误已经渲染在终端上，这里不再返回。
	_ = r.session.CheckAuthentication(ctx)

	for {
		fmt.Fprint(r.out, "> ")
		line, err := scanLine(r.in)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/signin":
			creds, err := r.credentials()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			_ = r.session.SignIn(ctx, creds)
		default:
			_ = r.session.SendMessage(ctx, line)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *repl) credentials() (model.Credentials, error) {
	fmt.Fprint(r.out, "Username: ")
	username, err := scanLine(r.in)
	if err != nil {
		return model.Credentials{}, err
	}
	fmt.Fprint(r.out, "Password: ")
	password, err := r.password(r.in)
	if err != nil {
		return model.Credentials{}, err
	}
	return model.Credentials{Username: strings.TrimSpace(username), Password: password}, nil
}
