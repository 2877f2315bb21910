package router

import (
	"context"
	_ "embed"
	"errors"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	"go.opentelemetry.io/otel/trace"

	"cv-agent-go/internal/agent"
	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/config"
	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/tracing"
)

//go:embed chatbot.html
var chatbotPage []byte

// sendMessageRequest 聊天接口请求体
type sendMessageRequest struct {
	Message string `json:"message"`
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config, cvHandler *handler.CVHandler) {
	// 配置了API密钥时启用keyauth，页面和健康检查不拦
	if cfg.Server.APIKey != "" {
		auth := keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == cfg.Server.APIKey, nil
			}),
			keyauth.WithFilter(func(ctx context.Context, c *app.RequestContext) bool {
				path := string(c.Path())
				return path == "/chatbot" || path == "/health"
			}),
		)
		h.Use(auth)
	}

	h.GET("/chatbot", func(c context.Context, ctx *app.RequestContext) {
		ensureSession(ctx)
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		ctx.SetStatusCode(consts.StatusOK)
		ctx.Write(chatbotPage)
	})

	h.POST("/send_message", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ensureSession(ctx)

		var req sendMessageRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "Empty message"})
			return
		}

		answer, err := cvHandler.HandleSendMessage(c, sessionID, req.Message)
		if err != nil {
			if errors.Is(err, agent.ErrEmptyMessage) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "Empty message"})
				return
			}
			tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"answer": answer})
	})

	h.POST("/upload_cv", func(c context.Context, ctx *app.RequestContext) {
		ensureSession(ctx)

		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "No file uploaded"})
			return
		}
		if fileHeader.Filename == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "No file selected"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开上传文件失败"})
			return
		}
		defer file.Close()

		data := make([]byte, fileHeader.Size)
		if _, err := io.ReadFull(file, data); err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件失败"})
			return
		}

		resp, err := cvHandler.HandleUploadCV(c, fileHeader.Filename, data)
		if err != nil {
			if errors.Is(err, parser.ErrUnsupportedFileType) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "Unsupported file type"})
				return
			}
			tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// ensureSession 读取会话cookie，缺失时签发一个新会话ID
func ensureSession(ctx *app.RequestContext) string {
	if sessionID := string(ctx.Cookie(constants.SessionCookieName)); sessionID != "" {
		return sessionID
	}

	sessionID := uuid.NewString()
	ctx.SetCookie(constants.SessionCookieName, sessionID, int(constants.DefaultSessionTTL.Seconds()),
		"/", "", protocol.CookieSameSiteLaxMode, false, true)
	return sessionID
}
