package api_router

import (
	"encoding/json"
	"io"

	"github.com/haierkeys/fast-qr-history-sync/internal/app"
	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/remote"
	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"
	apperrors "github.com/haierkeys/fast-qr-history-sync/pkg/errors"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"
	"github.com/haierkeys/fast-qr-history-sync/pkg/merge"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActionHistoryChanged websocket 推送的动作名
const ActionHistoryChanged = "HistoryChanged"

// HistoryHandler 云端历史文档 API 路由处理器
type HistoryHandler struct {
	*Handler
}

// NewHistoryHandler 创建 HistoryHandler 实例
func NewHistoryHandler(a *app.App) *HistoryHandler {
	return &HistoryHandler{Handler: NewHandler(a)}
}

// HistoryDocumentRequest 查询参数，uid 为空时取 Token 中的用户
type HistoryDocumentRequest struct {
	UID string `form:"uid" binding:"omitempty,max=128"`
}

// HistoryDocumentResponse GET 响应数据
type HistoryDocumentResponse struct {
	History json.RawMessage `json:"history"`
	Exists  bool            `json:"exists"`
}

// HistoryWriteResponse PUT 响应数据
type HistoryWriteResponse struct {
	Entries int `json:"entries"`
	Skipped int `json:"skipped"`
}

// authorize 解析目标用户，只允许访问 Token 所属用户的文档
func (h *HistoryHandler) authorize(c *gin.Context) (string, bool) {
	response := pkgapp.NewResponse(c)
	params := &HistoryDocumentRequest{}
	if err := c.ShouldBindQuery(params); err != nil {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(pkgapp.BindErrorDetails(c, err)...))
		return "", false
	}

	tokenUID := pkgapp.GetUID(c)
	if tokenUID == "" {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return "", false
	}
	if params.UID != "" && params.UID != tokenUID {
		h.App.Logger().Warn("history document access denied",
			zap.String(logger.FieldUID, tokenUID),
			zap.String("requestedUid", params.UID),
			zap.String(logger.FieldDeviceID, c.GetHeader(remote.HeaderDeviceID)))
		response.ToResponse(code.ErrorUserForbidden)
		return "", false
	}
	if h.App.DocumentStore == nil {
		response.ToResponse(code.ErrorHistoryStorage.WithDetails("document store is not configured"))
		return "", false
	}
	return tokenUID, true
}

// Get 读取用户的云端历史文档，不存在时 exists 为 false
func (h *HistoryHandler) Get(c *gin.Context) {
	uid, ok := h.authorize(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	log, found, err := h.App.DocumentStore.ReadDocument(ctx, uid)
	if err != nil {
		h.logError(ctx, "HistoryHandler.Get", err, zap.String(logger.FieldUID, uid))
		apperrors.ErrorResponse(c, err)
		return
	}

	raw, err := codec.EncodeLog(log)
	if err != nil {
		h.logError(ctx, "HistoryHandler.Get.EncodeLog", err, zap.String(logger.FieldUID, uid))
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessHistoryRead.WithData(HistoryDocumentResponse{
		History: raw,
		Exists:  found,
	}))
}

// Put 整体替换用户的云端历史文档，并通知该用户的 websocket 连接
func (h *HistoryHandler) Put(c *gin.Context) {
	uid, ok := h.authorize(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, remote.MaxDocumentBytes+1))
	if err != nil {
		h.logError(ctx, "HistoryHandler.Put.ReadBody", err, zap.String(logger.FieldUID, uid))
		pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}
	if len(body) > remote.MaxDocumentBytes {
		pkgapp.NewResponse(c).ToResponse(code.ErrorHistoryDocumentTooLarge)
		return
	}

	log, bad, err := codec.DecodeDocument(body)
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	for _, b := range bad {
		h.App.Logger().Warn("dropping malformed history entry from upload",
			zap.String(logger.FieldUID, uid),
			zap.Int(logger.FieldIndex, b.Index),
			zap.String(logger.FieldError, b.Reason))
	}

	canonical := merge.Merge(log, nil)
	if err := h.App.DocumentStore.WriteDocument(ctx, uid, canonical); err != nil {
		h.logError(ctx, "HistoryHandler.Put", err, zap.String(logger.FieldUID, uid))
		apperrors.ErrorResponse(c, err)
		return
	}

	result := HistoryWriteResponse{Entries: len(canonical), Skipped: len(bad)}
	pushed := h.App.WebsocketServer.BroadcastToUser(uid, ActionHistoryChanged, code.SuccessHistoryWrite.WithData(result))
	h.App.Logger().Debug("history document replaced",
		zap.String(logger.FieldUID, uid),
		zap.Int(logger.FieldEntries, result.Entries),
		zap.Int("pushed", pushed))

	pkgapp.NewResponse(c).ToResponse(code.SuccessHistoryWrite.WithData(result))
}
