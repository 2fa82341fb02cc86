// Package remote implements domain.RemoteHistoryStore backends
// Package remote 远端历史文档存储：对象存储与云端 HTTP 接口
package remote

import (
	"net/url"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/logger"

	"go.uber.org/zap"
)

// Type remote backend type
type Type = string

const (
	TypeHTTP   Type = "http"
	TypeObject Type = "object"
)

// DocumentKey object key of the user's history document
// DocumentKey 用户历史文档的对象键
func DocumentKey(uid string) string {
	return "history/u_" + url.PathEscape(uid) + "/history.json"
}

func reportMalformed(lg *zap.Logger, method, uid string, bad []*domain.MalformedEntryError) {
	for _, b := range bad {
		lg.Warn("skipping malformed history entry",
			zap.String(logger.FieldMethod, method),
			zap.String(logger.FieldUID, uid),
			zap.Int(logger.FieldIndex, b.Index),
			zap.String(logger.FieldError, b.Reason))
	}
}
