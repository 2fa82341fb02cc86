package remote

import (
	"context"

	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ObjectStore keeps one JSON document per user in object storage (S3, R2, MinIO, OSS, WebDAV, local)
// ObjectStore 以对象存储保存每用户的历史文档
type ObjectStore struct {
	client storage.Storager
	logger *zap.Logger
}

var _ domain.RemoteHistoryStore = (*ObjectStore)(nil)

func NewObjectStore(client storage.Storager, lg *zap.Logger) *ObjectStore {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &ObjectStore{client: client, logger: lg}
}

// classify maps backend errors onto the sync error taxonomy
func classify(op string, err error) error {
	if errors.Is(err, storage.ErrAccessDenied) {
		return errors.Wrap(domain.WithKind(domain.ErrPermission, err), op)
	}
	return errors.Wrap(domain.WithKind(domain.ErrNetwork, err), op)
}

// ReadDocument 读取用户文档，对象不存在时 found 为 false
func (s *ObjectStore) ReadDocument(ctx context.Context, uid string) (domain.HistoryLog, bool, error) {
	data, err := s.client.GetContent(ctx, DocumentKey(uid))
	if errors.Is(err, storage.ErrNotExist) {
		return domain.HistoryLog{}, false, nil
	}
	if err != nil {
		return nil, false, classify("read history object", err)
	}

	log, bad, err := codec.DecodeDocument(data)
	if err != nil {
		return nil, true, err
	}
	reportMalformed(s.logger, "ObjectStore.ReadDocument", uid, bad)
	return log, true, nil
}

// WriteDocument 整体覆盖用户文档
func (s *ObjectStore) WriteDocument(ctx context.Context, uid string, log domain.HistoryLog) error {
	payload, err := codec.EncodeDocument(log)
	if err != nil {
		return errors.Wrap(err, "encode history document")
	}
	if err := s.client.SendContent(ctx, DocumentKey(uid), payload); err != nil {
		return classify("write history object", err)
	}
	return nil
}
