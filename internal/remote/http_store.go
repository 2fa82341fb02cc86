package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haierkeys/fast-qr-history-sync/internal/codec"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/util"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DocumentPath       = "/api/history/document"
	HeaderDeviceID     = "X-Device-ID"
	MaxDocumentBytes   = 16 << 20
	defaultHTTPTimeout = 15 * time.Second
)

// HTTPConfig cloud history API client settings
type HTTPConfig struct {
	// Endpoint base URL, e.g. https://qr.example.com
	Endpoint string
	// Token bearer token minted by the server
	Token string
	// Timeout per request, 0 means 15s
	Timeout time.Duration
	// DeviceID sent as X-Device-ID, empty means the machine id
	DeviceID string
}

// HTTPStore talks to the cloud history API served by the run command
// HTTPStore 通过云端 HTTP 接口读写历史文档
type HTTPStore struct {
	endpoint string
	token    string
	deviceID string
	client   *http.Client
	logger   *zap.Logger
}

var _ domain.RemoteHistoryStore = (*HTTPStore)(nil)

type HTTPOption func(*HTTPStore)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		s.client = c
	}
}

func WithHTTPLogger(lg *zap.Logger) HTTPOption {
	return func(s *HTTPStore) {
		s.logger = lg
	}
}

func NewHTTPStore(cfg HTTPConfig, opts ...HTTPOption) (*HTTPStore, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("remote: invalid endpoint %q", cfg.Endpoint)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = util.GetMachineID()
	}
	s := &HTTPStore{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		deviceID: deviceID,
		client:   &http.Client{Timeout: timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// documentEnvelope GET response body, data is {"history":[...],"exists":bool}
type documentEnvelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type existsField struct {
	Exists *bool `json:"exists"`
}

func (s *HTTPStore) newRequest(ctx context.Context, method, uid string, body io.Reader) (*http.Request, error) {
	target := s.endpoint + DocumentPath + "?uid=" + url.QueryEscape(uid)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set(HeaderDeviceID, s.deviceID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *HTTPStore) do(req *http.Request, op string) ([]byte, int, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(domain.WithKind(domain.ErrNetwork, err), op)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(domain.WithKind(domain.ErrNetwork, err), op)
	}
	if len(data) > MaxDocumentBytes {
		return nil, resp.StatusCode, errors.Wrap(domain.WithKind(domain.ErrMalformedDocument, errors.Errorf("response exceeds %d bytes", MaxDocumentBytes)), op)
	}
	return data, resp.StatusCode, nil
}

// statusErr classifies a non-2xx response
func statusErr(op string, status int, body []byte) error {
	var env struct {
		Message string `json:"message"`
	}
	_ = sonic.Unmarshal(body, &env)
	detail := fmt.Sprintf("http %d", status)
	if env.Message != "" {
		detail += " " + env.Message
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(domain.WithKind(domain.ErrPermission, errors.New(detail)), op)
	}
	return errors.Wrap(domain.WithKind(domain.ErrNetwork, errors.New(detail)), op)
}

// ReadDocument GET /api/history/document，404 或 exists=false 视为文档不存在
func (s *HTTPStore) ReadDocument(ctx context.Context, uid string) (domain.HistoryLog, bool, error) {
	const op = "read remote history"
	req, err := s.newRequest(ctx, http.MethodGet, uid, nil)
	if err != nil {
		return nil, false, errors.Wrap(domain.WithKind(domain.ErrNetwork, err), op)
	}
	body, status, err := s.do(req, op)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return domain.HistoryLog{}, false, nil
	}
	if status < 200 || status > 299 {
		return nil, false, statusErr(op, status, body)
	}

	var env documentEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, false, errors.Wrap(domain.WithKind(domain.ErrMalformedDocument, err), op)
	}
	var ex existsField
	if len(env.Data) > 0 {
		_ = sonic.Unmarshal(env.Data, &ex)
	}
	if ex.Exists != nil && !*ex.Exists {
		return domain.HistoryLog{}, false, nil
	}

	log, bad, err := codec.DecodeDocument(env.Data)
	if err != nil {
		return nil, true, err
	}
	reportMalformed(s.logger, "HTTPStore.ReadDocument", uid, bad)
	return log, true, nil
}

// WriteDocument PUT /api/history/document
func (s *HTTPStore) WriteDocument(ctx context.Context, uid string, log domain.HistoryLog) error {
	const op = "write remote history"
	payload, err := codec.EncodeDocument(log)
	if err != nil {
		return errors.Wrap(err, op)
	}
	req, err := s.newRequest(ctx, http.MethodPut, uid, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(domain.WithKind(domain.ErrNetwork, err), op)
	}
	body, status, err := s.do(req, op)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return statusErr(op, status, body)
	}
	return nil
}
