package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/haierkeys/fast-qr-history-sync/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = domain.HistoryLog{
	{Kind: domain.KindScanned, Content: "https://b.example", Timestamp: 2000},
	{Kind: domain.KindGenerated, Content: "hello", Timestamp: 1000},
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "history/u_alice/history.json", DocumentKey("alice"))
	assert.Equal(t, "history/u_a%2Fb/history.json", DocumentKey("a/b"))
}

func TestObjectStore_LocalRoundTrip(t *testing.T) {
	client, err := storage.NewClient(&storage.Config{Type: storage.LOCAL, SavePath: t.TempDir()}, nil)
	require.NoError(t, err)
	s := NewObjectStore(client, nil)
	ctx := context.Background()

	log, found, err := s.ReadDocument(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, log)

	require.NoError(t, s.WriteDocument(ctx, "alice", sample))
	log, found, err = s.ReadDocument(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample, log)
}

func TestObjectStore_Malformed(t *testing.T) {
	client, err := storage.NewClient(&storage.Config{Type: storage.LOCAL, SavePath: t.TempDir()}, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, client.SendContent(ctx, DocumentKey("alice"), []byte(`{"history":[{"type":"generated","content":"a","timestamp":1},{"type":"bogus","content":"b","timestamp":2}]}`)))

	log, found, err := NewObjectStore(client, nil).ReadDocument(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, log, 1)

	require.NoError(t, client.SendContent(ctx, DocumentKey("bob"), []byte(`[not json`)))
	_, _, err = NewObjectStore(client, nil).ReadDocument(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrMalformedDocument)
}

type failingStorage struct {
	err error
}

func (f failingStorage) GetContent(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func (f failingStorage) SendContent(ctx context.Context, key string, content []byte) error {
	return f.err
}

func TestObjectStore_Classifies(t *testing.T) {
	ctx := context.Background()

	denied := NewObjectStore(failingStorage{err: storage.ErrAccessDenied}, nil)
	_, _, err := denied.ReadDocument(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.ErrorIs(t, denied.WriteDocument(ctx, "alice", sample), domain.ErrPermission)

	down := NewObjectStore(failingStorage{err: errors.New("connection refused")}, nil)
	_, _, err = down.ReadDocument(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.NotErrorIs(t, err, domain.ErrPermission)
}

func TestObjectStore_ErrorKeepsKindAndCause(t *testing.T) {
	denied := NewObjectStore(failingStorage{err: storage.ErrAccessDenied}, nil)
	_, _, err := denied.ReadDocument(context.Background(), "alice")
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.ErrorIs(t, err, storage.ErrAccessDenied)
	assert.NotErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, "read history object: remote history access denied: "+storage.ErrAccessDenied.Error(), err.Error())

	var kind *domain.KindError
	require.ErrorAs(t, err, &kind)
	assert.Equal(t, domain.ErrPermission, kind.Kind)
	assert.Nil(t, domain.WithKind(domain.ErrNetwork, nil))
}

func TestHTTPStore_StatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-1", r.Header.Get(HeaderDeviceID))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("uid") {
		case "present":
			_, _ = w.Write([]byte(`{"code":101,"status":true,"data":{"exists":true,"history":[{"type":"scanned","content":"https://b.example","timestamp":2000},{"type":"generated","content":"hello","timestamp":1000}]}}`))
		case "absent":
			_, _ = w.Write([]byte(`{"code":101,"status":true,"data":{"exists":false,"history":[]}}`))
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		case "denied":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":507,"status":false,"message":"forbidden"}`))
		case "anon":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s, err := NewHTTPStore(HTTPConfig{Endpoint: srv.URL + "/", Token: "secret", DeviceID: "dev-1"})
	require.NoError(t, err)
	ctx := context.Background()

	log, found, err := s.ReadDocument(ctx, "present")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample, log)

	for _, uid := range []string{"absent", "gone"} {
		log, found, err = s.ReadDocument(ctx, uid)
		require.NoError(t, err, uid)
		assert.False(t, found, uid)
		assert.Empty(t, log, uid)
	}

	_, _, err = s.ReadDocument(ctx, "denied")
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.Contains(t, err.Error(), "forbidden")

	_, _, err = s.ReadDocument(ctx, "anon")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, _, err = s.ReadDocument(ctx, "other")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestHTTPStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	s, err := NewHTTPStore(HTTPConfig{Endpoint: endpoint, DeviceID: "dev-1"})
	require.NoError(t, err)
	_, _, err = s.ReadDocument(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, s.WriteDocument(context.Background(), "alice", sample), domain.ErrNetwork)
}

func TestNewHTTPStore_InvalidEndpoint(t *testing.T) {
	_, err := NewHTTPStore(HTTPConfig{Endpoint: "not a url"})
	assert.Error(t, err)
}
