// Package codec reads and writes the persisted history shape
// Package codec 历史记录持久化格式的编解码
//
// Each entry is {"type":"generated|scanned","content":"...","timestamp":ms}.
// A local log is a bare array, a remote document is {"history":[...]}.
// "kind" is accepted as an alias of "type" on read.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/haierkeys/fast-qr-history-sync/internal/domain"
	"github.com/pkg/errors"
)

// Record wire form of one entry, pointers separate missing from zero
// Record 单条记录的存储格式，指针用于区分缺失与零值
type Record struct {
	Type      *string `json:"type,omitempty" validate:"required,oneof=generated scanned"`
	Kind      *string `json:"kind,omitempty"`
	Content   *string `json:"content" validate:"required"`
	Timestamp *int64  `json:"timestamp" validate:"required"`
}

// Document remote per-user document
// Document 远端用户文档
type Document struct {
	History []json.RawMessage `json:"history"`
}

type outRecord struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type outDocument struct {
	History []outRecord `json:"history"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DecodeEntry decodes and validates one raw entry
// DecodeEntry 解码并校验单条记录
func DecodeEntry(raw []byte) (domain.HistoryEntry, error) {
	var r Record
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("decode: %v", err)
	}
	if r.Type == nil && r.Kind != nil {
		r.Type = r.Kind
	}
	if err := getValidator().Struct(&r); err != nil {
		return domain.HistoryEntry{}, describe(err)
	}
	return domain.HistoryEntry{
		Kind:      domain.EntryKind(*r.Type),
		Content:   *r.Content,
		Timestamp: *r.Timestamp,
	}, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, "missing "+strings.ToLower(fe.Field()))
			continue
		}
		v := fe.Value()
		if p, ok := v.(*string); ok && p != nil {
			v = *p
		}
		parts = append(parts, fmt.Sprintf("%s %v not in [%s]", strings.ToLower(fe.Field()), v, fe.Param()))
	}
	return errors.New(strings.Join(parts, ", "))
}

// decodeEntries decodes each element, skipping malformed ones
func decodeEntries(items []json.RawMessage) (domain.HistoryLog, []*domain.MalformedEntryError) {
	out := make(domain.HistoryLog, 0, len(items))
	var bad []*domain.MalformedEntryError
	for i, raw := range items {
		e, err := DecodeEntry(raw)
		if err != nil {
			bad = append(bad, &domain.MalformedEntryError{Index: i, Reason: err.Error()})
			continue
		}
		out = append(out, e)
	}
	return out, bad
}

// DecodeLog decodes a bare entry array
// Empty input is an empty log, a non-array payload wraps ErrMalformedDocument
// DecodeLog 解码记录数组，空输入视为空日志
func DecodeLog(data []byte) (domain.HistoryLog, []*domain.MalformedEntryError, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return domain.HistoryLog{}, nil, nil
	}
	var items []json.RawMessage
	if err := sonic.Unmarshal(data, &items); err != nil {
		return nil, nil, errors.Wrapf(domain.ErrMalformedDocument, "history log: %v", err)
	}
	log, bad := decodeEntries(items)
	return log, bad, nil
}

// DecodeDocument decodes {"history":[...]}, a document without history is empty
// DecodeDocument 解码远端文档，缺少 history 字段时视为空日志
func DecodeDocument(data []byte) (domain.HistoryLog, []*domain.MalformedEntryError, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.HistoryLog{}, nil, nil
	}
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrapf(domain.ErrMalformedDocument, "history document: %v", err)
	}
	log, bad := decodeEntries(doc.History)
	return log, bad, nil
}

func toOut(log domain.HistoryLog) []outRecord {
	out := make([]outRecord, 0, len(log))
	for _, e := range log {
		out = append(out, outRecord{Type: string(e.Kind), Content: e.Content, Timestamp: e.Timestamp})
	}
	return out
}

// EncodeLog encodes a bare entry array
// EncodeLog 编码记录数组
func EncodeLog(log domain.HistoryLog) ([]byte, error) {
	return sonic.Marshal(toOut(log))
}

// EncodeDocument encodes {"history":[...]}
// EncodeDocument 编码远端文档
func EncodeDocument(log domain.HistoryLog) ([]byte, error) {
	return sonic.Marshal(outDocument{History: toOut(log)})
}
