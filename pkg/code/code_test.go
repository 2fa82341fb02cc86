package code

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithData_DoesNotMutateRegisteredCode(t *testing.T) {
	c := SuccessHistoryRead.WithData(map[string]any{"exists": true})

	assert.True(t, c.HaveData())
	assert.False(t, SuccessHistoryRead.HaveData())
	assert.Nil(t, SuccessHistoryRead.Data())
	assert.Equal(t, SuccessHistoryRead.Code(), c.Code())
}

func TestWithDetails_KeepsData(t *testing.T) {
	c := Failed.WithData(1).WithDetails("a", "b")
	assert.Equal(t, 1, c.Data())
	assert.Equal(t, []string{"a", "b"}, c.Details())
	assert.False(t, Failed.HaveDetails())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, Success.StatusCode())
	assert.Equal(t, http.StatusUnauthorized, ErrorInvalidUserAuthToken.StatusCode())
	assert.Equal(t, http.StatusForbidden, ErrorUserForbidden.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, ErrorHistoryStorage.StatusCode())
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrorInvalidStorageType.WithDetails("x"))
	assert.True(t, errors.Is(err, ErrorInvalidStorageType))
	assert.False(t, errors.Is(err, ErrorHistoryStorage))
}

func TestLang(t *testing.T) {
	defer SetGlobalDefaultLang("en")

	assert.Equal(t, "Success", Success.Msg())
	assert.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "成功", Success.Msg())
	assert.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, "Success", Success.Msg())
}

func TestRegisteredMessages_BeforeLangIsSet(t *testing.T) {
	// 错误码在包初始化阶段注册，此时全局语言尚未设置
	assert.Equal(t, "History storage unavailable", codes[ErrorHistoryStorage.Code()])
	assert.Equal(t, "History document loaded", sussCodes[SuccessHistoryRead.Code()])
	assert.Equal(t, FALLBACK_LNG, GetGlobalDefaultLang())
}
