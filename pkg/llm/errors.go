package llm

import (
	"errors"
	"fmt"
)

// 服务层把以下错误一律视为生成失败，区分类型只是为了日志里能看出原因。

// ErrRateLimit 表示模型服务返回 429。
type ErrRateLimit struct {
	Provider string
	Err      error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("%s: 触发限流: %v", e.Provider, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse 表示回复中没有可用的文本。
type ErrInvalidResponse struct {
	Provider string
	Err      error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("%s: 回复无效: %v", e.Provider, e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable 表示模型服务不可达、报错或超时。
type ErrProviderUnavailable struct {
	Provider string
	Err      error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: 模型服务不可用: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: 模型服务不可用", e.Provider)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// IsRateLimited 判断错误链中是否有限流错误。
func IsRateLimited(err error) bool {
	var rl *ErrRateLimit
	return errors.As(err, &rl)
}
