// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 业务层统一的错误分类，处理器据此决定给用户看的文案。
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrValidation         = errors.New("输入不合法")
	ErrServiceUnavailable = errors.New("模型服务不可用")
	ErrStore              = errors.New("存储错误")
)

// storeErr 把仓储层错误归类到 ErrNotFound 或 ErrStore，保留原始错误链。
func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
