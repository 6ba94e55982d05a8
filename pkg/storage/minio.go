// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确认存储桶存在。成语库只读，因此不会自动建桶。
func InitMinIO(ctx context.Context, cfg config.MinIOConfig) error {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶 '%s' 不存在", cfg.BucketName)
	}

	MinioClient = client
	log.Infof("MinIO 客户端初始化成功, bucket=%s", cfg.BucketName)
	return nil
}

// OpenObject 打开一个对象用于读取，调用方负责关闭。
func OpenObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	if MinioClient == nil {
		return nil, fmt.Errorf("MinIO 客户端未初始化")
	}
	object, err := MinioClient.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从 MinIO 下载对象失败: %w", err)
	}
	// GetObject 是惰性的，Stat 才会真正发出请求
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, fmt.Errorf("读取 MinIO 对象信息失败: %w", err)
	}
	return object, nil
}
