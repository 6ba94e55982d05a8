// Package pipeline 定义了成语库导入的核心流程。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/log"
	"chengyu-bot-go/pkg/storage"
)

// Source 提供成语库 JSON 的读取入口。
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// FileSource 从本地文件读取成语库。
type FileSource struct {
	Path string
}

func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) Name() string { return s.Path }

// MinioSource 从 MinIO 中的对象读取成语库。
type MinioSource struct {
	Bucket string
	Object string
}

func (s MinioSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return storage.OpenObject(ctx, s.Bucket, s.Object)
}

func (s MinioSource) Name() string { return fmt.Sprintf("minio://%s/%s", s.Bucket, s.Object) }

// ImportStats 汇总一次导入的结果。
type ImportStats struct {
	Added    int
	Replaced int
	Skipped  int
	Themes   []string
}

// idiomRecord 对应 JSON 文件中的单条成语。
type idiomRecord struct {
	Idiom       string `json:"idiom"`
	Pinyin      string `json:"pinyin"`
	Translation string `json:"translation"`
	Meaning     string `json:"meaning"`
	Example     string `json:"example"`
}

// Importer 把 {"主题": [成语...]} 结构的 JSON 写入成语库。
type Importer struct {
	idiomRepo repository.IdiomRepository
}

// NewImporter 创建一个新的 Importer 实例。
func NewImporter(idiomRepo repository.IdiomRepository) *Importer {
	return &Importer{idiomRepo: idiomRepo}
}

// Import 读取 source 并逐条 upsert。格式错误的单条记录只计入 Skipped，顶层结构错误直接返回。
func (i *Importer) Import(ctx context.Context, source Source) (ImportStats, error) {
	var stats ImportStats

	reader, err := source.Open(ctx)
	if err != nil {
		return stats, fmt.Errorf("打开成语库 %s 失败: %w", source.Name(), err)
	}
	defer reader.Close()

	var themes map[string]json.RawMessage
	if err := json.NewDecoder(reader).Decode(&themes); err != nil {
		return stats, fmt.Errorf("解析成语库 %s 失败, 顶层应为主题对象: %w", source.Name(), err)
	}

	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, theme := range names {
		var items []json.RawMessage
		if err := json.Unmarshal(themes[theme], &items); err != nil {
			log.Warnf("[Importer] 主题 '%s' 的内容不是数组, 已跳过", theme)
			continue
		}
		stats.Themes = append(stats.Themes, theme)

		for _, raw := range items {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			var rec idiomRecord
			if err := json.Unmarshal(raw, &rec); err != nil || strings.TrimSpace(rec.Idiom) == "" {
				log.Warnf("[Importer] 主题 '%s' 中存在无效记录: %s", theme, string(raw))
				stats.Skipped++
				continue
			}
			idiom := &model.Idiom{
				Theme:       theme,
				Text:        strings.TrimSpace(rec.Idiom),
				Pinyin:      rec.Pinyin,
				Translation: rec.Translation,
				Meaning:     rec.Meaning,
				Example:     rec.Example,
			}
			created, err := i.idiomRepo.Upsert(ctx, idiom)
			if err != nil {
				log.Errorf("[Importer] 写入成语 '%s' 失败: %v", idiom.Text, err)
				stats.Skipped++
				continue
			}
			if created {
				stats.Added++
			} else {
				stats.Replaced++
			}
		}
	}

	log.Infof("[Importer] 导入 %s 完成: 新增 %d, 覆盖 %d, 跳过 %d", source.Name(), stats.Added, stats.Replaced, stats.Skipped)
	return stats, nil
}
