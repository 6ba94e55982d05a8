package main

import (
	"context"
	"fmt"
	"strings"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/internal/pipeline"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/database"
	"chengyu-bot-go/pkg/log"
	"chengyu-bot-go/pkg/storage"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the idiom catalog from a JSON file or MinIO",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := bootstrap(cmd)
		defer log.Sync()

		file, _ := cmd.Flags().GetString("file")
		importer := pipeline.NewImporter(repository.NewIdiomRepository(database.DB))
		stats, err := importCatalog(cmd.Context(), cfg.Catalog, importer, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added=%d replaced=%d skipped=%d themes=%s\n",
			stats.Added, stats.Replaced, stats.Skipped, strings.Join(stats.Themes, ","))
		return nil
	},
}

func init() {
	importCmd.Flags().String("file", "", "Catalog JSON file (overrides catalog.file and catalog.minio)")
}

// importCatalog 选择导入来源：命令行文件优先，其次 MinIO 对象，最后配置中的本地文件。
func importCatalog(ctx context.Context, cfg config.CatalogConfig, importer *pipeline.Importer, file string) (pipeline.ImportStats, error) {
	var source pipeline.Source
	switch {
	case file != "":
		source = pipeline.FileSource{Path: file}
	case cfg.MinIO.Object != "":
		if err := storage.InitMinIO(ctx, cfg.MinIO); err != nil {
			return pipeline.ImportStats{}, err
		}
		source = pipeline.MinioSource{Bucket: cfg.MinIO.BucketName, Object: cfg.MinIO.Object}
	default:
		source = pipeline.FileSource{Path: cfg.File}
	}
	return importer.Import(ctx, source)
}
