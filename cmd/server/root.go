package main

import (
	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/pkg/database"
	"chengyu-bot-go/pkg/log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "chengyu-bot",
	Short:        "Chinese idiom tutor bot",
	Long:         "成语学习机器人：每日成语、练习评分、自由对话，支持 Telegram 与 Web 两个渠道。",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "./configs/config.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(logsCmd)
}

// bootstrap 加载配置、初始化日志并连接数据库，所有子命令共用。
func bootstrap(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	config.Init(path)
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	log.Info("日志记录器初始化成功")

	database.InitDB(cfg.Database.Driver, cfg.Database.DSN,
		&model.Idiom{},
		&model.User{},
		&model.DictionaryEntry{},
		&model.ActionLog{},
	)
	return cfg
}
