package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chengyu-bot-go/internal/handler"
	"chengyu-bot-go/internal/middleware"
	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/pipeline"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/internal/telegram"
	"chengyu-bot-go/pkg/database"
	"chengyu-bot-go/pkg/kafka"
	"chengyu-bot-go/pkg/llm"
	"chengyu-bot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot: Telegram polling, HTTP/WebSocket API and the daily broadcast",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := bootstrap(cmd)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 初始化 Repository
	idiomRepo := repository.NewIdiomRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	dictionaryRepo := repository.NewDictionaryRepository(database.DB)
	actionLogRepo := repository.NewActionLogRepository(database.DB)
	ledger := repository.NewBroadcastLedger(database.RDB)

	// 启动时同步成语库，失败时沿用库中已有数据
	if stats, err := importCatalog(ctx, cfg.Catalog, pipeline.NewImporter(idiomRepo), ""); err != nil {
		log.Warnf("成语库导入失败, 使用已有数据: %v", err)
	} else {
		log.Infof("成语库导入完成: added=%d replaced=%d skipped=%d", stats.Added, stats.Replaced, stats.Skipped)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("初始化 LLM 失败: %w", err)
	}

	// 初始化 Service (依赖注入)
	var publisher service.ActionPublisher
	if producer := kafka.NewProducer(cfg.Kafka); producer != nil {
		publisher = producer
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warnf("关闭 Kafka 生产者失败: %v", err)
			}
		}()
	}
	actionLogService := service.NewActionLogService(actionLogRepo, publisher)
	userService := service.NewUserService(userRepo)
	idiomService := service.NewIdiomService(idiomRepo)
	dictionaryService := service.NewDictionaryService(dictionaryRepo, idiomRepo)
	practiceService := service.NewPracticeService(provider, cfg.LLM.Generation, idiomRepo, userRepo)
	dialogueService := service.NewDialogueService(provider, cfg.LLM)
	sessions := service.NewSessionRegistry()
	botService := service.NewBotService(
		sessions,
		userService,
		idiomService,
		dictionaryService,
		practiceService,
		dialogueService,
		actionLogService,
		cfg.Session.FreeModeMaxTurns,
	)

	pushHub := handler.NewPushHub(botService)
	notifiers := map[string]service.Notifier{model.ChannelWeb: pushHub}

	var wg sync.WaitGroup
	if cfg.Telegram.Enabled {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram.enabled 为 true 但未配置 telegram.token")
		}
		bot, err := telegram.NewBot(cfg.Telegram.Token, botService, cfg.Telegram.PollTimeout)
		if err != nil {
			return err
		}
		notifiers[model.ChannelTelegram] = bot
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Run(ctx)
		}()
	}

	if cfg.Scheduler.Enabled {
		broadcast := service.NewBroadcastService(userRepo, idiomRepo, ledger, actionLogService, notifiers, cfg.Scheduler.Concurrency)
		wg.Add(1)
		go func() {
			defer wg.Done()
			broadcast.Run(ctx, cfg.Scheduler.FirstDelay, cfg.Scheduler.Interval)
		}()
	}

	var srv *http.Server
	if cfg.Server.Enabled {
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: newRouter(cfg.Server.Mode, botService, pushHub, userService, dictionaryService, actionLogService, sessions),
		}
		go func() {
			log.Infof("服务启动于 %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("HTTP 服务监听失败: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info("接收到停机信号，正在关闭服务...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("HTTP 服务器关闭失败: %v", err)
		}
	}
	wg.Wait()
	log.Info("服务已优雅关闭")
	return nil
}

func newRouter(
	mode string,
	botService service.BotService,
	pushHub *handler.PushHub,
	userService service.UserService,
	dictionaryService service.DictionaryService,
	actionLogService service.ActionLogService,
	sessions *service.SessionRegistry,
) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	botHandler := handler.NewBotHandler(botService)
	userHandler := handler.NewUserHandler(userService, dictionaryService, actionLogService, sessions)

	apiV1 := r.Group("/api/v1")
	{
		bot := apiV1.Group("/bot")
		{
			bot.POST("/events", botHandler.HandleEvent)
			bot.GET("/ws/:userId", pushHub.Handle)
		}

		users := apiV1.Group("/users")
		{
			users.GET("/:userId/profile", userHandler.GetProfile)
			users.GET("/:userId/logs", userHandler.GetLogs)
		}
	}
	return r
}
