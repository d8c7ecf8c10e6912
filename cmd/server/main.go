package main

import (
	"ecotour/internal/config"
	"ecotour/internal/db"
	clog "ecotour/internal/log"
	"ecotour/internal/server"
	"ecotour/internal/service"
	"ecotour/internal/store"
	"ecotour/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责加载配置、初始化日志、连接数据库并组装推送链路后启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// 连接登记表与推送器显式注入，不走全局单例
	reg := ws.NewRegistry()
	disp := ws.NewDispatcher(reg)

	userSvc := service.NewUserService(gdb, cfg)
	notifSvc := service.NewNotificationService(store.NewNotifications(gdb), disp)
	chatSvc := service.NewChatService(store.NewMessages(gdb), disp)
	h := server.NewHandler(userSvc, notifSvc, chatSvc)

	r := server.SetupRouter(cfg, gdb, reg, h, notifSvc, chatSvc)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
