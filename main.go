// @title Campus Share 后端 API
// @version 1.0
// @description 校园资料共享平台的后端服务器。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"campus_share_backend/internal/app"
	"campus_share_backend/internal/config"
	"campus_share_backend/pkg/configwatcher"
	"flag"
	"log"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)

	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		*application.Config = *newCfg
	})

	application.Run()
}
