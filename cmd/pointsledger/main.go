package main

import (
	"context"
	"fmt"

	"github.com/membora/pointsledger/internal/adapter/auth"
	"github.com/membora/pointsledger/internal/adapter/client/catalog"
	"github.com/membora/pointsledger/internal/adapter/config"
	"github.com/membora/pointsledger/internal/adapter/handler/http"
	"github.com/membora/pointsledger/internal/adapter/logger"
	"github.com/membora/pointsledger/internal/adapter/storage"
	"github.com/membora/pointsledger/internal/adapter/storage/memory"
	"github.com/membora/pointsledger/internal/adapter/storage/repository"
	"github.com/membora/pointsledger/internal/core/port"
	"github.com/membora/pointsledger/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	var store port.BalanceStore
	if conf.Database.DSN != "" {
		db, err := storage.NewDBStorage(ctx, conf.Database)
		if err != nil {
			log.Error("database error", zap.Error(err))
			return
		}
		err = db.RunMigrations()
		if err != nil {
			log.Error("database migration error", zap.Error(err))
			return
		}

		store, err = repository.NewRepository(db)
		if err != nil {
			log.Error("balance store creating error", zap.Error(err))
			return
		}
	} else {
		log.Warn("no database DSN given, balances will not survive a restart")
		store = memory.NewStore()
	}

	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	catalogClient, err := catalog.NewClient(conf.Catalog, log.Named("Catalog"))
	if err != nil {
		log.Error("catalog client creating error", zap.Error(err))
		return
	}

	svc, err := service.NewService(store, catalogClient, tokenService, log.Named("Service"))
	if err != nil {
		log.Error("redemption service creating error", zap.Error(err))
		return
	}

	userHandler, err := http.NewUserHandler(svc, log.Named("User handler"))
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	balanceHandler, err := http.NewBalanceHandler(svc, log.Named("Balance handler"))
	if err != nil {
		log.Error("balance handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService, userHandler, balanceHandler, log.Named("Router"))
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
