package main

import (
	"context"
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/event"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/server"
	"app/internal/shutdown"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番はenv直指定）
	_ = godotenv.Load()

	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		log.Error("db connect failed", "err", err)
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Error("migrate failed", "err", err)
		panic(err)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	//Redis（未設定ならnilのまま＝全てmiss扱い）
	store := cache.New(cfg.RedisAddr)
	defer store.Close()

	//Kafka（未設定なら発行しない）
	var events event.Publisher
	var producer *event.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = event.NewProducer(cfg.KafkaBrokers, event.TopicOrderEvents, cfg.ServiceName, 256, log)
		producer.Start()
		events = producer
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txManager, store, events, log)
	productUC := usecase.NewProductUsecase(productRepo, log)
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, log)

	//Handler生成
	orderH := handler.NewOrderHandler(orderUC)
	productH := handler.NewProductHandler(productUC)
	authH := handler.NewAuthHandler(authUC)

	//Server起動
	e := server.New(cfg, authH, productH, orderH)

	addr := ":" + cfg.Port
	log.Info("server starting", "addr", addr)
	runErr := server.Run(ctx, e, addr)

	//producerのflushを待ってから終了
	if producer != nil {
		producer.Close()
	}

	if runErr != nil && runErr != http.ErrServerClosed {
		log.Error("server stopped", "err", runErr)
		panic(runErr)
	}
	log.Info("server stopped")
}
