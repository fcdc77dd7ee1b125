package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/idgen"
	"storefront/internal/infra/lock"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/job"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	settingsRepo := infraRepo.NewSettingsGormRepository(gormDB, cfg.DefaultDeliveryFee)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	ids := idgen.UUIDGenerator{}

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	//JWT issuer / bcrypt
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	verifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	links := usecase.LinkConfig{
		PublicBaseURL:       cfg.PublicBaseURL,
		StoreWhatsAppNumber: cfg.StoreWhatsAppNumber,
		CountryCode:         cfg.PhoneCountryCode,
	}
	checkoutUC := usecase.NewCheckoutUsecase(txm, settingsRepo, idgen.NewULIDIssuer(), idgen.NewOrderNumberGenerator(), clock, links)
	publicUC := usecase.NewPublicOrderUsecase(orderRepo, cfg.PhoneCountryCode)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminUC := usecase.NewAdminOrderUsecase(txm, orderRepo, notifier, ids, clock, cfg.PhoneCountryCode, log)
	settingsUC := usecase.NewSettingsUsecase(settingsRepo, auditRepo, clock)
	autoCancelUC := usecase.NewAutoCancelUsecase(txm, orderRepo, settingsRepo, notifier, ids, clock, log)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)

	//自動キャンセル（1分ごと）
	sweeper := job.NewScheduler("auto-cancel", cfg.SweepInterval, cfg.SweepLockTTL, locker, sweepTask(autoCancelUC, log), log)
	go sweeper.Start(ctx)

	//Handler生成
	e := server.New(cfg, log, userRepo, server.Handlers{
		Checkout:    handler.NewCheckoutHandler(checkoutUC),
		PublicOrder: handler.NewPublicOrderHandler(publicUC, handler.NewSessionStore(cfg)),
		MyOrders:    handler.NewOrderHandler(orderUC),
		AdminOrders: handler.NewAdminOrderHandler(adminUC),
		Settings:    handler.NewSettingsHandler(settingsUC),
		Auth:        handler.NewAuthHandler(loginUC),
	})

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	log.Info("api listening", zap.String("addr", addr), zap.String("env", cfg.GoEnv))
	return server.Start(ctx, e, addr)
}

// WhatsAppは常に、KafkaはKAFKA_BROKERSがあるときだけ
func newNotifier(cfg config.Config, log *zap.Logger) (usecase.Notifier, func(), error) {
	multi := notify.Multi{notify.NewWhatsAppNotifier(log, cfg.PublicBaseURL, cfg.PhoneCountryCode)}
	if len(cfg.KafkaBrokers) == 0 {
		return multi, func() {}, nil
	}

	producer, err := notify.NewSyncProducer(cfg.KafkaBrokers)
	if err != nil {
		return nil, nil, err
	}
	kafka := notify.NewKafkaNotifier(producer, cfg.KafkaOrderTopic, log)
	multi = append(multi, kafka)
	return multi, func() { _ = kafka.Close() }, nil
}

// REDIS_ADDRが無ければプロセス内ロック
func newLocker(ctx context.Context, cfg config.Config) (job.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, "storefront:lock:"), func() { _ = client.Close() }, nil
}

func sweepTask(uc *usecase.AutoCancelUsecase, log *zap.Logger) job.Task {
	return func(ctx context.Context) error {
		res, err := uc.Run(ctx)
		if err != nil {
			return err
		}
		if res.Candidates > 0 {
			log.Info("auto cancel sweep",
				zap.Int("minutes", res.Minutes),
				zap.Int("candidates", res.Candidates),
				zap.Int("cancelled", res.Cancelled),
				zap.Int("skipped", res.Skipped),
				zap.Int("failed", res.Failed),
			)
		}
		return nil
	}
}
