package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	"storefront/internal/infra/idgen"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const usage = "expected 'add-user', 'add-product' or 'sweep-once' subcommand"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		fmt.Println("logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetGlobal(log)

	ctx := context.Background()
	switch os.Args[1] {
	case "add-user":
		err = addUser(ctx, cfg, os.Args[2:])
	case "add-product":
		err = addProduct(ctx, cfg, os.Args[2:])
	case "sweep-once":
		err = sweepOnce(ctx, cfg, log)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		log.Error(os.Args[1]+" failed", zap.Error(err))
		os.Exit(1)
	}
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	//サーバより先にCLIを動かしてもテーブルがあるように
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func addUser(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := fs.String("email", "", "Email for the new user")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Password for the new user")
	role := fs.String("role", string(model.RoleStaff), "CUSTOMER, STAFF or ADMIN")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	uc := auth.NewRegisterUserUsecase(
		infraRepo.NewUserGormRepository(gormDB),
		auth.NewBcryptPasswordHasher(bcrypt.DefaultCost),
		usecase.SystemClock{},
	)
	out, err := uc.Execute(ctx, auth.RegisterUserInput{
		Email:    *email,
		Name:     *name,
		Password: *password,
		Role:     model.Role(strings.ToUpper(*role)),
	})
	if err != nil {
		return err
	}

	fmt.Printf("User '%s' (%s) created with id %d.\n", out.User.Email, out.User.Role, out.User.ID)
	return nil
}

func addProduct(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("add-product", flag.ExitOnError)
	name := fs.String("name", "", "Product name")
	price := fs.String("price", "", "Unit price, e.g. 25000")
	_ = fs.Parse(args)

	if strings.TrimSpace(*name) == "" || *price == "" {
		fs.PrintDefaults()
		return fmt.Errorf("name and price are required")
	}
	p, err := decimal.NewFromString(*price)
	if err != nil || p.IsNegative() {
		return fmt.Errorf("invalid price %q", *price)
	}

	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	created, err := infraRepo.NewProductGormRepository(gormDB).Create(ctx, model.Product{
		Name:        strings.TrimSpace(*name),
		Price:       p,
		IsAvailable: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Product '%s' created with id %d.\n", created.Name, created.ID)
	return nil
}

// スケジューラを通さず1回だけ自動キャンセルを走らせる
func sweepOnce(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	uc := usecase.NewAutoCancelUsecase(
		infraRepo.NewTxManagerGorm(gormDB),
		orderRepo,
		infraRepo.NewSettingsGormRepository(gormDB, cfg.DefaultDeliveryFee),
		notify.NewWhatsAppNotifier(log, cfg.PublicBaseURL, cfg.PhoneCountryCode),
		idgen.UUIDGenerator{},
		usecase.SystemClock{},
		log,
	)

	res, err := uc.Run(ctx)
	if err != nil {
		return err
	}
	if !res.Enabled {
		fmt.Println("auto cancel is disabled")
		return nil
	}
	fmt.Printf("auto cancel (%d min): %d candidates, %d cancelled, %d skipped, %d failed\n",
		res.Minutes, res.Candidates, res.Cancelled, res.Skipped, res.Failed)
	return nil
}
