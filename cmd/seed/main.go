package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/config"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/database"
	applogger "github.com/MohaDjm/the-tip-top-sub000/pkg/logger"
)

// gainSpec is the prize distribution of the campaign, as percentages of
// the total code count.
type gainSpec struct {
	name        string
	value       int64 // euro cents
	description string
	percent     int
}

var gainSpecs = []gainSpec{
	{"Infuseur à thé", 1200, "Un infuseur à thé", 60},
	{"Boîte de 100g de thé détox ou d'infusion", 3900, "Une boîte de 100g de thé détox ou d'infusion", 20},
	{"Boîte de 100g de thé signature", 4900, "Une boîte de 100g de thé signature", 10},
	{"Coffret découverte 39€", 3900, "Un coffret découverte d'une valeur de 39€", 6},
	{"Coffret découverte 69€", 6900, "Un coffret découverte d'une valeur de 69€", 4},
}

func main() {
	var (
		codeCount     = flag.Int("codes", 500000, "total number of codes to generate")
		adminEmail    = flag.String("admin-email", "", "admin account email (skipped when empty)")
		adminPassword = flag.String("admin-password", "", "admin account password")
		adminName     = flag.String("admin-name", "Administrateur", "admin account name")
	)
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("getting underlying sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("running migrations", zap.Error(err))
	}
	defer sqlDB.Close()

	repo := repository.NewRepository(db)
	ctx := context.Background()

	if *adminEmail != "" {
		if err := seedAdmin(ctx, repo, *adminName, *adminEmail, *adminPassword, logger); err != nil {
			logger.Fatal("seeding admin account", zap.Error(err))
		}
	}

	if err := seedGainsAndCodes(ctx, repo, *codeCount, logger); err != nil {
		logger.Fatal("seeding gains and codes", zap.Error(err))
	}

	logger.Info("seed completed")
}

func seedAdmin(ctx context.Context, repo *repository.Repository, name, email, password string, logger *zap.Logger) error {
	if password == "" {
		return errors.New("-admin-password is required with -admin-email")
	}

	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		logger.Info("admin account already exists", zap.String("email", email))
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	admin := &model.User{
		Name:          name,
		Email:         email,
		PasswordHash:  string(hash),
		Role:          model.RoleAdmin,
		EmailVerified: true,
	}
	if err := repo.User.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("admin account created", zap.String("email", email))
	return nil
}

func seedGainsAndCodes(ctx context.Context, repo *repository.Repository, codeCount int, logger *zap.Logger) error {
	existing, err := repo.Code.CountTotal(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		logger.Info("codes already seeded", zap.Int64("count", existing))
		return nil
	}

	seen := make(map[string]bool, codeCount)
	for _, spec := range gainSpecs {
		quantity := codeCount * spec.percent / 100
		gain := &model.Gain{
			Name:              spec.name,
			Value:             spec.value,
			Description:       spec.description,
			Quantity:          quantity,
			RemainingQuantity: quantity,
		}
		if err := repo.Gain.Create(ctx, gain); err != nil {
			return err
		}

		codes := make([]*model.Code, 0, quantity)
		for len(codes) < quantity {
			str, err := randomCode()
			if err != nil {
				return err
			}
			if seen[str] {
				continue
			}
			seen[str] = true
			codes = append(codes, &model.Code{Code: str, GainID: gain.GainID})
		}
		if err := repo.Code.BatchCreate(ctx, codes); err != nil {
			return err
		}

		logger.Info("gain seeded",
			zap.String("gain", spec.name),
			zap.Int("codes", len(codes)),
		)
	}
	return nil
}

func randomCode() (string, error) {
	buf := make([]byte, model.CodeLength)
	max := big.NewInt(int64(len(model.CodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		buf[i] = model.CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
