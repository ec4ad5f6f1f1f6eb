//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=thetiptop password=thetiptop_password dbname=thetiptop_test sslmode=disable TimeZone=Europe/Paris"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to test database: %v\n", err)
		os.Exit(1)
	}

	err = testDB.AutoMigrate(
		&model.User{},
		&model.Gain{},
		&model.Code{},
		&model.Participation{},
		&model.DrawResult{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupTestData creates one client, one gain with stock and one unused
// code, plus a cleanup that removes everything the test created.
func setupTestData(t *testing.T, stock int) (user *model.User, gain *model.Gain, code *model.Code, repo *repository.Repository, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	repo = repository.NewRepository(testDB)
	suffix := time.Now().UnixNano()

	user = &model.User{
		Name:          "Client Test",
		Email:         fmt.Sprintf("client%d@test.fr", suffix),
		PasswordHash:  "$2a$10$placeholder",
		Role:          model.RoleClient,
		EmailVerified: true,
	}
	if err := repo.User.Create(ctx, user); err != nil {
		t.Fatalf("creating user: %v", err)
	}

	gain = &model.Gain{
		Name:              fmt.Sprintf("Infuseur-%d", suffix),
		Value:             1200,
		Quantity:          stock,
		RemainingQuantity: stock,
	}
	if err := repo.Gain.Create(ctx, gain); err != nil {
		t.Fatalf("creating gain: %v", err)
	}

	code = &model.Code{
		Code:   fmt.Sprintf("T%09d", suffix%1_000_000_000),
		GainID: gain.GainID,
	}
	if err := repo.Code.BatchCreate(ctx, []*model.Code{code}); err != nil {
		t.Fatalf("creating code: %v", err)
	}

	cleanup = func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Participation{})
		testDB.Where("code_id = ?", code.CodeID).Delete(&model.Code{})
		testDB.Where("gain_id = ?", gain.GainID).Delete(&model.Gain{})
		testDB.Where("winner_user_id = ?", user.UserID).Delete(&model.DrawResult{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return user, gain, code, repo, cleanup
}

func newParticipation(user *model.User, gain *model.Gain, code *model.Code, day string) *model.Participation {
	return &model.Participation{
		UserID:            user.UserID,
		CodeID:            code.CodeID,
		GainID:            gain.GainID,
		ParticipationDate: time.Now(),
		ParticipationDay:  day,
	}
}

func TestCodeRepo_DuplicateCode(t *testing.T) {
	_, gain, code, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	ctx := context.Background()

	err := repo.Code.BatchCreate(ctx, []*model.Code{{Code: code.Code, GainID: gain.GainID}})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("BatchCreate(duplicate) error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestGainRepo_DecrementStockGuard(t *testing.T) {
	_, gain, _, repo, cleanup := setupTestData(t, 1)
	defer cleanup()
	ctx := context.Background()

	rows, err := repo.Gain.DecrementStock(ctx, gain.GainID)
	if err != nil || rows != 1 {
		t.Fatalf("first DecrementStock() = %d, %v, want 1, nil", rows, err)
	}

	rows, err = repo.Gain.DecrementStock(ctx, gain.GainID)
	if err != nil {
		t.Fatalf("second DecrementStock() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("second DecrementStock() rows = %d, want 0 (stock exhausted)", rows)
	}

	reloaded, err := repo.Gain.GetByID(ctx, gain.GainID)
	if err != nil {
		t.Fatalf("reloading gain: %v", err)
	}
	if reloaded.RemainingQuantity != 0 {
		t.Errorf("RemainingQuantity = %d, want 0", reloaded.RemainingQuantity)
	}
}

func TestParticipationRepo_DailyUniqueIndex(t *testing.T) {
	user, gain, code, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	ctx := context.Background()
	day := model.DayOf(time.Now(), time.UTC)

	if err := repo.Participation.Create(ctx, newParticipation(user, gain, code, day)); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	// second code, same user, same day
	code2 := &model.Code{Code: fmt.Sprintf("U%09d", time.Now().UnixNano()%1_000_000_000), GainID: gain.GainID}
	if err := repo.Code.BatchCreate(ctx, []*model.Code{code2}); err != nil {
		t.Fatalf("creating second code: %v", err)
	}
	defer testDB.Where("code_id = ?", code2.CodeID).Delete(&model.Code{})

	err := repo.Participation.Create(ctx, newParticipation(user, gain, code2, day))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("second Create() error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestParticipationRepo_DailyUniqueIndex_Concurrent(t *testing.T) {
	user, gain, _, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	day := model.DayOf(time.Now(), time.UTC)

	// every goroutine gets its own code; the (user_id, participation_day)
	// index must let exactly one insert through
	const n = 8
	codes := make([]*model.Code, n)
	for i := range codes {
		codes[i] = &model.Code{
			Code:   fmt.Sprintf("C%d%08d", i, time.Now().UnixNano()%100_000_000),
			GainID: gain.GainID,
		}
	}
	if err := repo.Code.BatchCreate(context.Background(), codes); err != nil {
		t.Fatalf("creating codes: %v", err)
	}
	defer func() {
		// participations reference codes, so they go first
		testDB.Where("user_id = ?", user.UserID).Delete(&model.Participation{})
		for _, c := range codes {
			testDB.Where("code_id = ?", c.CodeID).Delete(&model.Code{})
		}
	}()

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(c *model.Code) {
			defer wg.Done()
			results <- repo.Participation.Create(context.Background(), newParticipation(user, gain, c, day))
		}(codes[i])
	}
	wg.Wait()
	close(results)

	var succeeded, duplicated int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, gorm.ErrDuplicatedKey):
			duplicated++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d inserts succeeded, want exactly 1", succeeded)
	}
	if duplicated != n-1 {
		t.Errorf("%d inserts hit the unique index, want %d", duplicated, n-1)
	}
}

func TestParticipationRepo_ClaimGuard(t *testing.T) {
	user, gain, code, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	ctx := context.Background()

	p := newParticipation(user, gain, code, model.DayOf(time.Now(), time.UTC))
	if err := repo.Participation.Create(ctx, p); err != nil {
		t.Fatalf("creating participation: %v", err)
	}

	rows, err := repo.Participation.Claim(ctx, p.ParticipationID, user.UserID, time.Now())
	if err != nil || rows != 1 {
		t.Fatalf("first Claim() = %d, %v, want 1, nil", rows, err)
	}

	rows, err = repo.Participation.Claim(ctx, p.ParticipationID, user.UserID, time.Now())
	if err != nil {
		t.Fatalf("second Claim() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("second Claim() rows = %d, want 0 (already claimed)", rows)
	}
}

func TestCodeRepo_ForUpdateLockInTransaction(t *testing.T) {
	_, gain, code, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	ctx := context.Background()

	err := repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Code.GetByCodeForUpdate(ctx, code.Code)
		if err != nil {
			return err
		}
		if locked.IsUsed {
			return errors.New("code unexpectedly used")
		}
		return txRepo.Code.MarkUsed(ctx, locked.CodeID)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	reloaded, err := repo.Code.GetByCode(ctx, code.Code)
	if err != nil {
		t.Fatalf("reloading code: %v", err)
	}
	if !reloaded.IsUsed {
		t.Error("code not marked used after transaction commit")
	}
	if reloaded.Gain == nil || reloaded.Gain.GainID != gain.GainID {
		t.Error("GetByCode did not preload the gain")
	}
}

func TestDrawRepo_UniqueCampaign(t *testing.T) {
	user, _, _, repo, cleanup := setupTestData(t, 5)
	defer cleanup()
	ctx := context.Background()
	campaign := fmt.Sprintf("campaign-%d", time.Now().UnixNano())

	first := &model.DrawResult{
		Campaign:         campaign,
		WinnerUserID:     user.UserID,
		ParticipantCount: 1,
		DrawnAt:          time.Now(),
	}
	if err := repo.Draw.Create(ctx, first); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	second := &model.DrawResult{
		Campaign:         campaign,
		WinnerUserID:     user.UserID,
		ParticipantCount: 1,
		DrawnAt:          time.Now(),
	}
	err := repo.Draw.Create(ctx, second)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("second Create() error = %v, want gorm.ErrDuplicatedKey", err)
	}

	stored, err := repo.Draw.Get(ctx, campaign)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.DrawResultID != first.DrawResultID {
		t.Error("stored draw result is not the first insert")
	}
}
