package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
	"github.com/yungbote/filatrack-backend/internal/requestdata"
	"github.com/yungbote/filatrack-backend/internal/types"
)

// testEnv builds the full service graph on top of a rolled-back test
// transaction. Service-level transactions become savepoints inside it, so
// commit/rollback semantics still hold while the database stays clean.
type testEnv struct {
	tx *gorm.DB

	userRepo      repos.UserRepo
	accountRepo   repos.AccountRepo
	userTokenRepo repos.UserTokenRepo
	boxRepo       repos.BoxRepo
	filamentRepo  repos.FilamentRepo
	logRepo       repos.FilamentLogRepo
	printRepo     repos.PrintRepo
	analyticsRepo repos.AnalyticsRepo

	ordering  OrderingService
	analytics AnalyticsService
	auth      AuthService
	user      UserService
	box       BoxService
	filament  FilamentService
	print     PrintService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	env := &testEnv{
		tx:            tx,
		userRepo:      repos.NewUserRepo(tx, log),
		accountRepo:   repos.NewAccountRepo(tx, log),
		userTokenRepo: repos.NewUserTokenRepo(tx, log),
		boxRepo:       repos.NewBoxRepo(tx, log),
		filamentRepo:  repos.NewFilamentRepo(tx, log),
		logRepo:       repos.NewFilamentLogRepo(tx, log),
		printRepo:     repos.NewPrintRepo(tx, log),
		analyticsRepo: repos.NewAnalyticsRepo(tx, log),
	}
	env.ordering = NewOrderingService(log, env.boxRepo, env.filamentRepo)
	env.analytics = NewAnalyticsService(tx, log, env.analyticsRepo, env.userRepo, env.filamentRepo, env.logRepo, env.boxRepo, env.accountRepo)
	env.auth = NewAuthService(tx, log, env.userRepo, env.accountRepo, env.userTokenRepo, env.analytics, "test-secret", time.Hour, 24*time.Hour)
	env.user = NewUserService(tx, log, env.userRepo, env.accountRepo, env.userTokenRepo, env.boxRepo, env.filamentRepo, env.logRepo, env.printRepo)
	env.box = NewBoxService(tx, log, env.userRepo, env.boxRepo, env.filamentRepo, env.ordering, env.analytics)
	env.filament = NewFilamentService(tx, log, env.userRepo, env.filamentRepo, env.logRepo, env.boxRepo, env.ordering, env.analytics, nil)
	env.print = NewPrintService(tx, log, env.printRepo, env.filamentRepo, env.logRepo, env.analytics)
	return env
}

func userCtx(u *types.User) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:  u.ID,
		IsAdmin: u.Role == types.RoleAdmin,
	})
}
