package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sre-norns/gantry/pkg/appctx"
	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/dbstore"
	"github.com/sre-norns/gantry/pkg/grace"
	"github.com/sre-norns/gantry/pkg/harness"
	"github.com/sre-norns/gantry/pkg/intercept"
	"github.com/sre-norns/gantry/pkg/queue"
	"github.com/sre-norns/gantry/pkg/suite"
	"github.com/sre-norns/gantry/pkg/token"

	_ "github.com/sre-norns/gantry/pkg/hooks/scaffold"
	_ "github.com/sre-norns/gantry/pkg/hooks/seed"
	_ "github.com/sre-norns/gantry/pkg/hooks/state"
)

type ServerConfig struct {
	Port         int    `help:"Port for the API server to listen on" default:"8080" env:"GANTRY_PORT"`
	DatabaseFile string `help:"Sqlite database file" default:"gantry.db" env:"GANTRY_DB"`
	RedisAddress string `help:"Redis server address:port to connect to" default:"localhost:6379" env:"REDIS_ADDR"`

	ProjectsRoot string `help:"Directory test projects are laid out under" default:"./projects" env:"GANTRY_PROJECTS"`

	WorkerSecret   string        `help:"Shared secret used to sign worker credentials" default:"development-secret" env:"GANTRY_WORKER_SECRET"`
	WorkerTokenTTL time.Duration `help:"Lifetime of issued worker credentials" default:"24h"`

	Debug bool `help:"Stretch bridged callback timeouts for interactive debugging"`
}

var appConfig ServerConfig

func main() {
	stdlog.SetFlags(0)
	_ = godotenv.Load()

	kong.Parse(&appConfig,
		kong.Name("gantry-server"),
		kong.Description("Gantry API server owns the live app context that bridged callbacks execute against"),
	)

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

	db, err := gorm.Open(sqlite.Open(appConfig.DatabaseFile), &gorm.Config{})
	grace.SuccessRequired(err, "failed to connect database")

	grace.SuccessRequired(db.AutoMigrate(
		&suite.Suite{},
		&suite.Result{},
		&suite.Artifact{},
	), "DB migration failed")

	store := dbstore.NewDbStore(db)

	scheduler, err := queue.NewScheduler(context.Background(), appConfig.RedisAddress)
	grace.SuccessRequired(err, "failed to create scheduler")
	defer scheduler.Close()

	app := appctx.New(appConfig.ProjectsRoot, logger)
	defer app.Close()

	exec := bridge.NewExecutor(logger, appConfig.Debug, appctx.Symbols, intercept.Symbols)
	issuer := token.NewIssuer(appConfig.WorkerSecret, appConfig.WorkerTokenTTL)

	srv := harness.NewService(app, exec, store, scheduler, issuer, logger)
	router := harness.Routes(srv)

	grace.ExitOrLog(router.Run(fmt.Sprintf(":%d", appConfig.Port)))
}
