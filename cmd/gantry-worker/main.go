package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	kitlog "github.com/go-kit/log"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sre-norns/gantry/pkg/grace"
	"github.com/sre-norns/gantry/pkg/harness"
	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/sre-norns/gantry/pkg/queue"
	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/token"

	_ "github.com/sre-norns/gantry/pkg/steps/callback"
	_ "github.com/sre-norns/gantry/pkg/steps/interceptor"
	_ "github.com/sre-norns/gantry/pkg/steps/probe"
	_ "github.com/sre-norns/gantry/pkg/steps/visit"
)

type WorkerConfig struct {
	steprun.WorkerConfig `embed:""`

	RedisAddress           string        `help:"Redis server address:port to connect to" default:"localhost:6379" env:"REDIS_ADDR"`
	ApiRegistrationTimeout time.Duration `help:"Maximum time alloted for this worker to register with API server" default:"1m"`
	Name                   string        `help:"Custom name for this worker" env:"WORKER_NAME"`

	apiClient *harness.Client
	bearer    string
	logger    kitlog.Logger
}

func (w *WorkerConfig) handleRunSuiteTask(ctx context.Context, t *asynq.Task) error {
	messageID := t.ResultWriter().TaskID()
	log.Print("New suite run request: ", messageID)

	job, err := queue.UnmarshalJob(t)
	if err != nil {
		log.Print("Failed to deserialize message content: ", err)
		return err // Note: job can be re-tried
	}

	if !job.Requirements.Matches(w.GetEffectiveLabels()) {
		log.Printf("job %q requirements not satisfied by this worker, skipping", job.Name)
		return nil
	}

	runID := job.ResultName
	log.Print("runID: ", runID)

	workCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	run := &steprun.RunContext{
		Client:   w.apiClient,
		Registry: prometheus.NewRegistry(),
		Log:      &steprun.RunLog{},
		Logger:   w.logger,
		Options: steprun.RunOptions{
			Browser: steprun.BrowserOptions{
				Headless: w.Headless,
			},
			WorkingDirectory: w.WorkingDirectory,
			KeepTempDir:      job.IsKeepDirectory,
		},
	}

	status, artifacts := steprun.Play(workCtx, job, run)

	wg := grace.NewWorkgroup(4)
	wg.Go(func() error {
		if err := w.apiClient.PostResult(ctx, job.ResultID, w.bearer, status, artifacts); err != nil {
			log.Printf("failed to post run results for %q: %v", runID, err)
			return err
		}

		return nil
	})

	err = wg.Wait()
	log.Print("runID: ", runID, ", completed: ", status)
	return err
}

var appConfig = WorkerConfig{
	WorkerConfig: steprun.NewDefaultConfig(),
}

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	appCtx := kong.Parse(&appConfig,
		kong.Name("gantry-worker"),
		kong.Description("Gantry async worker picks up suite runs and plays them step by step, producing metrics and artifacts"),
	)

	appConfig.logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))

	if appConfig.Name == "" {
		if name, err := os.Hostname(); err == nil && manifest.ValidateName(name) == nil {
			appConfig.Name = name
		}
		if appConfig.Name == "" {
			appConfig.Name = string(token.RandToken(16))
		}
	}

	apiClient, err := harness.NewClient(appConfig.ApiServerAddress)
	grace.SuccessRequired(err, "failed to initialize API client")
	appConfig.apiClient = apiClient

	regoCtx, cancel := context.WithTimeout(context.Background(), appConfig.ApiRegistrationTimeout)
	defer cancel()

	bearer, err := apiClient.RegisterWorker(regoCtx, harness.WorkerRegistration{
		Name:   appConfig.Name,
		Labels: appConfig.GetEffectiveLabels(),
	})
	grace.SuccessRequired(err, "failed to register with the worker API")
	appConfig.bearer = bearer

	log.Print("Registered with API server as worker: ", appConfig.Name)

	redisConnection := asynq.RedisClientOpt{
		Addr: appConfig.RedisAddress,
	}

	workerServer := asynq.NewServer(redisConnection, asynq.Config{})

	mux := asynq.NewServeMux()
	mux.HandleFunc(
		queue.TaskType,               // task type
		appConfig.handleRunSuiteTask, // handler function
	)

	appCtx.FatalIfErrorf(workerServer.Run(mux))
}
