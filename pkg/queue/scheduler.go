package queue

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/hibiken/asynq"
	"github.com/sre-norns/gantry/pkg/suite"
)

// TaskType is the asynq topic suite runs are published on
const TaskType = "suite:run"

// RunID identifies a scheduled run in the queue
type RunID string

const InvalidRunID RunID = ""

var ErrEmptyJobSteps = fmt.Errorf("job has no steps")

// Scheduler hands suite runs over to workers
type Scheduler interface {
	Schedule(ctx context.Context, result suite.Result, entry suite.Suite) (RunID, error)
	Close() error
}

func UnmarshalJob(msg *asynq.Task) (suite.RunJob, error) {
	return suite.UnmarshalJob(msg.Payload())
}

func MarshalJob(job suite.RunJob) (*asynq.Task, error) {
	data, err := suite.MarshalJob(job)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskType, data), nil
}

func NewScheduler(ctx context.Context, redisAddr string) (Scheduler, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	return &asynqScheduler{
		client: client,
	}, nil
}

type asynqScheduler struct {
	totalErrors    uint64
	totalRunnables uint64

	client *asynq.Client
}

func (s *asynqScheduler) Close() error {
	if s == nil || s.client == nil {
		return nil
	}

	return s.client.Close()
}

func (s *asynqScheduler) Schedule(ctx context.Context, result suite.Result, entry suite.Suite) (RunID, error) {
	if len(entry.Spec.Steps) == 0 {
		return InvalidRunID, fmt.Errorf("can't schedule job: %w", ErrEmptyJobSteps)
	}

	job := suite.NewRunJob(result, entry.ObjectMeta, entry.Spec)

	task, err := MarshalJob(job)
	if err != nil {
		log.Printf("Scheduling error %v, will try again later", err)
		atomic.AddUint64(&s.totalErrors, 1)
		return InvalidRunID, err
	}

	atomic.AddUint64(&s.totalRunnables, 1)
	info, err := s.client.Enqueue(task, asynq.MaxRetry(1))
	if err != nil {
		log.Printf("Failed to publish: %v", err)
		atomic.AddUint64(&s.totalErrors, 1)

		return InvalidRunID, err
	}

	log.Printf("published task: %v", info.ID)
	return RunID(info.ID), err
}
