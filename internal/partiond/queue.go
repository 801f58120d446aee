/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package partiond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ErrQueueClosed indicates the queue no longer accepts jobs.
var ErrQueueClosed = errors.New("partiond: queue is closed")

// TypeExecuteJob is the asynq task type for job execution.
// TypeExecuteJob 是作业执行的 asynq 任务类型。
const TypeExecuteJob = "job:execute"

// DefaultQueueCapacity bounds the in-process queue backlog.
const DefaultQueueCapacity = 256

// DefaultWorkerCount is the number of concurrent job workers.
const DefaultWorkerCount = 4

// Queue accepts jobs for asynchronous execution. Enqueue returns once the
// job is durably accepted; it never waits for completion.
// Queue 接受作业进行异步执行。Enqueue 在作业被确认接受后即返回，
// 从不等待执行完成。
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
}

// InProcessQueue is a channel-fed worker pool used when no Redis broker is
// configured. Jobs do not survive a daemon restart.
// InProcessQueue 是基于通道的工作池，在未配置 Redis 代理时使用。
// 作业不会在守护进程重启后保留。
type InProcessQueue struct {
	runner Runner
	logger *zap.Logger

	jobs   chan *Job
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewInProcessQueue creates the queue and starts workers workers.
func NewInProcessQueue(runner Runner, workers int, logger *zap.Logger) *InProcessQueue {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &InProcessQueue{
		runner: runner,
		logger: logger,
		jobs:   make(chan *Job, DefaultQueueCapacity),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue implements Queue. The send happens with the mutex held so that
// Close never closes the channel while a sender is pending; a full backlog
// makes Close wait for workers to free a slot instead.
// Enqueue 实现 Queue。发送在持有互斥锁时进行，确保 Close 不会在
// 发送方等待期间关闭通道；积压满时 Close 会等待工作协程腾出空位。
func (q *InProcessQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		queueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for in-flight jobs to finish.
// Close 停止接受作业并等待执行中的作业完成。
func (q *InProcessQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *InProcessQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		queueDepth.Dec()
		if err := q.runner.Execute(context.Background(), job); err != nil {
			jobsFailed.Inc()
			q.logger.Error("Job execution failed",
				zap.String("job_id", job.ID),
				zap.String("job_name", job.Request.JobName),
				zap.Error(err))
			continue
		}
		q.logger.Info("Job execution finished",
			zap.String("job_id", job.ID),
			zap.String("job_name", job.Request.JobName))
	}
}

// AsynqQueue hands jobs to a Redis-backed asynq broker so they survive
// daemon restarts and can be drained by a separate worker pool.
// AsynqQueue 将作业交给基于 Redis 的 asynq 代理，使其在守护进程
// 重启后仍然保留，并可由独立的工作池消费。
type AsynqQueue struct {
	client *asynq.Client
}

// NewAsynqQueue creates a queue publishing to the Redis broker at addr.
func NewAsynqQueue(addr string) *AsynqQueue {
	return &AsynqQueue{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: addr}),
	}
}

// Enqueue implements Queue by publishing an execution task.
func (q *AsynqQueue) Enqueue(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("partiond: failed to encode job: %w", err)
	}

	task := asynq.NewTask(TypeExecuteJob, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("partiond: failed to enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Close releases the broker connection.
func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// RunWorker consumes execution tasks from the Redis broker until the
// context is cancelled. It blocks.
// RunWorker 从 Redis 代理消费执行任务直到上下文被取消。该调用会阻塞。
func RunWorker(ctx context.Context, addr string, concurrency int, runner Runner, logger *zap.Logger) error {
	if concurrency <= 0 {
		concurrency = DefaultWorkerCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: addr},
		asynq.Config{Concurrency: concurrency},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExecuteJob, func(ctx context.Context, task *asynq.Task) error {
		var job Job
		if err := json.Unmarshal(task.Payload(), &job); err != nil {
			return fmt.Errorf("partiond: failed to decode job task: %w", err)
		}
		if err := runner.Execute(ctx, &job); err != nil {
			jobsFailed.Inc()
			logger.Error("Job execution failed",
				zap.String("job_id", job.ID),
				zap.Error(err))
			return err
		}
		return nil
	})

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	return srv.Run(mux)
}
