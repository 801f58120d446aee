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
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Common errors for job execution
// 作业执行的常见错误
var (
	// ErrEmptyJob indicates the job carries no executable payload.
	ErrEmptyJob = errors.New("partiond: job has no executable payload")

	// ErrBatchSubmitFailed indicates sbatch rejected the submission.
	// ErrBatchSubmitFailed 表示 sbatch 拒绝了该提交。
	ErrBatchSubmitFailed = errors.New("partiond: batch submission failed")
)

// DefaultInvoker is the command that executes a spooled function
// invocation payload.
// DefaultInvoker 是执行已落盘函数调用载荷的命令。
const DefaultInvoker = "slurmgate-invoke"

// Runner executes an accepted job on this node.
// Runner 在本节点上执行已接受的作业。
type Runner interface {
	Execute(ctx context.Context, job *Job) error
}

// LocalRunner runs jobs on the login node itself. With a partition
// configured, jobs are wrapped in a batch script and handed to the
// scheduler; without one they run directly in a local shell.
// LocalRunner 在登录节点上运行作业。配置了分区时，作业被包装成批处理
// 脚本交给调度器；未配置时直接在本地 shell 中运行。
type LocalRunner struct {
	// Partition is the scheduler partition; empty selects direct execution.
	Partition string

	// SpoolDir holds batch scripts and function invocation payloads.
	// SpoolDir 存放批处理脚本和函数调用载荷。
	SpoolDir string

	// Invoker is the command that runs a spooled function payload.
	Invoker string

	logger *zap.Logger
}

// NewLocalRunner creates a runner writing spool files under spoolDir.
func NewLocalRunner(partition, spoolDir string, logger *zap.Logger) *LocalRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalRunner{
		Partition: partition,
		SpoolDir:  spoolDir,
		Invoker:   DefaultInvoker,
		logger:    logger,
	}
}

// Execute runs the job, blocking until the scheduler accepts it (partition
// mode) or the payload finishes (direct mode).
// Execute 运行作业，阻塞直到调度器接受它（分区模式）或载荷执行
// 完成（直接模式）。
func (r *LocalRunner) Execute(ctx context.Context, job *Job) error {
	command, err := r.payloadCommand(job)
	if err != nil {
		return err
	}

	if r.Partition != "" {
		return r.submitBatch(ctx, job, command)
	}
	return r.runDirect(ctx, job, command)
}

// payloadCommand resolves the job payload into a shell command. Function
// payloads are spooled to disk and handed to the invoker.
// payloadCommand 将作业载荷解析为 shell 命令。函数载荷先落盘，
// 再交给调用器执行。
func (r *LocalRunner) payloadCommand(job *Job) (string, error) {
	if len(job.Request.Commands) > 0 {
		return job.shellCommand(), nil
	}

	fn := job.Request.Function
	if fn == nil || fn.Name == "" {
		return "", ErrEmptyJob
	}

	if err := os.MkdirAll(r.SpoolDir, 0o755); err != nil {
		return "", fmt.Errorf("partiond: failed to create spool dir: %w", err)
	}
	payload, err := json.Marshal(struct {
		Name   string         `json:"name"`
		Args   []any          `json:"args,omitempty"`
		Kwargs map[string]any `json:"kwargs,omitempty"`
	}{fn.Name, job.Request.Args, job.Request.Kwargs})
	if err != nil {
		return "", fmt.Errorf("partiond: failed to encode function payload: %w", err)
	}
	spool := filepath.Join(r.SpoolDir, job.ID+".json")
	if err := os.WriteFile(spool, payload, 0o644); err != nil {
		return "", fmt.Errorf("partiond: failed to spool function payload: %w", err)
	}

	invoker := r.Invoker
	if invoker == "" {
		invoker = DefaultInvoker
	}
	return invoker + " " + spool, nil
}

// submitBatch writes the batch script and submits it to the scheduler.
func (r *LocalRunner) submitBatch(ctx context.Context, job *Job, command string) error {
	if err := os.MkdirAll(r.SpoolDir, 0o755); err != nil {
		return fmt.Errorf("partiond: failed to create spool dir: %w", err)
	}

	script := filepath.Join(r.SpoolDir, job.ID+".sbatch")
	if err := os.WriteFile(script, []byte(job.BatchScript(r.Partition, command)), 0o755); err != nil {
		return fmt.Errorf("partiond: failed to write batch script: %w", err)
	}

	cmd := exec.CommandContext(ctx, "sbatch", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBatchSubmitFailed, string(out))
	}

	r.logger.Info("Job handed to scheduler",
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Request.JobName),
		zap.String("sbatch_output", string(out)))
	return nil
}

// runDirect executes the payload in a local shell, logging to the spool dir.
// runDirect 在本地 shell 中执行载荷，日志写入 spool 目录。
func (r *LocalRunner) runDirect(ctx context.Context, job *Job, command string) error {
	if err := os.MkdirAll(r.SpoolDir, 0o755); err != nil {
		return fmt.Errorf("partiond: failed to create spool dir: %w", err)
	}

	logPath := filepath.Join(r.SpoolDir, job.ID+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("partiond: failed to open job log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if job.Request.Env != "" {
		cmd.Env = append(os.Environ(), "SLURMGATE_ENV="+job.Request.Env)
	}

	r.logger.Info("Running job directly",
		zap.String("job_id", job.ID),
		zap.String("job_name", job.Request.JobName))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("partiond: job %s failed: %w", job.ID, err)
	}
	return nil
}
