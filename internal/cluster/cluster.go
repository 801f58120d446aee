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

package cluster

import (
	"context"

	"go.uber.org/zap"

	"github.com/slurmgate/slurmgateX/internal/launcher"
	"github.com/slurmgate/slurmgateX/internal/remote"
	"github.com/slurmgate/slurmgateX/internal/submit"
)

// Options configures cluster construction.
// Options 配置集群的构建。
type Options struct {
	// DryRun skips the control process launch entirely.
	// DryRun 完全跳过控制进程的启动。
	DryRun bool

	// ForceRestart relaunches the control process even if it is running.
	// ForceRestart 即使控制进程在运行也重新启动它。
	ForceRestart bool

	// Logger defaults to a no-op logger when nil.
	Logger *zap.Logger

	// Executor overrides the SSH executor built from the handle, for tests.
	Executor remote.Executor

	// Endpoint overrides the control process URL built from the handle.
	Endpoint string
}

// Cluster is the composition root for one remote cluster: it owns the
// executor binding and orchestrates the launcher at construction time and
// the submission client at job-submission time.
// Cluster 是单个远程集群的组合根：它持有执行器绑定，在构建时调度
// 启动器，在作业提交时调度提交客户端。
type Cluster struct {
	handle *Handle
	exec   remote.Executor
	client *submit.Client
	logger *zap.Logger
}

// New builds a Cluster for the handle and, unless opts.DryRun is set,
// ensures its control process is running. Construction fails atomically on
// launch failure: no usable Cluster is returned.
// New 为该句柄构建 Cluster，并在未设置 opts.DryRun 时确保其控制进程
// 正在运行。启动失败时构建原子性地失败：不会返回可用的 Cluster。
func New(ctx context.Context, handle *Handle, opts Options) (*Cluster, error) {
	if handle == nil || handle.Name == "" {
		return nil, ErrClusterNameEmpty
	}
	if handle.Address == "" {
		return nil, ErrAddressEmpty
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if handle.Partition == "" {
		// Advisory only: single-node operation is a supported mode.
		// 仅为提示：单节点运行是受支持的模式。
		logger.Warn("No partition configured, cluster will be treated as single-node",
			zap.String("cluster", handle.Name),
			zap.String("address", handle.Address))
	}

	exec := opts.Executor
	if exec == nil {
		exec = remote.NewSSHExecutor(handle.Address, handle.Credentials())
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = handle.ControlEndpoint()
	}

	c := &Cluster{
		handle: handle,
		exec:   exec,
		client: submit.NewClient(endpoint),
		logger: logger,
	}

	if !opts.DryRun {
		l := launcher.New(exec, logger)
		target := launcher.Target{
			ClusterName: handle.Name,
			Partition:   handle.Partition,
		}
		if err := l.EnsureRunning(ctx, target, opts.ForceRestart); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Name returns the cluster's registered name.
func (c *Cluster) Name() string {
	return c.handle.Name
}

// SubmitJob sends a job to the cluster's control process. The cluster's
// own name is used as the job name when the request leaves it empty. The
// returned Ack means accepted for asynchronous processing, not completed.
// SubmitJob 将作业发送到集群的控制进程。请求未指定作业名时使用集群
// 自身的名称。返回的 Ack 表示已接受异步处理，不代表已完成。
func (c *Cluster) SubmitJob(ctx context.Context, req *submit.Request) (*submit.Ack, error) {
	if req.JobName == "" {
		req.JobName = c.handle.Name
	}

	ack, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Job accepted by control process",
		zap.String("cluster", c.handle.Name),
		zap.String("job_name", req.JobName),
		zap.String("job_id", ack.JobID))
	return ack, nil
}

// RunDirect executes commands on the cluster immediately through the
// remote executor, bypassing the control process queue.
// RunDirect 通过远程执行器立即在集群上执行命令，绕过控制进程队列。
func (c *Cluster) RunDirect(ctx context.Context, commands []string) ([]remote.CommandResult, error) {
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	return c.exec.Run(ctx, commands)
}

// SyncData pushes a local path to the cluster, one-directional.
func (c *Cluster) SyncData(ctx context.Context, source, target string) error {
	return c.exec.SyncUp(ctx, source, target)
}
