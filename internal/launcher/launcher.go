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

// Package launcher starts the partition control process on a cluster login
// node, idempotently, under one of two strategies.
// launcher 包以幂等方式在集群登录节点上按两种策略之一启动分区控制进程。
//
// With a partition configured the control process is submitted as a
// scheduler-managed job; without one the cluster is treated as single-node
// and the process runs detached in the background. Liveness is re-probed
// from a fresh listing on every call and never cached, because the remote
// state can change out-of-band.
// 配置了分区时控制进程作为调度器托管的作业提交；未配置时集群被视为
// 单节点，进程以后台分离方式运行。存活状态在每次调用时都从新的列表
// 重新探测且从不缓存，因为远端状态可能在带外发生变化。
package launcher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/slurmgate/slurmgateX/internal/probe"
	"github.com/slurmgate/slurmgateX/internal/remote"
)

// Default remote filesystem layout
// 默认的远端文件系统布局
const (
	// DefaultLogDir is the per-cluster log directory on the login node.
	// DefaultLogDir 是登录节点上按集群划分的日志目录。
	DefaultLogDir = "$HOME/.slurmgate"

	// DefaultBinDir is where deployed binaries live on the login node.
	// DefaultBinDir 是登录节点上已部署二进制文件的存放位置。
	DefaultBinDir = "$HOME/.slurmgate/bin"
)

// LaunchError reports a control process launch whose final launch command
// exited non-zero. It is fatal; retries are a caller policy.
// LaunchError 报告最终启动命令以非零退出的控制进程启动。该错误是
// 致命的；是否重试由调用方决定。
type LaunchError struct {
	// ClusterName is the cluster whose launch failed.
	ClusterName string

	// Stderr is the captured standard error of the launch command.
	Stderr string
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("launcher: failed to launch control process for cluster %q", e.ClusterName)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Target describes the cluster the control process should run on.
// Target 描述控制进程应运行于其上的集群。
type Target struct {
	// ClusterName identifies the cluster and is the default job name.
	// ClusterName 标识集群，同时也是默认的作业名。
	ClusterName string

	// Partition is the scheduler partition; empty means single-node.
	// Partition 是调度器分区；为空表示单节点。
	Partition string

	// JobName overrides the scheduler-visible job name, optional.
	JobName string

	// BinPath overrides the control process binary path, optional.
	BinPath string

	// LogDir overrides the log directory, optional.
	LogDir string
}

// strategy selects the launch strategy from partition presence.
// strategy 根据分区是否存在选择启动策略。
func (t Target) strategy() probe.Strategy {
	if t.Partition != "" {
		return probe.StrategyScheduled
	}
	return probe.StrategyBackground
}

// jobName returns the explicit job name or the cluster name default.
func (t Target) jobName() string {
	if t.JobName != "" {
		return t.JobName
	}
	return t.ClusterName
}

// binPath returns the control process binary path on the login node.
func (t Target) binPath() string {
	if t.BinPath != "" {
		return t.BinPath
	}
	return DefaultBinDir + "/" + probe.ControlProcessMarker
}

// logDir returns the log directory on the login node.
func (t Target) logDir() string {
	if t.LogDir != "" {
		return t.LogDir
	}
	return DefaultLogDir
}

// Launcher manages the control process lifecycle through a remote executor.
// Launcher 通过远程执行器管理控制进程的生命周期。
//
// The probe-then-launch sequence is not atomic; callers must serialize
// EnsureRunning per cluster (single-writer discipline).
// 探测后启动的序列不是原子的；调用方必须按集群串行化 EnsureRunning
// 调用（单写者约束）。
type Launcher struct {
	exec   remote.Executor
	logger *zap.Logger
}

// New creates a Launcher driving the given executor.
func New(exec remote.Executor, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{exec: exec, logger: logger}
}

// EnsureRunning guarantees one control process is active on the target.
// When forceRestart is false and a fresh liveness probe reports the process
// running, the call is a no-op. Otherwise a launch command is issued; a
// non-zero exit from it fails with LaunchError.
// EnsureRunning 保证目标上有一个控制进程处于活动状态。当 forceRestart
// 为 false 且新的存活探测显示进程在运行时，本调用不做任何事。否则
// 发出启动命令；启动命令非零退出时以 LaunchError 失败。
func (l *Launcher) EnsureRunning(ctx context.Context, target Target, forceRestart bool) error {
	job := target.jobName()
	strategy := target.strategy()

	if !forceRestart {
		running, err := l.isRunning(ctx, job, strategy)
		if err != nil {
			return err
		}
		if running {
			l.logger.Info("Control process already running",
				zap.String("cluster", target.ClusterName),
				zap.String("job_name", job),
				zap.String("strategy", string(strategy)))
			return nil
		}
	}

	var launch string
	switch strategy {
	case probe.StrategyScheduled:
		results, err := l.exec.Run(ctx, []string{queueStatusCommand(job)})
		if err != nil {
			return err
		}
		if probe.IsRunning(results[0].Stdout, job, probe.StrategyScheduled) {
			// TODO: scancel the stale job before relaunching.
			l.logger.Warn("Stale control process entry in scheduler queue, launching anyway",
				zap.String("cluster", target.ClusterName),
				zap.String("job_name", job))
		}
		launch = scheduledLaunchCommand(job, target.Partition, target.binPath())

	case probe.StrategyBackground:
		// Best-effort termination of any prior instance. The target may
		// legitimately not exist, so the exit code is ignored; only
		// transport failures propagate.
		// 对任何先前实例的尽力终止。目标可能本来就不存在，因此忽略
		// 退出码；只有传输故障才向上传播。
		if _, err := l.exec.Run(ctx, []string{terminationCommand()}); err != nil {
			return err
		}
		launch = backgroundLaunchCommand(job, target.binPath(), target.logDir())
	}

	results, err := l.exec.Run(ctx, []string{launch})
	if err != nil {
		return err
	}
	if final := results[len(results)-1]; final.ExitCode != 0 {
		return &LaunchError{ClusterName: target.ClusterName, Stderr: final.Stderr}
	}

	l.logger.Info("Control process launched",
		zap.String("cluster", target.ClusterName),
		zap.String("job_name", job),
		zap.String("strategy", string(strategy)))
	return nil
}

// isRunning probes a fresh listing for control process liveness.
// isRunning 基于新的列表探测控制进程的存活状态。
func (l *Launcher) isRunning(ctx context.Context, job string, strategy probe.Strategy) (bool, error) {
	var listing string
	switch strategy {
	case probe.StrategyScheduled:
		listing = queueStatusCommand(job)
	case probe.StrategyBackground:
		listing = processListingCommand()
	}

	results, err := l.exec.Run(ctx, []string{listing})
	if err != nil {
		return false, err
	}
	return probe.IsRunning(results[0].Stdout, job, strategy), nil
}

// queueStatusCommand lists scheduler queue entries filtered by job name.
func queueStatusCommand(job string) string {
	return fmt.Sprintf("squeue --name %s", job)
}

// processListingCommand lists processes matching the control process
// marker. The bracket on the first character keeps the grep process itself
// out of its own output.
// processListingCommand 列出匹配控制进程标记的进程。首字符加方括号
// 可使 grep 进程自身不出现在输出中。
func processListingCommand() string {
	marker := probe.ControlProcessMarker
	return fmt.Sprintf("ps aux | grep '[%s]%s'", marker[:1], marker[1:])
}

// terminationCommand kills any prior control process instance by marker.
func terminationCommand() string {
	return fmt.Sprintf("pkill -f %s", probe.ControlProcessMarker)
}

// scheduledLaunchCommand submits the control process as a named scheduler
// job with stdout/stderr keyed by the scheduler-assigned job id.
// scheduledLaunchCommand 将控制进程作为具名调度器作业提交，
// 标准输出/错误按调度器分配的作业 ID 命名。
func scheduledLaunchCommand(job, partition, bin string) string {
	return fmt.Sprintf("srun -J %s --partition %s -o %%j.out -e %%j.err %s", job, partition, bin)
}

// backgroundLaunchCommand starts the control process detached from the
// launching shell with output appended to the per-cluster log.
// backgroundLaunchCommand 以脱离启动 shell 的方式启动控制进程，
// 输出追加到按集群划分的日志文件。
func backgroundLaunchCommand(job, bin, logDir string) string {
	return fmt.Sprintf("mkdir -p %s && nohup %s >> %s/%s.log 2>&1 < /dev/null &",
		logDir, bin, logDir, job)
}
