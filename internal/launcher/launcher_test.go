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

package launcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/slurmgate/slurmgateX/internal/remote"
)

func TestStrategySelection(t *testing.T) {
	exec := remote.NewFakeExecutor()
	l := New(exec, nil)

	// Partition present selects the scheduler path.
	if err := l.EnsureRunning(context.Background(), Target{ClusterName: "gpu", Partition: "a100"}, false); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	if got := exec.CommandsContaining("squeue"); len(got) == 0 {
		t.Error("expected a queue-status command for a partitioned cluster")
	}
	if got := exec.CommandsContaining("ps aux"); len(got) != 0 {
		t.Errorf("unexpected process-listing commands: %v", got)
	}

	exec.Reset()

	// No partition selects the background path.
	if err := l.EnsureRunning(context.Background(), Target{ClusterName: "box"}, false); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	if got := exec.CommandsContaining("ps aux"); len(got) == 0 {
		t.Error("expected a process-listing command for a single-node cluster")
	}
	if got := exec.CommandsContaining("squeue"); len(got) != 0 {
		t.Errorf("unexpected queue-status commands: %v", got)
	}
}

// TestEnsureRunningIdempotent verifies a second call after a successful
// launch is a no-op once the probe reports the process running.
// TestEnsureRunningIdempotent 验证启动成功后，探测到进程在运行时，
// 第二次调用不做任何事。
func TestEnsureRunningIdempotent(t *testing.T) {
	exec := remote.NewFakeExecutor()
	// The queue already lists the job.
	exec.RespondWith("squeue", 0, "JOBID PARTITION NAME\n101 a100 train-gpu\n", "")
	l := New(exec, nil)

	target := Target{ClusterName: "train-gpu", Partition: "a100"}
	for i := 0; i < 2; i++ {
		if err := l.EnsureRunning(context.Background(), target, false); err != nil {
			t.Fatalf("EnsureRunning #%d failed: %v", i+1, err)
		}
	}

	if got := exec.CommandsContaining("srun"); len(got) != 0 {
		t.Errorf("expected no launch commands while already running, got %v", got)
	}
}

func TestEnsureRunningScheduledLaunch(t *testing.T) {
	exec := remote.NewFakeExecutor()
	// Header-only listing: the job is not queued.
	exec.RespondWith("squeue", 0, "JOBID PARTITION NAME USER ST TIME\n", "")
	l := New(exec, nil)

	err := l.EnsureRunning(context.Background(), Target{ClusterName: "debug-cluster", Partition: "debug"}, false)
	if err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}

	queries := exec.CommandsContaining("squeue --name debug-cluster")
	if len(queries) == 0 {
		t.Error("expected a queue query using the cluster name as default job name")
	}

	launches := exec.CommandsContaining("srun")
	if len(launches) != 1 {
		t.Fatalf("expected exactly one launch command, got %v", launches)
	}
	launch := launches[0]
	for _, want := range []string{"-J debug-cluster", "--partition debug", "-o %j.out", "-e %j.err"} {
		if !strings.Contains(launch, want) {
			t.Errorf("launch command missing %q: %s", want, launch)
		}
	}
}

func TestEnsureRunningBackgroundLaunchFailure(t *testing.T) {
	exec := remote.NewFakeExecutor()
	exec.RespondWith("nohup", 1, "", "bash: partitiond: No such file or directory")
	l := New(exec, nil)

	err := l.EnsureRunning(context.Background(), Target{ClusterName: "box"}, false)

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if launchErr.ClusterName != "box" {
		t.Errorf("unexpected cluster name: %q", launchErr.ClusterName)
	}
	if !strings.Contains(launchErr.Stderr, "No such file") {
		t.Errorf("expected launch stderr to be carried, got %q", launchErr.Stderr)
	}

	// The best-effort termination ran before the launch.
	if got := exec.CommandsContaining("pkill"); len(got) != 1 {
		t.Errorf("expected one termination command, got %v", got)
	}
}

// TestEnsureRunningIgnoresTerminationExit verifies a failing pkill does not
// abort the launch.
// TestEnsureRunningIgnoresTerminationExit 验证 pkill 失败不会中止启动。
func TestEnsureRunningIgnoresTerminationExit(t *testing.T) {
	exec := remote.NewFakeExecutor()
	// pkill exits 1 when no process matched.
	exec.RespondWith("pkill", 1, "", "")
	l := New(exec, nil)

	if err := l.EnsureRunning(context.Background(), Target{ClusterName: "box"}, false); err != nil {
		t.Fatalf("EnsureRunning failed despite ignorable pkill exit: %v", err)
	}
	if got := exec.CommandsContaining("nohup"); len(got) != 1 {
		t.Errorf("expected one background launch command, got %v", got)
	}
}

func TestEnsureRunningForceRestartSkipsProbe(t *testing.T) {
	exec := remote.NewFakeExecutor()
	l := New(exec, nil)

	if err := l.EnsureRunning(context.Background(), Target{ClusterName: "box"}, true); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}

	if got := exec.CommandsContaining("ps aux"); len(got) != 0 {
		t.Errorf("expected no liveness probe under force restart, got %v", got)
	}
	commands := exec.Commands()
	if len(commands) != 2 || !strings.Contains(commands[0], "pkill") || !strings.Contains(commands[1], "nohup") {
		t.Errorf("expected termination then launch, got %v", commands)
	}
}

func TestEnsureRunningPropagatesTransportFailure(t *testing.T) {
	exec := remote.NewFakeExecutor()
	boom := errors.New("connection refused")
	exec.FailWith(boom)
	l := New(exec, nil)

	err := l.EnsureRunning(context.Background(), Target{ClusterName: "box"}, false)
	if !errors.Is(err, boom) {
		t.Errorf("expected transport failure to propagate, got %v", err)
	}
}

func TestEnsureRunningStaleQueueEntryLaunchesAnyway(t *testing.T) {
	exec := remote.NewFakeExecutor()
	exec.RespondWith("squeue", 0, "JOBID NAME\n7 train-gpu\n", "")
	l := New(exec, nil)

	// Force restart bypasses the probe but still performs the duplicate
	// check, which currently takes no corrective action.
	// 强制重启会跳过探测，但仍执行重复项检查，目前检查到重复
	// 也不做纠正。
	if err := l.EnsureRunning(context.Background(), Target{ClusterName: "train-gpu", Partition: "a100"}, true); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	if got := exec.CommandsContaining("srun"); len(got) != 1 {
		t.Errorf("expected one launch command despite stale entry, got %v", got)
	}
	if got := exec.CommandsContaining("scancel"); len(got) != 0 {
		t.Errorf("expected no corrective action on stale entry, got %v", got)
	}
}
