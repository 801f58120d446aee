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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slurmgate/slurmgateX/internal/launcher"
	"github.com/slurmgate/slurmgateX/internal/remote"
	"github.com/slurmgate/slurmgateX/internal/submit"
)

func TestNewLaunchesControlProcess(t *testing.T) {
	exec := remote.NewFakeExecutor()
	handle := &Handle{Name: "train", Address: "login.example.com", Partition: "a100"}

	c, err := New(context.Background(), handle, Options{Executor: exec})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Name() != "train" {
		t.Errorf("unexpected name: %q", c.Name())
	}
	if got := exec.CommandsContaining("srun"); len(got) != 1 {
		t.Errorf("expected one scheduled launch, got %v", got)
	}
}

func TestNewDryRunSkipsLaunch(t *testing.T) {
	exec := remote.NewFakeExecutor()
	handle := &Handle{Name: "train", Address: "login.example.com"}

	if _, err := New(context.Background(), handle, Options{Executor: exec, DryRun: true}); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := exec.Commands(); len(got) != 0 {
		t.Errorf("expected no remote commands under dry run, got %v", got)
	}
}

// TestNewFailsAtomicallyOnLaunchFailure verifies no usable cluster is
// returned when the control process launch fails.
// TestNewFailsAtomicallyOnLaunchFailure 验证控制进程启动失败时
// 不会返回可用的集群。
func TestNewFailsAtomicallyOnLaunchFailure(t *testing.T) {
	exec := remote.NewFakeExecutor()
	exec.RespondWith("nohup", 1, "", "launch failed")
	handle := &Handle{Name: "box", Address: "host.example.com"}

	c, err := New(context.Background(), handle, Options{Executor: exec})

	var launchErr *launcher.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if c != nil {
		t.Error("expected nil cluster on launch failure")
	}
}

func TestNewValidatesHandle(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, &Handle{Address: "host"}, Options{}); !errors.Is(err, ErrClusterNameEmpty) {
		t.Errorf("expected ErrClusterNameEmpty, got %v", err)
	}
	if _, err := New(ctx, &Handle{Name: "c1"}, Options{}); !errors.Is(err, ErrAddressEmpty) {
		t.Errorf("expected ErrAddressEmpty, got %v", err)
	}
}

// TestSubmitJobDefaultsJobName verifies the cluster's own name is used
// when the request carries no job name, and that exactly one outbound
// message reaches the control process.
func TestSubmitJobDefaultsJobName(t *testing.T) {
	var received []submit.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req submit.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		received = append(received, req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(submit.Ack{JobID: "j1", Status: "queued"})
	}))
	defer server.Close()

	exec := remote.NewFakeExecutor()
	handle := &Handle{Name: "train1", Address: "login.example.com"}
	c, err := New(context.Background(), handle, Options{Executor: exec, Endpoint: server.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ack, err := c.SubmitJob(context.Background(), &submit.Request{
		Commands: []string{"echo hi"},
	})
	if err != nil {
		t.Fatalf("SubmitJob failed: %v", err)
	}
	if ack.JobID != "j1" {
		t.Errorf("unexpected ack: %+v", ack)
	}

	if len(received) != 1 {
		t.Fatalf("expected exactly one outbound message, got %d", len(received))
	}
	if received[0].JobName != "train1" {
		t.Errorf("expected cluster name as default job name, got %q", received[0].JobName)
	}
}

func TestSubmitJobInvalidRequest(t *testing.T) {
	exec := remote.NewFakeExecutor()
	handle := &Handle{Name: "train1", Address: "login.example.com"}
	c, err := New(context.Background(), handle, Options{Executor: exec, DryRun: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.SubmitJob(context.Background(), &submit.Request{
		Function: &submit.FunctionInvocation{Name: "train.main"},
		Commands: []string{"echo hi"},
	})
	if !errors.Is(err, submit.ErrPayloadConflict) {
		t.Errorf("expected ErrPayloadConflict, got %v", err)
	}
}

func TestRunDirectBypassesQueue(t *testing.T) {
	exec := remote.NewFakeExecutor()
	exec.RespondWith("uptime", 0, "12:00 up 3 days\n", "")
	handle := &Handle{Name: "box", Address: "host.example.com"}
	c, err := New(context.Background(), handle, Options{Executor: exec, DryRun: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	results, err := c.RunDirect(context.Background(), []string{"uptime"})
	if err != nil {
		t.Fatalf("RunDirect failed: %v", err)
	}
	if len(results) != 1 || results[0].Stdout == "" {
		t.Errorf("unexpected results: %+v", results)
	}

	if _, err := c.RunDirect(context.Background(), nil); !errors.Is(err, ErrNoCommands) {
		t.Errorf("expected ErrNoCommands, got %v", err)
	}
}

func TestSyncData(t *testing.T) {
	exec := remote.NewFakeExecutor()
	handle := &Handle{Name: "box", Address: "host.example.com"}
	c, err := New(context.Background(), handle, Options{Executor: exec, DryRun: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := c.SyncData(context.Background(), "/local/data", "/remote/data"); err != nil {
		t.Fatalf("SyncData failed: %v", err)
	}
	syncs := exec.Syncs()
	if len(syncs) != 1 || syncs[0][0] != "/local/data" {
		t.Errorf("unexpected syncs: %v", syncs)
	}
}
