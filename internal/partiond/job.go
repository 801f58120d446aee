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

// Package partiond implements the partition control process: the long-lived
// daemon on the cluster login node that accepts job submissions over HTTP
// and enqueues them for scheduler-managed or local execution.
// partiond 包实现分区控制进程：运行在集群登录节点上的常驻守护进程，
// 通过 HTTP 接受作业提交，并将其排队等待调度器托管执行或本地执行。
package partiond

import (
	"fmt"
	"strings"
	"time"

	"github.com/slurmgate/slurmgateX/internal/submit"
)

// JobStatus represents the lifecycle state of an accepted job.
// JobStatus 表示已接受作业的生命周期状态。
type JobStatus string

const (
	// StatusQueued indicates the job is accepted and waiting to run.
	StatusQueued JobStatus = "queued"
	// StatusRunning indicates the job is executing.
	StatusRunning JobStatus = "running"
	// StatusCompleted indicates the job finished with exit code 0.
	StatusCompleted JobStatus = "completed"
	// StatusFailed indicates the job finished with a non-zero exit code.
	StatusFailed JobStatus = "failed"
)

// Job is an accepted submission with its assigned identity.
// Job 是带有已分配标识的已接受提交。
type Job struct {
	ID         string         `json:"id"`
	Request    submit.Request `json:"request"`
	AcceptedAt time.Time      `json:"accepted_at"`
}

// shellCommand flattens the job's command payload into one shell line.
// Commands run in order and stop at the first failure.
// shellCommand 将作业的命令载荷展平为一行 shell 命令。
// 命令按顺序运行，遇到第一个失败即停止。
func (j *Job) shellCommand() string {
	return strings.Join(j.Request.Commands, " && ")
}

// BatchScript renders the scheduler submission script for the job. The
// mail directives are emitted only when notification settings are present.
// BatchScript 渲染作业的调度器提交脚本。仅在存在通知设置时输出
// 邮件指令。
func (j *Job) BatchScript(partition, command string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", j.Request.JobName)
	fmt.Fprintf(&b, "#SBATCH --partition=%s\n", partition)
	b.WriteString("#SBATCH --output=%j.out\n")
	b.WriteString("#SBATCH --error=%j.err\n")

	if n := j.Request.Notify; n != nil && len(n.Events) > 0 {
		events := make([]string, 0, len(n.Events))
		for _, e := range n.Events {
			events = append(events, string(e))
		}
		fmt.Fprintf(&b, "#SBATCH --mail-type=%s\n", strings.Join(events, ","))
		if n.Recipient != "" {
			fmt.Fprintf(&b, "#SBATCH --mail-user=%s\n", n.Recipient)
		}
	}

	b.WriteString("\n")
	b.WriteString(command)
	b.WriteString("\n")
	return b.String()
}
