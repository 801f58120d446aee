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

// Package probe infers partition control process liveness from textual
// queue and process listings.
// probe 包从队列和进程列表文本推断分区控制进程的存活状态。
//
// The probe is deliberately a pure function over text: the only signal
// available on most clusters is the output of squeue / ps, and keeping the
// inference side-effect free lets the launcher swap in a structured
// scheduler API later without touching launch logic.
// probe 刻意设计为对文本的纯函数：大多数集群上唯一可用的信号是
// squeue / ps 的输出，保持推断无副作用使启动器以后可以换用结构化的
// 调度器 API 而不触碰启动逻辑。
package probe

import "strings"

// ControlProcessMarker is the command-line marker identifying the partition
// control process in a process listing.
// ControlProcessMarker 是在进程列表中标识分区控制进程的命令行标记。
const ControlProcessMarker = "slurmgateX/partitiond"

// Strategy is the launch strategy for the partition control process.
// Strategy 是分区控制进程的启动策略。
type Strategy string

const (
	// StrategyScheduled launches the control process as a scheduler-managed
	// job on a named partition.
	// StrategyScheduled 将控制进程作为指定分区上由调度器管理的作业启动。
	StrategyScheduled Strategy = "scheduled"

	// StrategyBackground launches the control process as a detached
	// background process on a single node.
	// StrategyBackground 将控制进程作为单节点上的分离后台进程启动。
	StrategyBackground Strategy = "background"
)

// IsRunning reports whether a control process matching jobName appears in
// the given listing under the given strategy.
// IsRunning 报告在给定策略下，列表文本中是否出现匹配 jobName 的控制进程。
//
// For StrategyScheduled the listing is a scheduler queue listing and the
// check is substring containment of the job name. For StrategyBackground
// the listing is a process table and the check is containment of the
// control process marker. Name collisions can produce false positives;
// operators are expected to pick sufficiently unique job names.
// 对于 StrategyScheduled，列表是调度器队列列表，检查作业名的子串包含。
// 对于 StrategyBackground，列表是进程表，检查控制进程标记的包含。
// 名称冲突可能产生误报；运维人员应选择足够唯一的作业名。
func IsRunning(listing, jobName string, strategy Strategy) bool {
	if listing == "" {
		return false
	}

	switch strategy {
	case StrategyScheduled:
		return jobName != "" && strings.Contains(listing, jobName)
	case StrategyBackground:
		return strings.Contains(listing, ControlProcessMarker)
	default:
		return false
	}
}
