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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics exposed on /metrics
// 通过 /metrics 暴露的 Prometheus 指标
var (
	submissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slurmgate_submissions_accepted_total",
		Help: "Number of job submissions accepted for asynchronous execution.",
	})

	submissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slurmgate_submissions_rejected_total",
		Help: "Number of job submissions rejected at validation or enqueue.",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slurmgate_queue_depth",
		Help: "Number of jobs waiting in the in-process execution queue.",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slurmgate_jobs_failed_total",
		Help: "Number of jobs whose execution finished with an error.",
	})
)
