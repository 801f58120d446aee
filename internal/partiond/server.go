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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/slurmgate/slurmgateX/internal/submit"
)

// Server is the HTTP frontend of the control process.
// Server 是控制进程的 HTTP 前端。
type Server struct {
	queue  Queue
	logger *zap.Logger
	engine *gin.Engine
}

// NewServer wires the HTTP routes to the execution queue.
// NewServer 将 HTTP 路由接入执行队列。
func NewServer(queue Queue, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{queue: queue, logger: logger, engine: engine}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		api.POST("/jobs", s.handleSubmit)
	}

	return s
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("Control process listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// errorResponse is the shared error body shape.
type errorResponse struct {
	ErrorMsg string `json:"error_msg"`
}

// handleHealth reports daemon liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSubmit accepts a job submission, validates its payload, assigns an
// ID and enqueues it. The acknowledgment never awaits execution.
// handleSubmit 接受作业提交，验证其载荷，分配 ID 并入队。
// 确认响应从不等待执行。
func (s *Server) handleSubmit(c *gin.Context) {
	var req submit.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		submissionsRejected.Inc()
		c.JSON(http.StatusBadRequest, errorResponse{ErrorMsg: "invalid request body: " + err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		submissionsRejected.Inc()
		c.JSON(http.StatusBadRequest, errorResponse{ErrorMsg: err.Error()})
		return
	}

	job := &Job{
		ID:         uuid.NewString(),
		Request:    req,
		AcceptedAt: time.Now().UTC(),
	}

	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		submissionsRejected.Inc()
		s.logger.Error("Failed to enqueue job",
			zap.String("job_name", req.JobName),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorResponse{ErrorMsg: "failed to enqueue job: " + err.Error()})
		return
	}

	submissionsAccepted.Inc()
	s.logger.Info("Job accepted",
		zap.String("job_id", job.ID),
		zap.String("job_name", req.JobName))

	c.JSON(http.StatusAccepted, submit.Ack{JobID: job.ID, Status: string(StatusQueued)})
}
