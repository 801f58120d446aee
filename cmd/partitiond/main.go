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

// Package main is the entry point for the partition control process.
// main 包是分区控制进程的入口点。
//
// partitiond is the long-lived daemon on the cluster login node that:
// partitiond 是运行在集群登录节点上的常驻守护进程，负责：
// - Accepts job submissions over HTTP / 通过 HTTP 接受作业提交
// - Enqueues jobs for asynchronous execution / 将作业排队等待异步执行
// - Hands jobs to the scheduler or runs them locally / 将作业交给调度器或在本地运行
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmgate/slurmgateX/internal/config"
	"github.com/slurmgate/slurmgateX/internal/logger"
	"github.com/slurmgate/slurmgateX/internal/partiond"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// configFile is the path to the configuration file
var configFile string

var rootCmd = &cobra.Command{
	Use:   "partitiond",
	Short: "SlurmGateX partition control process / SlurmGateX 分区控制进程",
	Long: `partitiond is the per-cluster control process for SlurmGateX.
partitiond 是 SlurmGateX 的按集群部署的控制进程。

It accepts job submissions over HTTP and enqueues them for execution:
它通过 HTTP 接受作业提交并将其排队执行：
- With a partition configured, jobs are handed to the scheduler / 配置了分区时作业交给调度器
- Without one, jobs run directly on this node / 未配置时作业直接在本节点运行`,
	RunE: runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SlurmGateX partitiond\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: /etc/slurmgate/config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

// runDaemon starts the HTTP frontend and the execution queue.
// runDaemon 启动 HTTP 前端和执行队列。
func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := partiond.NewLocalRunner(cfg.Partitiond.Partition, cfg.Partitiond.SpoolDir, log)

	var queue partiond.Queue
	if cfg.Partitiond.RedisAddr != "" {
		// Fail fast when the broker is unreachable rather than on the
		// first submission.
		// 代理不可达时尽早失败，而不是等到第一次提交。
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Partitiond.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("redis broker unreachable at %s: %w", cfg.Partitiond.RedisAddr, err)
		}
		rdb.Close()

		// Durable queue: publish to Redis and consume in this process.
		// 持久化队列：发布到 Redis 并在本进程中消费。
		aq := partiond.NewAsynqQueue(cfg.Partitiond.RedisAddr)
		defer aq.Close()
		queue = aq

		go func() {
			if err := partiond.RunWorker(ctx, cfg.Partitiond.RedisAddr, cfg.Partitiond.Workers, runner, log); err != nil {
				log.Error("Queue worker stopped", zap.Error(err))
			}
		}()
		log.Info("Using Redis-backed execution queue",
			zap.String("redis_addr", cfg.Partitiond.RedisAddr))
	} else {
		q := partiond.NewInProcessQueue(runner, cfg.Partitiond.Workers, log)
		defer q.Close()
		queue = q
		log.Info("Using in-process execution queue",
			zap.Int("workers", cfg.Partitiond.Workers))
	}

	server := partiond.NewServer(queue, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(cfg.Partitiond.Addr)
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
