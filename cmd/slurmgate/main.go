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

// Package main is the operator CLI for SlurmGateX.
// main 包是 SlurmGateX 的运维命令行工具。
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmgate/slurmgateX/internal/cluster"
	"github.com/slurmgate/slurmgateX/internal/config"
	"github.com/slurmgate/slurmgateX/internal/logger"
	"github.com/slurmgate/slurmgateX/internal/submit"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "slurmgate",
	Short: "SlurmGateX - remote Slurm cluster control plane / 远程 Slurm 集群控制平面",
	Long: `slurmgate manages remote Slurm clusters and their partition control
processes, and submits jobs to them.
slurmgate 管理远程 Slurm 集群及其分区控制进程，并向其提交作业。`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SlurmGateX\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// loadEnv loads config, logger and the cluster registry for a command.
// loadEnv 为命令加载配置、日志器和集群注册表。
func loadEnv() (*config.Config, *zap.Logger, *cluster.Repository, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Log)

	repo, err := cluster.Open(cfg.Registry.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open cluster registry: %w", err)
	}
	return cfg, log, repo, nil
}

// ==================== cluster commands 集群命令 ====================

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage registered clusters / 管理已注册的集群",
}

var (
	createAddress      string
	createPartition    string
	createSSHUser      string
	createIdentityFile string
	createControlPort  int
	createRestart      bool
	createDryRun       bool
)

var clusterCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Register a cluster and launch its control process / 注册集群并启动其控制进程",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		sshUser := createSSHUser
		if sshUser == "" {
			sshUser = cfg.SSH.User
		}
		identity := createIdentityFile
		if identity == "" {
			identity = cfg.SSH.IdentityFile
		}

		handle := &cluster.Handle{
			Name:         args[0],
			Address:      createAddress,
			Partition:    createPartition,
			SSHUser:      sshUser,
			IdentityFile: identity,
			ControlPort:  createControlPort,
		}

		ctx := context.Background()
		if err := repo.Create(ctx, handle); err != nil {
			return err
		}

		// Launch fails atomically; remove the registration on failure so
		// a retry starts clean.
		// 启动原子性失败；失败时移除注册记录，以便重试从干净状态开始。
		if _, err := cluster.New(ctx, handle, cluster.Options{
			DryRun:       createDryRun,
			ForceRestart: createRestart,
			Logger:       log,
		}); err != nil {
			if delErr := repo.Delete(ctx, handle.Name); delErr != nil {
				log.Warn("Failed to roll back cluster registration",
					zap.String("cluster", handle.Name),
					zap.Error(delErr))
			}
			return err
		}

		fmt.Printf("Cluster %q registered\n", handle.Name)
		return nil
	},
}

var clusterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered clusters / 列出已注册的集群",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		handles, err := repo.List(context.Background())
		if err != nil {
			return err
		}

		if len(handles) == 0 {
			fmt.Println("No clusters registered")
			return nil
		}
		fmt.Printf("%-20s %-30s %-12s %s\n", "NAME", "ADDRESS", "PARTITION", "SSH USER")
		for _, h := range handles {
			partition := h.Partition
			if partition == "" {
				partition = "-"
			}
			fmt.Printf("%-20s %-30s %-12s %s\n", h.Name, h.Address, partition, h.SSHUser)
		}
		return nil
	},
}

var clusterDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a cluster from the registry / 从注册表移除集群",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := repo.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Cluster %q deleted\n", args[0])
		return nil
	},
}

// ==================== job commands 作业命令 ====================

var (
	submitCluster  string
	submitJobName  string
	submitCommands []string
	submitFunction string
	submitArgs     []string
	submitEnv      string
	submitMailType []string
	submitMailUser string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a job to a cluster's control process / 向集群的控制进程提交作业",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := context.Background()
		handle, err := repo.GetByName(ctx, submitCluster)
		if err != nil {
			return err
		}

		c, err := cluster.New(ctx, handle, cluster.Options{Logger: log})
		if err != nil {
			return err
		}

		req := &submit.Request{
			JobName:  submitJobName,
			Commands: submitCommands,
			Env:      submitEnv,
		}
		if submitFunction != "" {
			req.Function = &submit.FunctionInvocation{Name: submitFunction}
			for _, a := range submitArgs {
				req.Args = append(req.Args, a)
			}
		}
		if len(submitMailType) > 0 || submitMailUser != "" {
			notify := &submit.Notification{Recipient: submitMailUser}
			for _, e := range submitMailType {
				notify.Events = append(notify.Events, submit.MailType(strings.ToUpper(e)))
			}
			req.Notify = notify
		}

		ack, err := c.SubmitJob(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Job accepted: id=%s status=%s\n", ack.JobID, ack.Status)
		return nil
	},
}

var runCluster string

var runCmd = &cobra.Command{
	Use:   "run -- COMMAND...",
	Short: "Run commands directly on a cluster, bypassing the queue / 绕过队列直接在集群上运行命令",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := context.Background()
		handle, err := repo.GetByName(ctx, runCluster)
		if err != nil {
			return err
		}

		// Direct execution needs no control process.
		// 直接执行不需要控制进程。
		c, err := cluster.New(ctx, handle, cluster.Options{DryRun: true, Logger: log})
		if err != nil {
			return err
		}

		results, err := c.RunDirect(ctx, args)
		if err != nil {
			return err
		}

		exitCode := 0
		for _, r := range results {
			if r.Stdout != "" {
				fmt.Print(r.Stdout)
			}
			if r.Stderr != "" {
				fmt.Fprint(os.Stderr, r.Stderr)
			}
			if r.ExitCode != 0 {
				exitCode = r.ExitCode
			}
		}
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		return nil
	},
}

var syncCluster string

var syncCmd = &cobra.Command{
	Use:   "sync SOURCE TARGET",
	Short: "Push a local path to a cluster / 将本地路径推送到集群",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repo, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := context.Background()
		handle, err := repo.GetByName(ctx, syncCluster)
		if err != nil {
			return err
		}

		c, err := cluster.New(ctx, handle, cluster.Options{DryRun: true, Logger: log})
		if err != nil {
			return err
		}

		if err := c.SyncData(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Synced %s to %s:%s\n", args[0], handle.Name, args[1])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: /etc/slurmgate/config.yaml)")

	clusterCreateCmd.Flags().StringVar(&createAddress, "address", "", "login node address (required)")
	clusterCreateCmd.Flags().StringVar(&createPartition, "partition", "", "scheduler partition; empty treats the cluster as single-node")
	clusterCreateCmd.Flags().StringVar(&createSSHUser, "ssh-user", "", "SSH login user (default from config)")
	clusterCreateCmd.Flags().StringVar(&createIdentityFile, "identity-file", "", "SSH private key path (default from config)")
	clusterCreateCmd.Flags().IntVar(&createControlPort, "control-port", cluster.DefaultControlPort, "control process HTTP port")
	clusterCreateCmd.Flags().BoolVar(&createRestart, "restart", false, "restart the control process even if it is running")
	clusterCreateCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "register without launching the control process")
	clusterCreateCmd.MarkFlagRequired("address")

	clusterCmd.AddCommand(clusterCreateCmd, clusterListCmd, clusterDeleteCmd)

	submitCmd.Flags().StringVar(&submitCluster, "cluster", "", "target cluster name (required)")
	submitCmd.Flags().StringVar(&submitJobName, "job-name", "", "job name (default: cluster name)")
	submitCmd.Flags().StringArrayVar(&submitCommands, "command", nil, "shell command payload (repeatable)")
	submitCmd.Flags().StringVar(&submitFunction, "function", "", "function payload name")
	submitCmd.Flags().StringArrayVar(&submitArgs, "arg", nil, "function positional argument (repeatable)")
	submitCmd.Flags().StringVar(&submitEnv, "env", "", "environment name the payload runs under")
	submitCmd.Flags().StringArrayVar(&submitMailType, "mail-type", nil, "notification event: NONE, BEGIN, END, FAIL, REQUEUE, ALL (repeatable)")
	submitCmd.Flags().StringVar(&submitMailUser, "mail-user", "", "notification recipient")
	submitCmd.MarkFlagRequired("cluster")

	runCmd.Flags().StringVar(&runCluster, "cluster", "", "target cluster name (required)")
	runCmd.MarkFlagRequired("cluster")

	syncCmd.Flags().StringVar(&syncCluster, "cluster", "", "target cluster name (required)")
	syncCmd.MarkFlagRequired("cluster")

	rootCmd.AddCommand(clusterCmd, submitCmd, runCmd, syncCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
