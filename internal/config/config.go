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

// Package config provides configuration management for SlurmGateX.
// config 包提供 SlurmGateX 的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Environment variables / 环境变量
// 2. Configuration file / 配置文件
// 3. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "/etc/slurmgate/config.yaml"
	DefaultRegistryPath  = "./data/slurmgate.db"
	DefaultLogLevel      = "info"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
	DefaultControlAddr   = ":50052"
	DefaultSpoolDir      = "./data/spool"
	DefaultWorkers       = 4
)

// Config represents the SlurmGateX configuration
// Config 表示 SlurmGateX 配置
type Config struct {
	// Registry configuration / 集群注册表配置
	Registry RegistryConfig `mapstructure:"registry"`

	// SSH defaults / SSH 默认设置
	SSH SSHConfig `mapstructure:"ssh"`

	// Partitiond daemon configuration / partitiond 守护进程配置
	Partitiond PartitiondConfig `mapstructure:"partitiond"`

	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log"`
}

// RegistryConfig contains cluster registry settings
// RegistryConfig 包含集群注册表设置
type RegistryConfig struct {
	// Path is the sqlite registry file path
	// Path 是 sqlite 注册表文件路径
	Path string `mapstructure:"path"`
}

// SSHConfig contains default SSH credentials for new clusters
// SSHConfig 包含新集群的默认 SSH 凭据
type SSHConfig struct {
	// User is the default SSH login user
	// User 是默认的 SSH 登录用户
	User string `mapstructure:"user"`

	// IdentityFile is the default private key path
	// IdentityFile 是默认的私钥路径
	IdentityFile string `mapstructure:"identity_file"`
}

// PartitiondConfig contains control process daemon settings
// PartitiondConfig 包含控制进程守护进程的设置
type PartitiondConfig struct {
	// Addr is the HTTP listen address
	// Addr 是 HTTP 监听地址
	Addr string `mapstructure:"addr"`

	// Partition is the scheduler partition jobs are submitted to;
	// empty selects direct local execution.
	// Partition 是作业提交到的调度器分区；为空时选择本地直接执行。
	Partition string `mapstructure:"partition"`

	// SpoolDir holds batch scripts, payloads and job logs
	// SpoolDir 存放批处理脚本、载荷和作业日志
	SpoolDir string `mapstructure:"spool_dir"`

	// RedisAddr enables the Redis-backed queue when non-empty
	// RedisAddr 非空时启用基于 Redis 的队列
	RedisAddr string `mapstructure:"redis_addr"`

	// Workers is the number of concurrent job workers
	// Workers 是并发作业工作协程的数量
	Workers int `mapstructure:"workers"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level"`

	// File is the log file path; empty logs to stderr only
	// File 是日志文件路径；为空时仅记录到标准错误
	File string `mapstructure:"file"`

	// MaxSize is the maximum size of log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		envPath := os.Getenv("SLURMGATE_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("SLURMGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file falls back to defaults; a malformed
		// existing file is an error.
		// 配置文件缺失时回退到默认值；已存在但格式错误的文件报错。
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.path", DefaultRegistryPath)

	v.SetDefault("ssh.user", "")
	v.SetDefault("ssh.identity_file", "")

	v.SetDefault("partitiond.addr", DefaultControlAddr)
	v.SetDefault("partitiond.partition", "")
	v.SetDefault("partitiond.spool_dir", DefaultSpoolDir)
	v.SetDefault("partitiond.redis_addr", "")
	v.SetDefault("partitiond.workers", DefaultWorkers)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	if c.Registry.Path == "" {
		return errors.New("registry.path is required")
	}

	if c.Partitiond.Addr == "" {
		return errors.New("partitiond.addr is required")
	}
	if c.Partitiond.Workers < 0 {
		return errors.New("partitiond.workers cannot be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}
