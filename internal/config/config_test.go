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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Point at a missing file so defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Registry.Path != DefaultRegistryPath {
		t.Errorf("unexpected registry path: %q", cfg.Registry.Path)
	}
	if cfg.Partitiond.Addr != DefaultControlAddr {
		t.Errorf("unexpected control addr: %q", cfg.Partitiond.Addr)
	}
	if cfg.Partitiond.Workers != DefaultWorkers {
		t.Errorf("unexpected workers: %d", cfg.Partitiond.Workers)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("unexpected log level: %q", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
registry:
  path: /var/lib/slurmgate/registry.db
partitiond:
  addr: ":9090"
  partition: a100
  redis_addr: "127.0.0.1:6379"
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Registry.Path != "/var/lib/slurmgate/registry.db" {
		t.Errorf("unexpected registry path: %q", cfg.Registry.Path)
	}
	if cfg.Partitiond.Addr != ":9090" || cfg.Partitiond.Partition != "a100" {
		t.Errorf("unexpected partitiond config: %+v", cfg.Partitiond)
	}
	if cfg.Partitiond.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("unexpected redis addr: %q", cfg.Partitiond.RedisAddr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level: %q", cfg.Log.Level)
	}
	// Unset keys keep their defaults.
	if cfg.Partitiond.Workers != DefaultWorkers {
		t.Errorf("unexpected workers: %d", cfg.Partitiond.Workers)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SLURMGATE_LOG_LEVEL", "warn")
	t.Setenv("SLURMGATE_PARTITIOND_ADDR", ":7777")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected env override for log level, got %q", cfg.Log.Level)
	}
	if cfg.Partitiond.Addr != ":7777" {
		t.Errorf("expected env override for addr, got %q", cfg.Partitiond.Addr)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("registry: [broken"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Registry:   RegistryConfig{Path: "./registry.db"},
			Partitiond: PartitiondConfig{Addr: ":50052", Workers: 4},
			Log:        LogConfig{Level: "info"},
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c := base()
	c.Registry.Path = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for empty registry path")
	}

	c = base()
	c.Partitiond.Addr = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for empty partitiond addr")
	}

	c = base()
	c.Log.Level = "verbose"
	if err := c.Validate(); err == nil {
		t.Error("expected error for invalid log level")
	}
}
