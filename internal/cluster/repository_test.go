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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo creates a sqlite-backed repository in a temp directory
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "registry_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	dbPath := filepath.Join(tempDir, "registry.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&Handle{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return NewRepository(db)
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	handle := &Handle{
		Name:      "gpu-cluster",
		Address:   "login.hpc.example.com",
		Partition: "a100",
		SSHUser:   "ops",
	}
	if err := repo.Create(ctx, handle); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle.ID == 0 {
		t.Error("expected auto-assigned ID")
	}

	got, err := repo.GetByName(ctx, "gpu-cluster")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.Address != handle.Address || got.Partition != "a100" || got.SSHUser != "ops" {
		t.Errorf("unexpected handle: %+v", got)
	}
}

func TestRepositoryCreateValidation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &Handle{Address: "host"}); !errors.Is(err, ErrClusterNameEmpty) {
		t.Errorf("expected ErrClusterNameEmpty, got %v", err)
	}
	if err := repo.Create(ctx, &Handle{Name: "c1"}); !errors.Is(err, ErrAddressEmpty) {
		t.Errorf("expected ErrAddressEmpty, got %v", err)
	}
}

func TestRepositoryCreateDuplicateName(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &Handle{Name: "c1", Address: "host-a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repo.Create(ctx, &Handle{Name: "c1", Address: "host-b"})
	if !errors.Is(err, ErrClusterNameDuplicate) {
		t.Errorf("expected ErrClusterNameDuplicate, got %v", err)
	}
}

func TestRepositoryGetByNameNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByName(context.Background(), "missing")
	if !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestRepositoryListAndDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"c1", "c2", "c3"} {
		if err := repo.Create(ctx, &Handle{Name: name, Address: name + ".example.com"}); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	handles, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(handles) != 3 {
		t.Fatalf("expected 3 handles, got %d", len(handles))
	}

	if err := repo.Delete(ctx, "c2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByName(ctx, "c2"); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected c2 to be gone, got %v", err)
	}

	if err := repo.Delete(ctx, "c2"); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound on second delete, got %v", err)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	handle := &Handle{Name: "c1", Address: "old.example.com"}
	if err := repo.Create(ctx, handle); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	handle.Address = "new.example.com"
	handle.Partition = "debug"
	if err := repo.Update(ctx, handle); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByName(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.Address != "new.example.com" || got.Partition != "debug" {
		t.Errorf("unexpected handle after update: %+v", got)
	}

	if err := repo.Update(ctx, &Handle{ID: 999, Name: "ghost", Address: "x"}); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestHandleControlEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		handle Handle
		want   string
	}{
		{"default port", Handle{Address: "node0.example.com"}, "http://node0.example.com:50052"},
		{"explicit port", Handle{Address: "node0", ControlPort: 8080}, "http://node0:8080"},
		{"ssh port stripped", Handle{Address: "node0:2222"}, "http://node0:50052"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.handle.ControlEndpoint(); got != tt.want {
				t.Errorf("ControlEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}
