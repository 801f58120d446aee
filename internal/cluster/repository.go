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

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Repository provides data access operations for registered cluster handles.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a Repository on an existing gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Open opens (or creates) the sqlite registry at path and migrates the
// schema. Use ":memory:" for an ephemeral registry.
func Open(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Handle{}); err != nil {
		return nil, err
	}
	return NewRepository(db), nil
}

// Create registers a new cluster handle.
// Returns ErrClusterNameDuplicate if a cluster with the same name already exists.
// Returns ErrClusterNameEmpty if the cluster name is empty.
func (r *Repository) Create(ctx context.Context, handle *Handle) error {
	if handle.Name == "" {
		return ErrClusterNameEmpty
	}
	if handle.Address == "" {
		return ErrAddressEmpty
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&Handle{}).Where("name = ?", handle.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrClusterNameDuplicate
	}

	return r.db.WithContext(ctx).Create(handle).Error
}

// GetByName retrieves a cluster handle by its name.
// Returns ErrClusterNotFound if no cluster with the given name exists.
func (r *Repository) GetByName(ctx context.Context, name string) (*Handle, error) {
	var handle Handle
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&handle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClusterNotFound
		}
		return nil, err
	}
	return &handle, nil
}

// List retrieves all registered cluster handles, newest first.
func (r *Repository) List(ctx context.Context) ([]*Handle, error) {
	var handles []*Handle
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&handles).Error; err != nil {
		return nil, err
	}
	return handles, nil
}

// Update persists changes to an existing cluster handle.
// Returns ErrClusterNotFound if the cluster does not exist.
func (r *Repository) Update(ctx context.Context, handle *Handle) error {
	var existing Handle
	if err := r.db.WithContext(ctx).First(&existing, handle.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClusterNotFound
		}
		return err
	}
	return r.db.WithContext(ctx).Save(handle).Error
}

// Delete removes a cluster handle by name.
// Returns ErrClusterNotFound if no cluster with the given name exists.
func (r *Repository) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&Handle{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClusterNotFound
	}
	return nil
}
