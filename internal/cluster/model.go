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

// Package cluster provides the cluster registry and the orchestration that
// ties launch, submission, and direct execution together per cluster.
package cluster

import (
	"net"
	"strconv"
	"time"

	"github.com/slurmgate/slurmgateX/internal/remote"
)

// DefaultControlPort is the port the partition control process listens on.
const DefaultControlPort = 50052

// Handle identifies a registered cluster and how to reach it.
// An empty Partition means the cluster is treated as single-node and the
// control process runs as a plain background process.
type Handle struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Address      string    `json:"address" gorm:"size:255;not null"`
	Partition    string    `json:"partition" gorm:"size:100"`
	SSHUser      string    `json:"ssh_user" gorm:"size:100"`
	IdentityFile string    `json:"identity_file" gorm:"size:255"`
	ControlPort  int       `json:"control_port" gorm:"default:50052"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName maps the model to the clusters table.
func (Handle) TableName() string {
	return "clusters"
}

// Credentials builds the SSH credentials for this handle.
func (h *Handle) Credentials() remote.Credentials {
	return remote.Credentials{User: h.SSHUser, IdentityFile: h.IdentityFile}
}

// ControlEndpoint returns the HTTP base URL of the control process.
// ControlEndpoint 返回控制进程的 HTTP 基础 URL。
func (h *Handle) ControlEndpoint() string {
	host := h.Address
	if parsed, _, err := net.SplitHostPort(h.Address); err == nil {
		host = parsed
	}
	port := h.ControlPort
	if port == 0 {
		port = DefaultControlPort
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}
