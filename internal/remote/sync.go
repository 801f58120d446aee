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

package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// SyncUp pushes a local path to the cluster login node with rsync over SSH.
// The push is one-way and additive; files already on the remote side are
// never removed.
// SyncUp 使用 rsync over SSH 将本地路径推送到集群登录节点。
// 推送是单向增量的，远端已有的文件不会被删除。
//
// Data landing on the login node is assumed to be visible to compute nodes
// through the cluster's shared filesystem.
// 落在登录节点上的数据假定通过集群的共享文件系统对计算节点可见。
func (e *SSHExecutor) SyncUp(ctx context.Context, source, target string) error {
	cmd := exec.CommandContext(ctx, "rsync", e.rsyncArgs(source, target)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		host, _ := e.hostPort()
		return fmt.Errorf("%w: %s -> %s@%s:%s: %v: %s",
			ErrSyncFailed, source, e.creds.User, host, target, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

// hostPort splits the executor address into host and SSH port.
func (e *SSHExecutor) hostPort() (string, string) {
	if h, p, err := net.SplitHostPort(e.addr); err == nil {
		return h, p
	}
	return e.addr, DefaultSSHPort
}

// rsyncArgs builds the rsync argument list for a one-way push to target.
// rsyncArgs 构建单向推送到 target 的 rsync 参数列表。
func (e *SSHExecutor) rsyncArgs(source, target string) []string {
	host, port := e.hostPort()

	sshCmd := []string{"ssh", "-p", port, "-o", "StrictHostKeyChecking=no"}
	if e.creds.IdentityFile != "" {
		sshCmd = append(sshCmd, "-i", e.creds.IdentityFile)
	}

	return []string{
		"-az",
		"-e", strings.Join(sshCmd, " "),
		source,
		fmt.Sprintf("%s@%s:%s", e.creds.User, host, target),
	}
}
