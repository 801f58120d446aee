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
	"context"
	"strings"
	"sync"
)

// FakeResponder simulates the remote side for a single command, returning
// the result the real host would have produced.
// FakeResponder 模拟单条命令的远程执行，返回真实主机会产生的结果。
type FakeResponder func(command string) CommandResult

// FakeExecutor is a test implementation of Executor. Responders are matched
// by command substring in registration order; unmatched commands succeed
// with empty output. All executed commands and sync transfers are recorded.
// FakeExecutor 是 Executor 的测试实现。按注册顺序以命令子串匹配响应器；
// 未匹配的命令以空输出成功返回。所有执行的命令和同步传输都被记录。
type FakeExecutor struct {
	mu         sync.Mutex
	matchers   []string
	responders []FakeResponder
	commands   []string
	syncs      [][2]string
	runErr     error
	syncErr    error
}

// NewFakeExecutor creates an empty FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

// Respond registers a responder for commands containing the given substring.
// Respond 为包含给定子串的命令注册响应器。
func (e *FakeExecutor) Respond(substring string, responder FakeResponder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matchers = append(e.matchers, substring)
	e.responders = append(e.responders, responder)
}

// RespondWith registers a fixed result for commands containing the substring.
// RespondWith 为包含子串的命令注册固定结果。
func (e *FakeExecutor) RespondWith(substring string, exitCode int, stdout, stderr string) {
	e.Respond(substring, func(command string) CommandResult {
		return CommandResult{Command: command, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	})
}

// FailWith makes every subsequent Run call return err.
// FailWith 使后续每次 Run 调用都返回 err。
func (e *FakeExecutor) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runErr = err
}

// FailSyncWith makes every subsequent SyncUp call return err.
func (e *FakeExecutor) FailSyncWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncErr = err
}

// Run implements Executor.Run against the registered responders.
func (e *FakeExecutor) Run(ctx context.Context, commands []string) ([]CommandResult, error) {
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.runErr != nil {
		return nil, e.runErr
	}

	results := make([]CommandResult, 0, len(commands))
	for _, command := range commands {
		e.commands = append(e.commands, command)
		results = append(results, e.respondLocked(command))
	}
	return results, nil
}

func (e *FakeExecutor) respondLocked(command string) CommandResult {
	for i, substring := range e.matchers {
		if strings.Contains(command, substring) {
			return e.responders[i](command)
		}
	}
	return CommandResult{Command: command}
}

// SyncUp implements Executor.SyncUp, recording the transfer.
func (e *FakeExecutor) SyncUp(ctx context.Context, source, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.syncErr != nil {
		return e.syncErr
	}
	e.syncs = append(e.syncs, [2]string{source, target})
	return nil
}

// Commands returns a copy of all commands executed so far.
// Commands 返回迄今为止执行的所有命令的副本。
func (e *FakeExecutor) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.commands))
	copy(out, e.commands)
	return out
}

// CommandsContaining returns the executed commands containing the substring.
// CommandsContaining 返回包含子串的已执行命令。
func (e *FakeExecutor) CommandsContaining(substring string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, command := range e.commands {
		if strings.Contains(command, substring) {
			out = append(out, command)
		}
	}
	return out
}

// Syncs returns a copy of all recorded sync transfers as {source, target}.
func (e *FakeExecutor) Syncs() [][2]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][2]string, len(e.syncs))
	copy(out, e.syncs)
	return out
}

// Reset clears recorded commands and transfers but keeps responders.
// Reset 清除已记录的命令和传输，但保留响应器。
func (e *FakeExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = nil
	e.syncs = nil
}
