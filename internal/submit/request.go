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

// Package submit defines job submission requests and the client that
// delivers them to a partition control process.
// submit 包定义作业提交请求以及将其投递到分区控制进程的客户端。
package submit

import (
	"errors"
	"fmt"
)

// Common errors for request validation
// 请求验证的常见错误
var (
	// ErrPayloadMissing indicates the request carries neither a function
	// nor commands.
	// ErrPayloadMissing 表示请求既没有携带函数也没有携带命令。
	ErrPayloadMissing = errors.New("submit: request must carry a function or commands")

	// ErrPayloadConflict indicates the request carries both a function
	// and commands.
	// ErrPayloadConflict 表示请求同时携带了函数和命令。
	ErrPayloadConflict = errors.New("submit: request cannot carry both a function and commands")

	// ErrRecipientMissing indicates notification events were requested
	// without a recipient.
	// ErrRecipientMissing 表示请求了通知事件但未指定接收人。
	ErrRecipientMissing = errors.New("submit: notification events require a recipient")
)

// MailType identifies a scheduler event that triggers a notification.
// MailType 标识触发通知的调度器事件。
type MailType string

// Supported notification events
// 支持的通知事件
const (
	MailNone    MailType = "NONE"
	MailBegin   MailType = "BEGIN"
	MailEnd     MailType = "END"
	MailFail    MailType = "FAIL"
	MailRequeue MailType = "REQUEUE"
	MailAll     MailType = "ALL"
)

// Valid reports whether the mail type is one of the supported events.
func (m MailType) Valid() bool {
	switch m {
	case MailNone, MailBegin, MailEnd, MailFail, MailRequeue, MailAll:
		return true
	}
	return false
}

// FunctionInvocation names a callable to run on the cluster. Its arguments
// travel on the request itself.
// FunctionInvocation 指定要在集群上运行的可调用对象。其参数随请求本身传递。
type FunctionInvocation struct {
	// Name is the fully qualified name of the callable.
	// Name 是可调用对象的全限定名。
	Name string `json:"name"`
}

// Notification configures scheduler event mail for a job.
// Notification 配置作业的调度器事件邮件。
type Notification struct {
	// Events are the scheduler events that trigger mail.
	// Events 是触发邮件的调度器事件。
	Events []MailType `json:"events"`

	// Recipient is the mail address to notify.
	// Recipient 是接收通知的邮件地址。
	Recipient string `json:"recipient"`
}

// Request is a job submission. Exactly one of Function and Commands must
// be set.
// Request 是一次作业提交。Function 和 Commands 必须恰好设置其一。
type Request struct {
	// JobName is the scheduler-visible name for the job.
	// JobName 是作业在调度器中可见的名称。
	JobName string `json:"job_name,omitempty"`

	// Function is the callable payload.
	// Function 是可调用对象载荷。
	Function *FunctionInvocation `json:"function,omitempty"`

	// Commands are the shell command payload, run in order.
	// Commands 是 shell 命令载荷，按顺序运行。
	Commands []string `json:"commands,omitempty"`

	// Args are the positional arguments for the function payload.
	// Args 是函数载荷的位置参数。
	Args []any `json:"args,omitempty"`

	// Kwargs are the keyword arguments for the function payload.
	// Kwargs 是函数载荷的关键字参数。
	Kwargs map[string]any `json:"kwargs,omitempty"`

	// Env names the environment the payload runs under, optional.
	// Env 指定载荷运行所处的环境名称，可选。
	Env string `json:"env,omitempty"`

	// Notify configures scheduler event mail, optional.
	// Notify 配置调度器事件邮件，可选。
	Notify *Notification `json:"notify,omitempty"`
}

// Validate checks the request before any network traffic is issued.
// Validate 在发出任何网络流量之前检查请求。
func (r *Request) Validate() error {
	hasFunction := r.Function != nil && r.Function.Name != ""
	hasCommands := len(r.Commands) > 0

	if !hasFunction && !hasCommands {
		return ErrPayloadMissing
	}
	if hasFunction && hasCommands {
		return ErrPayloadConflict
	}

	if r.Notify != nil {
		for _, event := range r.Notify.Events {
			if !event.Valid() {
				return fmt.Errorf("submit: unsupported mail type %q", event)
			}
		}
		if len(r.Notify.Events) > 0 && r.Notify.Recipient == "" {
			return ErrRecipientMissing
		}
	}

	return nil
}

// Ack is the control process's acknowledgement of an accepted job.
// Ack 是控制进程对已接受作业的确认。
type Ack struct {
	// JobID is the identifier assigned by the control process.
	// JobID 是控制进程分配的标识符。
	JobID string `json:"job_id"`

	// Status is the initial job status at acceptance time.
	// Status 是接受时的初始作业状态。
	Status string `json:"status"`

	// Message carries optional human-readable detail.
	Message string `json:"message,omitempty"`
}
