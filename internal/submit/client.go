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

package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a submission round trip when the caller's context
// carries no deadline.
// DefaultTimeout 在调用方上下文没有截止时间时限制一次提交往返。
const DefaultTimeout = 60 * time.Second

// jobsPath is the control process endpoint accepting submissions.
const jobsPath = "/api/v1/jobs"

// SubmissionError reports a job submission that reached the network but
// was not accepted.
// SubmissionError 报告已到达网络但未被接受的作业提交。
type SubmissionError struct {
	// Endpoint is the control process URL the submission targeted.
	Endpoint string

	// StatusCode is the HTTP status, 0 when the endpoint was unreachable.
	// StatusCode 是 HTTP 状态码，端点不可达时为 0。
	StatusCode int

	// Body is the response body, truncated, empty when unreachable.
	Body string

	// Err is the underlying transport error, nil on a non-2xx response.
	Err error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit: %s unreachable: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("submit: %s rejected job: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Client submits jobs to a partition control process over HTTP.
// Client 通过 HTTP 向分区控制进程提交作业。
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a submission client for the control process at
// endpoint, e.g. "http://node0:50052".
// NewClient 为位于 endpoint 的控制进程创建提交客户端，
// 例如 "http://node0:50052"。
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
}

// NewClientWith creates a client using the given HTTP client, for callers
// that need custom transports or timeouts.
func NewClientWith(endpoint string, httpClient *http.Client) *Client {
	return &Client{endpoint: endpoint, http: httpClient}
}

// Submit validates req and posts it to the control process. Validation
// failures return before any network traffic.
// Submit 验证 req 并将其提交到控制进程。验证失败在任何网络流量
// 之前返回。
func (c *Client) Submit(ctx context.Context, req *Request) (*Ack, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("submit: failed to encode request: %w", err)
	}

	url := c.endpoint + jobsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("submit: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &SubmissionError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, &SubmissionError{Endpoint: c.endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var ack Ack
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return nil, fmt.Errorf("submit: failed to decode acknowledgement: %w", err)
	}
	return &ack, nil
}
