/*
 * Copyright 2025 r2dec2 Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package host

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBridge struct {
	calls int
	resp  string
}

func (self *countingBridge) CmdText(ctx context.Context, cmd string) (string, error) {
	self.calls++
	return self.resp, nil
}

func (self *countingBridge) CmdJSON(ctx context.Context, cmd string, out interface{}) error {
	return jsonCmd(ctx, self, cmd, out)
}

func TestCachedBridge(t *testing.T) {
	b := &countingBridge{resp: `{"name":"main"}`}
	c := NewCached(b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := c.CmdText(ctx, "afij")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"main"}`, out)
	}
	assert.Equal(t, 1, b.calls, "repeated command must hit the cache")

	_, err := c.CmdText(ctx, "abj")
	require.NoError(t, err)
	assert.Equal(t, 2, b.calls)
}

func TestCachedJSON(t *testing.T) {
	b := &countingBridge{resp: `{"name":"main","offset":256}`}
	c := NewCached(b)

	var out struct {
		Name   string `json:"name"`
		Offset uint64 `json:"offset"`
	}
	require.NoError(t, c.CmdJSON(context.Background(), "afij", &out))
	assert.Equal(t, "main", out.Name)
	assert.Equal(t, uint64(0x100), out.Offset)
}

func TestPipeProtocol(t *testing.T) {
	var sent bytes.Buffer
	resp := bytes.NewBufferString("hello\x00")

	p := NewPipe(resp, &sent)

	out, err := p.CmdText(context.Background(), "pdd")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "pdd\n", sent.String())
}
