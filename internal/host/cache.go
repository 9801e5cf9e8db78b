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
	"context"

	"github.com/cespare/xxhash/v2"
)

// Cached memoizes textual command responses per session. Metadata
// commands are repeated per function (same flags, same segments), and
// the host round-trip dominates; responses are keyed by command hash.
type Cached struct {
	b Bridge
	m map[uint64]string
}

func NewCached(b Bridge) *Cached {
	return &Cached{b: b, m: make(map[uint64]string)}
}

func (self *Cached) CmdText(ctx context.Context, cmd string) (string, error) {
	k := xxhash.Sum64String(cmd)
	if v, ok := self.m[k]; ok {
		return v, nil
	}

	v, err := self.b.CmdText(ctx, cmd)
	if err != nil {
		return "", err
	}

	self.m[k] = v
	return v, nil
}

func (self *Cached) CmdJSON(ctx context.Context, cmd string, out interface{}) error {
	return jsonCmd(ctx, self, cmd, out)
}
