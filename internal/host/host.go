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

// Package host talks to the analysis host. The core never touches it:
// only the surrounding glue queries function metadata through the
// bridge and feeds the result to the lifter.
package host

import (
	"context"
	"encoding/json"

	"tlog.app/go/errors"
)

// Bridge is the two-operation command channel of the analysis host.
type Bridge interface {
	// CmdText runs a host command and returns its textual output.
	CmdText(ctx context.Context, cmd string) (string, error)

	// CmdJSON runs a host command and decodes its JSON output into out.
	CmdJSON(ctx context.Context, cmd string, out interface{}) error
}

// jsonCmd derives CmdJSON from any CmdText implementation.
func jsonCmd(ctx context.Context, b Bridge, cmd string, out interface{}) error {
	text, err := b.CmdText(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "cmd %q", cmd)
	}
	if err = json.Unmarshal([]byte(text), out); err != nil {
		return errors.Wrap(err, "cmd %q: decode", cmd)
	}
	return nil
}
