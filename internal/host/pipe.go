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
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Pipe speaks the r2pipe protocol: commands go out on one descriptor,
// replies come back NUL-terminated on another. The host spawns us with
// R2PIPE_IN/R2PIPE_OUT pointing at its ends.
type Pipe struct {
	w io.Writer
	r *bufio.Reader
}

// OpenPipe attaches to the descriptors inherited from the host.
func OpenPipe() (*Pipe, error) {
	in := os.Getenv("R2PIPE_IN")
	out := os.Getenv("R2PIPE_OUT")
	if in == "" || out == "" {
		return nil, errors.New("no host pipe: R2PIPE_IN/R2PIPE_OUT unset")
	}

	rfd, err := strconv.Atoi(in)
	if err != nil {
		return nil, errors.Wrap(err, "R2PIPE_IN")
	}
	wfd, err := strconv.Atoi(out)
	if err != nil {
		return nil, errors.Wrap(err, "R2PIPE_OUT")
	}

	return NewPipe(os.NewFile(uintptr(rfd), "r2pipe.in"), os.NewFile(uintptr(wfd), "r2pipe.out")), nil
}

func NewPipe(r io.Reader, w io.Writer) *Pipe {
	return &Pipe{w: w, r: bufio.NewReader(r)}
}

func (self *Pipe) CmdText(ctx context.Context, cmd string) (string, error) {
	tlog.SpanFromContext(ctx).V("host_cmd").Printw("host command", "cmd", cmd)

	if _, err := io.WriteString(self.w, cmd+"\n"); err != nil {
		return "", errors.Wrap(err, "send %q", cmd)
	}

	resp, err := self.r.ReadString(0)
	if err != nil {
		return "", errors.Wrap(err, "recv %q", cmd)
	}
	return resp[:len(resp)-1], nil
}

func (self *Pipe) CmdJSON(ctx context.Context, cmd string, out interface{}) error {
	return jsonCmd(ctx, self, cmd, out)
}
