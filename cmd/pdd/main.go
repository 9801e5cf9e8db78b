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

// Command pdd decompiles one function. Metadata comes either from a
// JSON descriptor file or, when run under the analysis host, from the
// host pipe. `pdd -j` emits a JSON object holding the function name
// and its decompiled code.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/r2dec2/pdd"
	"github.com/r2dec2/pdd/internal/host"
	"github.com/r2dec2/pdd/internal/lifter"
	_ "github.com/r2dec2/pdd/internal/lifter/x86"
)

func main() {
	app := &cli.Command{
		Name:        "pdd",
		Description: "decompile the current function",
		Action:      pddAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("json,j", false, "emit json output"),
			cli.NewFlag("noalias", false, "assume no pointer aliasing"),
			cli.NewFlag("theme", "dark+", "highlight palette: none, default, dark+"),
		},
		Commands: []*cli.Command{{
			Name:   "help,?",
			Action: helpAct,
		}},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func pddAct(c *cli.Command) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	desc, err := loadDesc(ctx, c)
	if err != nil {
		return err
	}

	out, err := pdd.Decompile(ctx, desc,
		pdd.WithNoAlias(c.Bool("noalias")),
		pdd.WithTheme(c.String("theme")),
	)
	if err != nil {
		/* a single line naming the function that gave up */
		fmt.Fprintf(os.Stderr, "pdd: cannot decompile %s: %v\n", desc.Name, err)
		return errors.Wrap(err, "decompile")
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"name": desc.Name,
			"code": out,
		})
	}

	fmt.Print(out)
	return nil
}

// loadDesc reads the function descriptor from the file argument, or
// queries the host over the inherited pipe.
func loadDesc(ctx context.Context, c *cli.Command) (*lifter.FuncDesc, error) {
	if len(c.Args) != 0 {
		data, err := os.ReadFile(c.Args[0])
		if err != nil {
			return nil, errors.Wrap(err, "read descriptor")
		}
		return lifter.ParseFuncDesc(data)
	}

	p, err := host.OpenPipe()
	if err != nil {
		return nil, errors.Wrap(err, "no descriptor file and")
	}

	desc := new(lifter.FuncDesc)
	if err = host.NewCached(p).CmdJSON(ctx, "pddfj", desc); err != nil {
		return nil, errors.Wrap(err, "query host")
	}
	return desc, nil
}

func helpAct(c *cli.Command) error {
	fmt.Println(`Usage: pdd [-j]    # decompile current function
pdd      decompile current function
pdd -j   decompile to json`)
	return nil
}
