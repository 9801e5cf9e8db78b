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

package lifter

// callConvs maps a calling-convention name to its integer argument
// registers, in order.
var callConvs = map[string][]string{
	"amd64":   {"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
	"ms":      {"rcx", "rdx", "r8", "r9"},
	"cdecl":   {},
	"stdcall": {},
}

// CallArgs resolves the argument registers of a calling convention.
// An unknown convention fails the current function, not the run.
func CallArgs(conv string) ([]string, error) {
	if conv == "" {
		return callConvs["amd64"], nil
	}
	if regs, ok := callConvs[conv]; ok {
		return regs, nil
	}
	return nil, UnknownCallConvError{Conv: conv}
}
