// Copyright 2025 tgemm Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernels

import (
	"os"
	"strconv"
)

// MinParallelRowsEnvVar overrides the row count below which RunParallel runs
// on the calling goroutine.
const MinParallelRowsEnvVar = "TGEMM_MIN_PARALLEL_ROWS"

const defaultMinParallelRows = 16

var minParallelRows = envInt(MinParallelRowsEnvVar, defaultMinParallelRows)

// MinParallelRows returns the smallest M for which RunParallel splits work.
func MinParallelRows() int { return minParallelRows }

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
