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

package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/ternlab/tgemm/bcsr"
	"github.com/ternlab/tgemm/hwy"
	"golang.org/x/sys/cpu"
)

func newCPUInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cpuinfo",
		Short: "Print the SIMD dispatch decision and the CPU features it is based on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printCPUInfo(cmd.OutOrStdout())
			return nil
		},
	}
}

func printCPUInfo(w io.Writer) {
	fmt.Fprintf(w, "GOOS: %s\n", runtime.GOOS)
	fmt.Fprintf(w, "GOARCH: %s\n", runtime.GOARCH)
	fmt.Fprintf(w, "NumCPU: %d\n", runtime.NumCPU())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Dispatch level: %s\n", hwy.CurrentLevel())
	fmt.Fprintf(w, "Dispatch width: %d bytes (%d float32 lanes)\n", hwy.CurrentWidth(), hwy.MaxLanes[float32]())
	fmt.Fprintf(w, "Dispatch name: %s\n", hwy.CurrentName())
	fmt.Fprintf(w, "FMA: %v\n", hwy.HasFMA())
	fmt.Fprintf(w, "%s: %v\n", hwy.NoSimdEnvVar, hwy.NoSimdEnv())
	fmt.Fprintf(w, "BCSR vector kernel: %s\n", bcsr.VecImplName)
	fmt.Fprintln(w)

	switch runtime.GOARCH {
	case "arm64":
		fmt.Fprintln(w, "=== golang.org/x/sys/cpu.ARM64 ===")
		fmt.Fprintf(w, "  HasASIMD:    %v (NEON baseline)\n", cpu.ARM64.HasASIMD)
		fmt.Fprintf(w, "  HasFP:       %v\n", cpu.ARM64.HasFP)
		fmt.Fprintf(w, "  HasSVE:      %v\n", cpu.ARM64.HasSVE)
	case "amd64":
		fmt.Fprintln(w, "=== golang.org/x/sys/cpu.X86 ===")
		fmt.Fprintf(w, "  HasAVX:      %v\n", cpu.X86.HasAVX)
		fmt.Fprintf(w, "  HasAVX2:     %v\n", cpu.X86.HasAVX2)
		fmt.Fprintf(w, "  HasFMA:      %v\n", cpu.X86.HasFMA)
		fmt.Fprintf(w, "  HasAVX512F:  %v\n", cpu.X86.HasAVX512F)
		fmt.Fprintf(w, "  HasSSE2:     %v\n", cpu.X86.HasSSE2)
	}
}
