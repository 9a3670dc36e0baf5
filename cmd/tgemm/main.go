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

// Command tgemm inspects and certifies the ternary GEMM kernels.
//
// Usage:
//
//	tgemm cpuinfo                         # SIMD dispatch and CPU features
//	tgemm check --m=64 --k=512 --n=512    # certify every kernel against the dense reference
//	tgemm measure --kinds=tcsc,bcsr-vec   # time kernels that pass certification
//
// Set TGEMM_NO_SIMD=1 to force the portable kernels, and -v=1 for dispatch
// logging.
package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgemm",
		Short:         "Ternary sparse GEMM kernels: diagnostics and certification",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCPUInfoCmd(), newCheckCmd(), newMeasureCmd())
	return root
}

// printer formats counts with thousands separators.
var printer = message.NewPrinter(language.English)

func main() {
	klog.InitFlags(nil)
	root := newRootCmd()
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	err := root.Execute()
	klog.Flush()
	if err != nil {
		klog.Errorf("tgemm: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}
