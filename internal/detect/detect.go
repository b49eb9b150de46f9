// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatbots-tui/internal/engine"
)

// detectTimeout bounds one full probe when ctx has no deadline.
const detectTimeout = 5 * time.Second

// =============================================================================
// GPU TYPES
// =============================================================================

// GpuType is the kind of accelerator found.
type GpuType int

const (
	// GpuTypeNone means no GPU was found; models run on the CPU.
	GpuTypeNone GpuType = iota
	GpuTypeNvidia
	GpuTypeAmd
	GpuTypeAppleSilicon
)

// String returns the vendor name.
func (t GpuType) String() string {
	switch t {
	case GpuTypeNone:
		return "none"
	case GpuTypeNvidia:
		return "NVIDIA"
	case GpuTypeAmd:
		return "AMD"
	case GpuTypeAppleSilicon:
		return "Apple Silicon"
	default:
		return "unknown"
	}
}

// GpuInfo describes the first GPU found.
type GpuInfo struct {
	Name   string
	VramGB uint32
	Driver string
	Type   GpuType
}

// Available reports whether a GPU was found.
func (g *GpuInfo) Available() bool {
	return g != nil && g.Type != GpuTypeNone
}

func (g *GpuInfo) String() string {
	if !g.Available() {
		return "no GPU detected"
	}
	s := g.Name
	if g.VramGB > 0 {
		s += fmt.Sprintf(" (%dGB VRAM)", g.VramGB)
	}
	if g.Driver != "" {
		s += fmt.Sprintf(" [Driver: %s]", g.Driver)
	}
	return s
}

// =============================================================================
// DETECTOR
// =============================================================================

// Runner runs a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Detector probes vendor tools in turn: nvidia-smi, rocm-smi, then
// system_profiler on macOS.
type Detector struct {
	// Run defaults to executing the command.
	Run Runner
	// GOOS defaults to runtime.GOOS.
	GOOS string
}

// Detect returns the first GPU found, or a GpuInfo of type GpuTypeNone.
// Missing tools are not errors.
func (d Detector) Detect(ctx context.Context) *GpuInfo {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, detectTimeout)
		defer cancel()
	}
	run := d.Run
	if run == nil {
		run = execRunner
	}
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	if out, err := run(ctx, "nvidia-smi", "--query-gpu=name,memory.total,driver_version", "--format=csv,noheader,nounits"); err == nil {
		if info := parseNvidiaSMI(string(out)); info != nil {
			return info
		}
	}
	if goos == "linux" {
		if out, err := run(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram"); err == nil {
			if info := parseRocmSMI(string(out)); info != nil {
				return info
			}
		}
	}
	if goos == "darwin" {
		if out, err := run(ctx, "system_profiler", "SPDisplaysDataType"); err == nil {
			if info := parseAppleProfiler(string(out)); info != nil {
				return info
			}
		}
	}
	return &GpuInfo{Type: GpuTypeNone}
}

var (
	cached     *GpuInfo
	cachedOnce sync.Once
)

// GPU probes once per process and returns the cached result afterwards.
func GPU(ctx context.Context) *GpuInfo {
	cachedOnce.Do(func() {
		cached = Detector{}.Detect(ctx)
	})
	return cached
}

// =============================================================================
// DEVICE CHECK
// =============================================================================

// DeviceWarning returns a message when the configured device does not
// match what was detected, or "" when it does.
func DeviceWarning(device string, gpu *GpuInfo) string {
	if engine.NormalizeDevice(device) == engine.DeviceGPU && !gpu.Available() {
		return "device is GPU but no GPU was detected; the backend may fall back to the CPU"
	}
	return ""
}

// =============================================================================
// PARSERS
// =============================================================================

// parseNvidiaSMI reads the first line of
// "name, memory.total [MiB], driver_version".
func parseNvidiaSMI(out string) *GpuInfo {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
	parts := strings.Split(line, ", ")
	if len(parts) < 3 || strings.TrimSpace(parts[0]) == "" {
		return nil
	}
	vramMB, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}
	return &GpuInfo{
		Name:   "NVIDIA " + strings.TrimSpace(parts[0]),
		VramGB: uint32(vramMB/1024.0 + 0.5),
		Driver: strings.TrimSpace(parts[2]),
		Type:   GpuTypeNvidia,
	}
}

var numberRe = regexp.MustCompile(`(\d+)\s*$`)

// parseRocmSMI reads the card series and VRAM total from rocm-smi output.
func parseRocmSMI(out string) *GpuInfo {
	info := &GpuInfo{Name: "AMD GPU", Type: GpuTypeAmd}
	found := false
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "Card series:") || strings.Contains(line, "Card Series:"):
			if _, name, ok := strings.Cut(line, "eries:"); ok && strings.TrimSpace(name) != "" {
				info.Name = "AMD " + strings.TrimSpace(name)
				found = true
			}
		case strings.Contains(line, "VRAM Total Memory") || strings.Contains(line, "Total Memory"):
			m := numberRe.FindStringSubmatch(strings.TrimSpace(line))
			if len(m) < 2 {
				continue
			}
			val, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				continue
			}
			switch {
			case val > 1_000_000_000:
				info.VramGB = uint32(val / 1_073_741_824)
			case val > 1_000_000:
				info.VramGB = uint32(val / 1024)
			default:
				info.VramGB = uint32(val)
			}
			found = true
		}
	}
	if !found {
		return nil
	}
	return info
}

var appleChips = []string{
	"M4 Ultra", "M4 Max", "M4 Pro", "M4",
	"M3 Ultra", "M3 Max", "M3 Pro", "M3",
	"M2 Ultra", "M2 Max", "M2 Pro", "M2",
	"M1 Ultra", "M1 Max", "M1 Pro", "M1",
}

// parseAppleProfiler finds an Apple chip in system_profiler output.
func parseAppleProfiler(out string) *GpuInfo {
	if !strings.Contains(out, "Apple") {
		return nil
	}
	name := "Apple Silicon"
	for _, chip := range appleChips {
		if strings.Contains(out, "Apple "+chip) {
			name = "Apple " + chip
			break
		}
	}
	return &GpuInfo{Name: name, Type: GpuTypeAppleSilicon}
}
