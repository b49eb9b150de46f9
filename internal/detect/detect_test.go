// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers commands from a table; anything else is "not found".
func fakeRunner(outputs map[string]string) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if out, ok := outputs[name]; ok {
			return []byte(out), nil
		}
		return nil, errors.New("executable file not found")
	}
}

func TestGpuType_String(t *testing.T) {
	tests := []struct {
		gpuType GpuType
		want    string
	}{
		{GpuTypeNone, "none"},
		{GpuTypeNvidia, "NVIDIA"},
		{GpuTypeAmd, "AMD"},
		{GpuTypeAppleSilicon, "Apple Silicon"},
		{GpuType(99), "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.gpuType.String())
	}
}

func TestGpuInfo_String(t *testing.T) {
	assert.Equal(t, "NVIDIA RTX 4090 (24GB VRAM) [Driver: 535.154.05]",
		(&GpuInfo{Name: "NVIDIA RTX 4090", VramGB: 24, Driver: "535.154.05", Type: GpuTypeNvidia}).String())
	assert.Equal(t, "Apple M2", (&GpuInfo{Name: "Apple M2", Type: GpuTypeAppleSilicon}).String())
	assert.Equal(t, "no GPU detected", (&GpuInfo{}).String())

	var none *GpuInfo
	assert.False(t, none.Available())
}

func TestDetect_Nvidia(t *testing.T) {
	d := Detector{
		GOOS: "linux",
		Run: fakeRunner(map[string]string{
			"nvidia-smi": "GeForce RTX 3060, 12288, 550.54\nGeForce RTX 3060, 12288, 550.54\n",
		}),
	}
	info := d.Detect(context.Background())
	require.True(t, info.Available())
	assert.Equal(t, GpuTypeNvidia, info.Type)
	assert.Equal(t, "NVIDIA GeForce RTX 3060", info.Name)
	assert.Equal(t, uint32(12), info.VramGB)
	assert.Equal(t, "550.54", info.Driver)
}

func TestDetect_AmdOnLinuxOnly(t *testing.T) {
	rocm := "GPU[0]\t\t: Card series:\t\tRadeon RX 7900 XTX\nGPU[0]\t\t: VRAM Total Memory (B): 25753026560\n"

	info := Detector{GOOS: "linux", Run: fakeRunner(map[string]string{"rocm-smi": rocm})}.Detect(context.Background())
	assert.Equal(t, GpuTypeAmd, info.Type)
	assert.Equal(t, "AMD Radeon RX 7900 XTX", info.Name)
	assert.Equal(t, uint32(23), info.VramGB)

	info = Detector{GOOS: "windows", Run: fakeRunner(map[string]string{"rocm-smi": rocm})}.Detect(context.Background())
	assert.False(t, info.Available())
}

func TestDetect_AppleSilicon(t *testing.T) {
	out := "Graphics/Displays:\n\n    Apple M2 Pro:\n\n      Chipset Model: Apple M2 Pro\n"
	info := Detector{GOOS: "darwin", Run: fakeRunner(map[string]string{"system_profiler": out})}.Detect(context.Background())
	assert.Equal(t, GpuTypeAppleSilicon, info.Type)
	assert.Equal(t, "Apple M2 Pro", info.Name)
}

func TestDetect_NothingFound(t *testing.T) {
	info := Detector{GOOS: "linux", Run: fakeRunner(nil)}.Detect(context.Background())
	assert.Equal(t, GpuTypeNone, info.Type)
}

func TestParseNvidiaSMI_Malformed(t *testing.T) {
	assert.Nil(t, parseNvidiaSMI(""))
	assert.Nil(t, parseNvidiaSMI("No devices were found"))
	assert.Nil(t, parseNvidiaSMI("RTX, lots, 1"))
}

func TestDeviceWarning(t *testing.T) {
	none := &GpuInfo{Type: GpuTypeNone}
	gpu := &GpuInfo{Name: "NVIDIA A100", Type: GpuTypeNvidia}

	assert.NotEmpty(t, DeviceWarning("gpu", none))
	assert.Empty(t, DeviceWarning("GPU", gpu))
	assert.Empty(t, DeviceWarning("CPU", none))
}
