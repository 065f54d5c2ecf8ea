//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/guipaint"
	"github.com/gogpu/wgpu/hal"
)

// growBuffer is a GPU buffer that is replaced by a larger one when a frame
// does not fit. Capacity grows to the next power of two and never shrinks.
type growBuffer struct {
	label    string
	usage    gputypes.BufferUsage
	minBytes uint64

	buf      hal.Buffer
	capacity uint64
}

// write uploads data at offset 0, growing the buffer first if needed.
func (b *growBuffer) write(device hal.Device, queue hal.Queue, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	need := uint64(len(data))
	if b.buf == nil || need > b.capacity {
		capacity := guipaint.GrowCapacity(b.capacity, need)
		if capacity < b.minBytes {
			capacity = b.minBytes
		}
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: b.label,
			Size:  capacity,
			Usage: b.usage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create %s (%d bytes): %w", b.label, capacity, err)
		}
		if b.buf != nil {
			device.DestroyBuffer(b.buf)
		}
		guipaint.Logger().Debug("gpu: buffer grown",
			"buffer", b.label, "from", b.capacity, "to", capacity)
		b.buf = buf
		b.capacity = capacity
	}
	if err := queue.WriteBuffer(b.buf, 0, data); err != nil {
		return fmt.Errorf("write %s: %w", b.label, err)
	}
	return nil
}

func (b *growBuffer) destroy(device hal.Device) {
	if b.buf != nil {
		device.DestroyBuffer(b.buf)
		b.buf = nil
		b.capacity = 0
	}
}
