package vkcapture

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// The fakes below stand in for the native driver and the device-management
// collaborator. Recorded commands are replayed at submit time the way a GPU
// would execute them: barriers move images between layouts (validating the
// declared OldLayout against the tracked one) and blit/copy move the source
// texels into the staging buffer honoring its offset and row pitch.

func newImageHandle() vk.Image {
	return vk.Image(unsafe.Pointer(new(byte)))
}

func newMemoryHandle() vk.DeviceMemory {
	return vk.DeviceMemory(unsafe.Pointer(new(byte)))
}

func newCommandBufferHandle() vk.CommandBuffer {
	return vk.CommandBuffer(unsafe.Pointer(new(byte)))
}

type fakeImage struct {
	info      vk.ImageCreateInfo
	memory    vk.DeviceMemory
	destroyed bool
}

type fakeMemory struct {
	buf    []byte
	mapped bool
	freed  bool
}

type recordedBarrier struct {
	barrier vk.ImageMemoryBarrier
}

type recordedBlit struct {
	src, dst             vk.Image
	srcLayout, dstLayout vk.ImageLayout
	regions              []vk.ImageBlit
	filter               vk.Filter
}

type recordedCopy struct {
	src, dst             vk.Image
	srcLayout, dstLayout vk.ImageLayout
	regions              []vk.ImageCopy
}

// fakeDriver implements Driver over in-memory state.
type fakeDriver struct {
	formatProps map[vk.Format]vk.FormatProperties
	subresource vk.SubresourceLayout

	// srcTexels is the tightly packed width*height*4 content of the
	// borrowed source image.
	srcTexels []byte
	srcImage  vk.Image
	width     int
	height    int

	images   map[vk.Image]*fakeImage
	memories map[vk.DeviceMemory]*fakeMemory
	layouts  map[vk.Image]vk.ImageLayout

	recorded []any // recordedBarrier | recordedBlit | recordedCopy
	executed []any // recorded ops that reached replay, in order
	calls    []string

	unmapCount   int
	freeCount    int
	destroyCount int

	failCreateImage bool
	failAllocate    bool
	failBind        bool
	failMap         bool

	replayErrs []error
}

func newFakeDriver(width, height int) *fakeDriver {
	d := &fakeDriver{
		formatProps: make(map[vk.Format]vk.FormatProperties),
		images:      make(map[vk.Image]*fakeImage),
		memories:    make(map[vk.DeviceMemory]*fakeMemory),
		layouts:     make(map[vk.Image]vk.ImageLayout),
		width:       width,
		height:      height,
		srcImage:    newImageHandle(),
	}
	d.layouts[d.srcImage] = vk.ImageLayoutPresentSrc
	d.srcTexels = make([]byte, width*height*4)
	for i := range d.srcTexels {
		d.srcTexels[i] = byte(13 + i*7) // arbitrary distinct bytes
	}
	// Tight packing unless a test overrides the subresource layout.
	d.subresource = vk.SubresourceLayout{
		Offset:   0,
		RowPitch: vk.DeviceSize(width * 4),
	}
	return d
}

// setBlitSupport controls which sides of the probe succeed.
func (d *fakeDriver) setBlitSupport(srcFormat vk.Format, srcBlit, dstBlit bool) {
	var srcProps, dstProps vk.FormatProperties
	if srcBlit {
		srcProps.OptimalTilingFeatures = vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit)
	}
	if dstBlit {
		dstProps.LinearTilingFeatures = vk.FormatFeatureFlags(vk.FormatFeatureBlitDstBit)
	}
	d.formatProps[srcFormat] = srcProps
	if srcFormat != CaptureFormat {
		d.formatProps[CaptureFormat] = dstProps
	} else {
		// Same format on both sides: merge the feature masks.
		merged := srcProps
		merged.LinearTilingFeatures |= dstProps.LinearTilingFeatures
		d.formatProps[CaptureFormat] = merged
	}
}

func (d *fakeDriver) FormatProperties(_ vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	d.calls = append(d.calls, "FormatProperties")
	return d.formatProps[format]
}

func (d *fakeDriver) CreateImage(_ vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	d.calls = append(d.calls, "CreateImage")
	if d.failCreateImage {
		return vk.Image(vk.NullHandle), fmt.Errorf("fake: vkCreateImage failed")
	}
	img := newImageHandle()
	d.images[img] = &fakeImage{info: *info}
	d.layouts[img] = info.InitialLayout
	return img, nil
}

func (d *fakeDriver) ImageMemoryRequirements(_ vk.Device, img vk.Image) vk.MemoryRequirements {
	d.calls = append(d.calls, "ImageMemoryRequirements")
	fi := d.images[img]
	size := int(d.subresource.Offset) + int(fi.info.Extent.Height)*int(d.subresource.RowPitch)
	return vk.MemoryRequirements{
		Size:           vk.DeviceSize(size),
		Alignment:      4,
		MemoryTypeBits: 0x1,
	}
}

func (d *fakeDriver) AllocateMemory(_ vk.Device, size vk.DeviceSize, _ uint32) (vk.DeviceMemory, error) {
	d.calls = append(d.calls, "AllocateMemory")
	if d.failAllocate {
		return vk.DeviceMemory(vk.NullHandle), fmt.Errorf("fake: vkAllocateMemory failed")
	}
	mem := newMemoryHandle()
	d.memories[mem] = &fakeMemory{buf: make([]byte, int(size))}
	return mem, nil
}

func (d *fakeDriver) BindImageMemory(_ vk.Device, img vk.Image, mem vk.DeviceMemory) error {
	d.calls = append(d.calls, "BindImageMemory")
	if d.failBind {
		return fmt.Errorf("fake: vkBindImageMemory failed")
	}
	d.images[img].memory = mem
	return nil
}

func (d *fakeDriver) SubresourceLayout(_ vk.Device, _ vk.Image) vk.SubresourceLayout {
	d.calls = append(d.calls, "SubresourceLayout")
	return d.subresource
}

func (d *fakeDriver) MapMemory(_ vk.Device, mem vk.DeviceMemory, size vk.DeviceSize) ([]byte, error) {
	d.calls = append(d.calls, "MapMemory")
	if d.failMap {
		return nil, fmt.Errorf("fake: vkMapMemory failed")
	}
	fm := d.memories[mem]
	fm.mapped = true
	return fm.buf[:int(size)], nil
}

func (d *fakeDriver) UnmapMemory(_ vk.Device, mem vk.DeviceMemory) {
	d.calls = append(d.calls, "UnmapMemory")
	d.unmapCount++
	d.memories[mem].mapped = false
}

func (d *fakeDriver) FreeMemory(_ vk.Device, mem vk.DeviceMemory) {
	d.calls = append(d.calls, "FreeMemory")
	d.freeCount++
	d.memories[mem].freed = true
}

func (d *fakeDriver) DestroyImage(_ vk.Device, img vk.Image) {
	d.calls = append(d.calls, "DestroyImage")
	d.destroyCount++
	d.images[img].destroyed = true
}

func (d *fakeDriver) CmdPipelineBarrier(_ vk.CommandBuffer, _, _ vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	d.calls = append(d.calls, "CmdPipelineBarrier")
	for _, b := range barriers {
		d.recorded = append(d.recorded, recordedBarrier{barrier: b})
	}
}

func (d *fakeDriver) CmdBlitImage(_ vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageBlit, filter vk.Filter) {
	d.calls = append(d.calls, "CmdBlitImage")
	d.recorded = append(d.recorded, recordedBlit{
		src: src, dst: dst,
		srcLayout: srcLayout, dstLayout: dstLayout,
		regions: regions, filter: filter,
	})
}

func (d *fakeDriver) CmdCopyImage(_ vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageCopy) {
	d.calls = append(d.calls, "CmdCopyImage")
	d.recorded = append(d.recorded, recordedCopy{
		src: src, dst: dst,
		srcLayout: srcLayout, dstLayout: dstLayout,
		regions: regions,
	})
}

// replayed returns the ops that reached execution, in order.
func (d *fakeDriver) replayed() []any {
	return d.executed
}

// replay executes the recorded command stream.
func (d *fakeDriver) replay() {
	for _, op := range d.recorded {
		d.executed = append(d.executed, op)
		switch op := op.(type) {
		case recordedBarrier:
			b := op.barrier
			cur := d.layouts[b.Image]
			if b.OldLayout != vk.ImageLayoutUndefined && cur != b.OldLayout {
				d.replayErrs = append(d.replayErrs,
					fmt.Errorf("barrier declares old layout %d but image is in %d", b.OldLayout, cur))
			}
			d.layouts[b.Image] = b.NewLayout
		case recordedBlit:
			d.checkTransferLayouts(op.src, op.srcLayout, op.dst, op.dstLayout)
			d.moveTexels(op.dst)
		case recordedCopy:
			d.checkTransferLayouts(op.src, op.srcLayout, op.dst, op.dstLayout)
			d.moveTexels(op.dst)
		}
	}
	d.recorded = d.recorded[:0]
}

func (d *fakeDriver) checkTransferLayouts(src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout) {
	if d.layouts[src] != srcLayout {
		d.replayErrs = append(d.replayErrs,
			fmt.Errorf("transfer reads src in layout %d, image is in %d", srcLayout, d.layouts[src]))
	}
	if d.layouts[dst] != dstLayout {
		d.replayErrs = append(d.replayErrs,
			fmt.Errorf("transfer writes dst in layout %d, image is in %d", dstLayout, d.layouts[dst]))
	}
}

// moveTexels copies the source texels into the staging buffer honoring the
// configured subresource offset and row pitch.
func (d *fakeDriver) moveTexels(dst vk.Image) {
	fi := d.images[dst]
	buf := d.memories[fi.memory].buf
	offset := int(d.subresource.Offset)
	pitch := int(d.subresource.RowPitch)
	for y := 0; y < d.height; y++ {
		srcRow := d.srcTexels[y*d.width*4 : (y+1)*d.width*4]
		copy(buf[offset+y*pitch:], srcRow)
	}
}

// fakeCommands implements CommandManager and replays the driver's recorded
// commands on submit.
type fakeCommands struct {
	drv *fakeDriver

	failMemoryType bool
	failBegin      bool
	failSubmit     bool

	begun     int
	submitted int
}

func (c *fakeCommands) MemoryTypeIndex(typeBits uint32, _ vk.MemoryPropertyFlags) (uint32, error) {
	if c.failMemoryType || typeBits == 0 {
		return 0, fmt.Errorf("fake: no suitable memory type")
	}
	return 0, nil
}

func (c *fakeCommands) BeginOneShot() (vk.CommandBuffer, error) {
	if c.failBegin {
		return nil, fmt.Errorf("fake: command buffer allocation failed")
	}
	c.begun++
	return newCommandBufferHandle(), nil
}

func (c *fakeCommands) SubmitAndWait(_ vk.CommandBuffer, _ vk.Queue) error {
	c.submitted++
	if c.failSubmit {
		// Nothing executes on a failed submit.
		c.drv.recorded = c.drv.recorded[:0]
		return fmt.Errorf("fake: vkQueueSubmit failed")
	}
	c.drv.replay()
	return nil
}
