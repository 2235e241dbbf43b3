// Package vkdriver provides the production implementation of the vkcapture
// Driver and CommandManager interfaces over the native Vulkan loader, via
// github.com/vulkan-go/vulkan.
//
// Importing the package registers the driver as the vkcapture default:
//
//	import _ "github.com/TNtube/vkcapture/vkdriver"
package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/TNtube/vkcapture"
)

func init() {
	vkcapture.RegisterDriver(vkcapture.DriverNative, Driver{})
}

// Driver dispatches vkcapture pipeline calls to the native Vulkan entry
// points. It is stateless; all handles travel through the call arguments.
type Driver struct{}

var _ vkcapture.Driver = Driver{}

func (Driver) FormatProperties(physicalDevice vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(physicalDevice, format, &props)
	props.Deref()
	return props
}

func (Driver) CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	var image vk.Image
	if err := vk.Error(vk.CreateImage(device, info, nil, &image)); err != nil {
		return vk.Image(vk.NullHandle), errors.Wrap(err, "vkCreateImage")
	}
	return image, nil
}

func (Driver) ImageMemoryRequirements(device vk.Device, image vk.Image) vk.MemoryRequirements {
	var memReq vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &memReq)
	memReq.Deref()
	return memReq
}

func (Driver) AllocateMemory(device vk.Device, size vk.DeviceSize, memoryTypeIndex uint32) (vk.DeviceMemory, error) {
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	}
	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(device, &info, nil, &memory)); err != nil {
		return vk.DeviceMemory(vk.NullHandle), errors.Wrap(err, "vkAllocateMemory")
	}
	return memory, nil
}

func (Driver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory) error {
	if err := vk.Error(vk.BindImageMemory(device, image, memory, 0)); err != nil {
		return errors.Wrap(err, "vkBindImageMemory")
	}
	return nil
}

func (Driver) SubresourceLayout(device vk.Device, image vk.Image) vk.SubresourceLayout {
	sub := vk.ImageSubresource{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
	var layout vk.SubresourceLayout
	vk.GetImageSubresourceLayout(device, image, &sub, &layout)
	layout.Deref()
	return layout
}

func (Driver) MapMemory(device vk.Device, memory vk.DeviceMemory, size vk.DeviceSize) ([]byte, error) {
	var data unsafe.Pointer
	if err := vk.Error(vk.MapMemory(device, memory, 0, size, 0, &data)); err != nil {
		return nil, errors.Wrap(err, "vkMapMemory")
	}
	return unsafe.Slice((*byte)(data), int(size)), nil
}

func (Driver) UnmapMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.UnmapMemory(device, memory)
}

func (Driver) FreeMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.FreeMemory(device, memory, nil)
}

func (Driver) DestroyImage(device vk.Device, image vk.Image) {
	vk.DestroyImage(device, image, nil)
}

func (Driver) CmdPipelineBarrier(cmd vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

func (Driver) CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageBlit, filter vk.Filter) {
	vk.CmdBlitImage(cmd, src, srcLayout, dst, dstLayout, uint32(len(regions)), regions, filter)
}

func (Driver) CmdCopyImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageCopy) {
	vk.CmdCopyImage(cmd, src, srcLayout, dst, dstLayout, uint32(len(regions)), regions)
}
