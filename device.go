package vkcapture

import (
	vk "github.com/vulkan-go/vulkan"
)

// CaptureRequest describes one capture. It is consumed by a single Save call
// and holds no state afterwards.
//
// Width and Height must match the source image's current extent; no
// validation is performed and mismatched dimensions produce undefined pixel
// content.
type CaptureRequest struct {
	// Device is the logical device that owns SrcImage.
	Device vk.Device

	// PhysicalDevice is used for format capability queries.
	PhysicalDevice vk.PhysicalDevice

	// Commands is the device-management collaborator that allocates and
	// submits the one-shot command buffer and resolves memory types.
	Commands CommandManager

	// Queue receives the blocking transfer submission.
	Queue vk.Queue

	// SrcImage is the image to capture. It is borrowed, never owned: its
	// layout is PRESENT_SRC on entry and restored to PRESENT_SRC on exit.
	SrcImage vk.Image

	// SrcFormat is the pixel format of SrcImage.
	SrcFormat vk.Format

	// Width and Height are the capture extent in pixels.
	Width  uint32
	Height uint32

	// Path is the destination file. The file is written as binary PPM (P6).
	Path string

	// Driver overrides the registered default native driver.
	// Leave nil outside of tests.
	Driver Driver
}

// Driver is the slice of the native Vulkan surface the capture pipeline
// touches. The host never implements this directly; the vkdriver subpackage
// provides the production implementation and registers it as the default.
//
// Command-recording methods mirror the void Vulkan entry points: they cannot
// fail at record time, only at submission.
type Driver interface {
	// FormatProperties returns the dereferenced format capabilities of the
	// given format on the physical device.
	FormatProperties(physicalDevice vk.PhysicalDevice, format vk.Format) vk.FormatProperties

	// CreateImage creates an image from the given create info.
	CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error)

	// ImageMemoryRequirements returns the dereferenced memory requirements
	// of the image.
	ImageMemoryRequirements(device vk.Device, image vk.Image) vk.MemoryRequirements

	// AllocateMemory allocates size bytes from the given memory type.
	AllocateMemory(device vk.Device, size vk.DeviceSize, memoryTypeIndex uint32) (vk.DeviceMemory, error)

	// BindImageMemory binds memory to the image at offset zero.
	BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory) error

	// SubresourceLayout returns the dereferenced layout (byte offset and row
	// pitch) of the image's first color subresource. Only valid for images
	// with linear tiling.
	SubresourceLayout(device vk.Device, image vk.Image) vk.SubresourceLayout

	// MapMemory maps size bytes of the allocation and returns them as a
	// byte slice backed by the mapping.
	MapMemory(device vk.Device, memory vk.DeviceMemory, size vk.DeviceSize) ([]byte, error)

	// UnmapMemory unmaps a mapping created by MapMemory.
	UnmapMemory(device vk.Device, memory vk.DeviceMemory)

	// FreeMemory releases the allocation.
	FreeMemory(device vk.Device, memory vk.DeviceMemory)

	// DestroyImage destroys the image.
	DestroyImage(device vk.Device, image vk.Image)

	// CmdPipelineBarrier records image memory barriers between the two
	// pipeline stages.
	CmdPipelineBarrier(cmd vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier)

	// CmdBlitImage records a scaled, format-converting image transfer.
	CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageBlit, filter vk.Filter)

	// CmdCopyImage records a raw image copy with no format conversion.
	CmdCopyImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, regions []vk.ImageCopy)
}

// CommandManager is the device-management collaborator consumed by the
// pipeline: it owns command pool and fence plumbing so captures only see a
// ready-to-record one-shot command buffer.
type CommandManager interface {
	// MemoryTypeIndex returns the index of a memory type contained in
	// typeBits that has all of the requested property flags.
	MemoryTypeIndex(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error)

	// BeginOneShot allocates and begins a primary one-time-submit command
	// buffer.
	BeginOneShot() (vk.CommandBuffer, error)

	// SubmitAndWait ends the command buffer, submits it to the queue and
	// blocks until device completion, then releases the buffer.
	SubmitAndWait(cmd vk.CommandBuffer, queue vk.Queue) error
}
