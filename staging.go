package vkcapture

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// stagingImage is the host-visible destination of one capture: a linearly
// tiled CaptureFormat image with a freshly allocated memory block bound at
// offset zero. It is exclusively owned by one Save call and released exactly
// once on every exit path.
type stagingImage struct {
	drv    Driver
	device vk.Device

	image  vk.Image
	memory vk.DeviceMemory
	size   vk.DeviceSize

	mapped   []byte
	released bool
}

// createStaging creates and binds the staging image for a width x height
// capture. Any failure is fatal to the capture; nothing has been recorded
// yet, so the caller has nothing to tear down besides what this function
// already unwound itself.
func createStaging(drv Driver, device vk.Device, commands CommandManager, width, height uint32) (*stagingImage, error) {
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    CaptureFormat,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingLinear,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	image, err := drv.CreateImage(device, &info)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: create staging image")
	}

	memReq := drv.ImageMemoryRequirements(device, image)
	typeIndex, err := commands.MemoryTypeIndex(
		memReq.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		drv.DestroyImage(device, image)
		return nil, errors.Wrap(err, "vkcapture: staging memory type")
	}

	memory, err := drv.AllocateMemory(device, memReq.Size, typeIndex)
	if err != nil {
		drv.DestroyImage(device, image)
		return nil, errors.Wrap(err, "vkcapture: allocate staging memory")
	}

	if err := drv.BindImageMemory(device, image, memory); err != nil {
		drv.FreeMemory(device, memory)
		drv.DestroyImage(device, image)
		return nil, errors.Wrap(err, "vkcapture: bind staging memory")
	}

	return &stagingImage{
		drv:    drv,
		device: device,
		image:  image,
		memory: memory,
		size:   memReq.Size,
	}, nil
}

// Map maps the whole staging allocation and remembers the mapping so Release
// can undo it.
func (s *stagingImage) Map() ([]byte, error) {
	data, err := s.drv.MapMemory(s.device, s.memory, s.size)
	if err != nil {
		return nil, errors.Wrap(err, "vkcapture: map staging memory")
	}
	s.mapped = data
	return data, nil
}

// Layout returns the driver-reported subresource layout of the staging
// image. Linear tiling does not guarantee tight packing, so serialization
// must honor the reported offset and row pitch.
func (s *stagingImage) Layout() vk.SubresourceLayout {
	return s.drv.SubresourceLayout(s.device, s.image)
}

// Release unmaps, frees and destroys the staging resources, in that order.
// Safe to call more than once; only the first call does work.
func (s *stagingImage) Release() {
	if s.released {
		return
	}
	s.released = true

	if s.mapped != nil {
		s.drv.UnmapMemory(s.device, s.memory)
		s.mapped = nil
	}
	s.drv.FreeMemory(s.device, s.memory)
	s.drv.DestroyImage(s.device, s.image)
}
