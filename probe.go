package vkcapture

import (
	vk "github.com/vulkan-go/vulkan"
)

// CaptureFormat is the canonical staging format: 8 bits per channel RGBA.
// Every capture lands in this format regardless of the source format.
const CaptureFormat = vk.FormatR8g8b8a8Unorm

// bgrFormats are the known blue-channel-first source formats. When the
// fallback copy path is taken no format conversion happens on the GPU, so
// these need their bytes reordered during serialization.
var bgrFormats = []vk.Format{
	vk.FormatB8g8r8a8Srgb,
	vk.FormatB8g8r8a8Unorm,
	vk.FormatB8g8r8a8Snorm,
}

// transferPlan is the outcome of the capability probe: which transfer path
// to record and whether serialization must reorder channels.
type transferPlan struct {
	// blit is true when the device can read srcFormat and write
	// CaptureFormat through an accelerated scaled blit. The blit performs
	// implicit format conversion, so no channel swap is ever needed on
	// this path.
	blit bool

	// swapChannels is true only on the copy path, for sources in the BGR
	// family.
	swapChannels bool
}

// probeTransfer decides the transfer path for one capture. Pure query: an
// "unsupported" answer is an expected outcome, not an error.
func probeTransfer(drv Driver, physicalDevice vk.PhysicalDevice, srcFormat vk.Format) transferPlan {
	blit := true

	// The source is read with optimal tiling, the staging image is written
	// with linear tiling. Both sides must support the blit for the
	// accelerated path.
	srcProps := drv.FormatProperties(physicalDevice, srcFormat)
	if srcProps.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit) == 0 {
		blit = false
	}

	dstProps := drv.FormatProperties(physicalDevice, CaptureFormat)
	if dstProps.LinearTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureBlitDstBit) == 0 {
		blit = false
	}

	plan := transferPlan{blit: blit}
	if !blit {
		for _, f := range bgrFormats {
			if srcFormat == f {
				plan.swapChannels = true
				break
			}
		}
	}
	return plan
}
