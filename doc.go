// Package vkcapture provides synchronous, on-demand readback of a live
// Vulkan color image into host memory and serialization to a binary PPM file.
//
// # Overview
//
// vkcapture is a diagnostic utility for rendering applications: it snapshots
// the currently displayed frame without disturbing the render loop's resource
// ownership. The source image is borrowed for the duration of one call and
// handed back in the exact layout it had on entry.
//
// # Quick Start
//
//	import (
//	    vk "github.com/vulkan-go/vulkan"
//
//	    "github.com/TNtube/vkcapture"
//	    "github.com/TNtube/vkcapture/vkdriver"
//	)
//
//	mgr, _ := vkdriver.NewCommandManager(device, physicalDevice, queueFamilyIndex)
//	defer mgr.Destroy()
//
//	err := vkcapture.Save(vkcapture.CaptureRequest{
//	    Device:         device,
//	    PhysicalDevice: physicalDevice,
//	    Commands:       mgr,
//	    Queue:          queue,
//	    SrcImage:       swapchainImage,
//	    SrcFormat:      vk.FormatB8g8r8a8Unorm,
//	    Width:          width,
//	    Height:         height,
//	    Path:           "frame0.ppm",
//	})
//
// # Architecture
//
// A capture runs five sequential stages with no feedback loop:
//
//   - Capability probe: can the source format be blitted, and can the
//     canonical R8G8B8A8_UNORM staging format receive a blit?
//   - Staging allocation: a linearly tiled, host-visible destination image.
//   - Transfer orchestration: layout transitions, blit-or-copy, blocking
//     submit.
//   - Pixel serialization: stride-aware scanline walk into a P6 stream.
//   - Teardown: unmap, free, destroy, exactly once on every exit path.
//
// Native Vulkan access goes through the narrow Driver and CommandManager
// interfaces; the host application supplies the device and queue. The
// production implementation lives in the vkdriver subpackage and registers
// itself as the default driver on import.
//
// # Concurrency
//
// Save is fully synchronous and blocks on device completion before any byte
// is written. The staging image is exclusively owned by one call. Keeping the
// source image free of concurrent GPU writes during the call is the caller's
// responsibility.
package vkcapture
