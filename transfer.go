package vkcapture

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// colorRange is the full subresource range of a single-mip, single-layer
// color image. Every barrier in the transfer sequence targets this range.
var colorRange = vk.ImageSubresourceRange{
	AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	BaseMipLevel:   0,
	LevelCount:     1,
	BaseArrayLayer: 0,
	LayerCount:     1,
}

// imageBarrier builds a transfer-stage image memory barrier for the full
// color range of image.
func imageBarrier(image vk.Image, srcAccess, dstAccess vk.AccessFlagBits, oldLayout, newLayout vk.ImageLayout) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(srcAccess),
		DstAccessMask:       vk.AccessFlags(dstAccess),
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorRange,
	}
}

// executeTransfer records and synchronously executes the capture transfer:
// both images are transitioned into transfer layouts, the pixels move via
// blit or copy according to plan, and both images are transitioned out
// again. The source image leaves in PRESENT_SRC, exactly the layout it held
// on entry, on both paths.
//
// The restoration barriers are part of the same one-shot command buffer as
// the transfer itself: a failed submission executes none of the sequence, so
// the source layout is never left in an intermediate state.
func executeTransfer(drv Driver, req CaptureRequest, staging vk.Image, plan transferPlan) error {
	cmd, err := req.Commands.BeginOneShot()
	if err != nil {
		return errors.Wrap(err, "vkcapture: begin transfer commands")
	}

	transfer := vk.PipelineStageFlags(vk.PipelineStageTransferBit)

	drv.CmdPipelineBarrier(cmd, transfer, transfer, []vk.ImageMemoryBarrier{
		imageBarrier(staging,
			0, vk.AccessTransferWriteBit,
			vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal),
	})
	drv.CmdPipelineBarrier(cmd, transfer, transfer, []vk.ImageMemoryBarrier{
		imageBarrier(req.SrcImage,
			vk.AccessMemoryReadBit, vk.AccessTransferReadBit,
			vk.ImageLayoutPresentSrc, vk.ImageLayoutTransferSrcOptimal),
	})

	if plan.blit {
		// Same extent on both sides, so nothing is scaled. The blit path
		// is chosen purely for its implicit format conversion.
		extent := vk.Offset3D{
			X: int32(req.Width),
			Y: int32(req.Height),
			Z: 1,
		}
		region := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			SrcOffsets: [2]vk.Offset3D{{}, extent},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			DstOffsets: [2]vk.Offset3D{{}, extent},
		}
		drv.CmdBlitImage(cmd,
			req.SrcImage, vk.ImageLayoutTransferSrcOptimal,
			staging, vk.ImageLayoutTransferDstOptimal,
			[]vk.ImageBlit{region}, vk.FilterNearest)
	} else {
		region := vk.ImageCopy{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			Extent: vk.Extent3D{
				Width:  req.Width,
				Height: req.Height,
				Depth:  1,
			},
		}
		drv.CmdCopyImage(cmd,
			req.SrcImage, vk.ImageLayoutTransferSrcOptimal,
			staging, vk.ImageLayoutTransferDstOptimal,
			[]vk.ImageCopy{region})
	}

	// GENERAL is the only layout in which host reads of the mapped staging
	// memory are defined.
	drv.CmdPipelineBarrier(cmd, transfer, transfer, []vk.ImageMemoryBarrier{
		imageBarrier(staging,
			vk.AccessTransferWriteBit, vk.AccessMemoryReadBit,
			vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutGeneral),
	})
	drv.CmdPipelineBarrier(cmd, transfer, transfer, []vk.ImageMemoryBarrier{
		imageBarrier(req.SrcImage,
			vk.AccessTransferReadBit, vk.AccessMemoryReadBit,
			vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutPresentSrc),
	})

	if err := req.Commands.SubmitAndWait(cmd, req.Queue); err != nil {
		return errors.Wrap(err, "vkcapture: submit transfer commands")
	}
	return nil
}
