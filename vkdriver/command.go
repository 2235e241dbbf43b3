package vkdriver

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/TNtube/vkcapture"
)

// CommandManager implements vkcapture.CommandManager with a transient
// command pool and one fence per submission. One instance can serve many
// captures, but not concurrently: command pools are externally
// synchronized in Vulkan.
type CommandManager struct {
	device         vk.Device
	physicalDevice vk.PhysicalDevice
	pool           vk.CommandPool
}

var _ vkcapture.CommandManager = (*CommandManager)(nil)

// NewCommandManager creates a command pool on the given queue family.
// The queue later passed to SubmitAndWait must belong to that family.
func NewCommandManager(device vk.Device, physicalDevice vk.PhysicalDevice, queueFamilyIndex uint32) (*CommandManager, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: queueFamilyIndex,
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &info, nil, &pool)); err != nil {
		return nil, errors.Wrap(err, "vkCreateCommandPool")
	}
	return &CommandManager{
		device:         device,
		physicalDevice: physicalDevice,
		pool:           pool,
	}, nil
}

// Destroy releases the command pool. The manager must not be used afterwards.
func (m *CommandManager) Destroy() {
	vk.DestroyCommandPool(m.device, m.pool, nil)
}

// MemoryTypeIndex returns the first memory type contained in typeBits that
// has all of the requested property flags.
func (m *CommandManager) MemoryTypeIndex(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(m.physicalDevice, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memoryType := memProps.MemoryTypes[i]
		memoryType.Deref()
		if typeBits&(1<<i) != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Newf("vkdriver: no memory type in mask %#x with properties %#x", typeBits, properties)
}

// BeginOneShot allocates and begins a primary one-time-submit command buffer.
func (m *CommandManager) BeginOneShot() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        m.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cmdBufs := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(m.device, &allocInfo, cmdBufs)); err != nil {
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmdBufs[0], &beginInfo)); err != nil {
		vk.FreeCommandBuffers(m.device, m.pool, 1, cmdBufs)
		return nil, errors.Wrap(err, "vkBeginCommandBuffer")
	}
	return cmdBufs[0], nil
}

// SubmitAndWait ends cmd, submits it to queue behind a fence and blocks
// until the device signals completion. The command buffer is freed on every
// path.
func (m *CommandManager) SubmitAndWait(cmd vk.CommandBuffer, queue vk.Queue) error {
	defer vk.FreeCommandBuffers(m.device, m.pool, 1, []vk.CommandBuffer{cmd})

	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return errors.Wrap(err, "vkEndCommandBuffer")
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(m.device, &fenceInfo, nil, &fence)); err != nil {
		return errors.Wrap(err, "vkCreateFence")
	}
	defer vk.DestroyFence(m.device, fence, nil)

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if err := vk.Error(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence)); err != nil {
		return errors.Wrap(err, "vkQueueSubmit")
	}

	// No internal timeout: a device hang is not bounded here.
	if err := vk.Error(vk.WaitForFences(m.device, 1, []vk.Fence{fence}, vk.True, ^uint64(0))); err != nil {
		return errors.Wrap(err, "vkWaitForFences")
	}
	return nil
}
