package devicetracker

// UpdateFlags is the union of update_common_device behaviors
// requested by a caller.
type UpdateFlags uint32

const (
	UpdatePackets UpdateFlags = 1 << iota
	UpdateFrequencies
	UpdateLocation
	UpdateEmptyLocation
	UpdateSeenBy
	UpdateExistingOnly
)

func (f UpdateFlags) has(bit UpdateFlags) bool { return f&bit != 0 }
