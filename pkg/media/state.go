package media

// State is the lifecycle state of an Item.
//
// The non-error states are ordered: an item only ever moves forward through
// Downloading, Downloaded, Decoded and GPUResident. Error is terminal and can
// be entered from any of them.
type State int32

const (
	StateDownloading State = iota
	StateDownloaded
	StateDecoded
	StateGPUResident
	StateError
)

func (s State) String() string {
	switch s {
	case StateDownloading:
		return "Downloading"
	case StateDownloaded:
		return "Downloaded"
	case StateDecoded:
		return "Decoded"
	case StateGPUResident:
		return "GPUResident"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// reached reports whether current satisfies a wait for target.
func reached(current, target State) bool {
	if target == StateError {
		return current == StateError
	}
	return current != StateError && current >= target
}
