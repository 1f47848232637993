package acquire

const (
	// SyncByte opens every MPEG transport stream packet.
	SyncByte = 0x47
	// PacketSize is the length of one transport stream packet.
	PacketSize = 188
)

// ValidSegment reports whether data looks like a transport stream segment:
// at least one packet long and starting with the sync byte.
func ValidSegment(data []byte) bool {
	return len(data) >= PacketSize && data[0] == SyncByte
}

func rejectReason(data []byte) string {
	switch {
	case len(data) == 0:
		return "empty payload"
	case len(data) < PacketSize:
		return "short payload"
	case data[0] != SyncByte:
		return "missing sync byte"
	default:
		return ""
	}
}
