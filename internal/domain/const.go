package domain

const (
	RequesterIdCtxKey = "cl-requesterId"
)

const (
	QueueKeyAntenatal    = "antenatal_entries"
	QueueKeyImmunization = "immunization_entries"
)

// QueueKeyFor returns the durable key that holds entries of the given kind.
func QueueKeyFor(kind PayloadKind) string {
	switch kind {
	case PayloadImmunization:
		return QueueKeyImmunization
	default:
		return QueueKeyAntenatal
	}
}

// FallbackAuthor labels entries created without a signing identity.
const FallbackAuthor = "Healthcare Worker"

type ConnectivityState int

const (
	ConnectivityUnknown ConnectivityState = iota
	ConnectivityOnline
	ConnectivityOffline
)

func (s ConnectivityState) String() string {
	switch s {
	case ConnectivityOnline:
		return "online"
	case ConnectivityOffline:
		return "offline"
	default:
		return "unknown"
	}
}
