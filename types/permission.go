package types

// Permission is the access mode requested on a page
type Permission int32

const (
	Shared Permission = iota
	Exclusive
)

func (p Permission) String() string {
	switch p {
	case Shared:
		return "SHARED"
	case Exclusive:
		return "EXCLUSIVE"
	default:
		return "UNKNOWN"
	}
}
