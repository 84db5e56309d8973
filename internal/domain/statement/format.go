package statement

// FormatID identifies a supported statement layout. The set is closed.
type FormatID string

const (
	FormatEBL FormatID = "EBL"
	FormatMTB FormatID = "MTB"
)

// Formats returns every supported format in detection order
func Formats() []FormatID {
	return []FormatID{FormatEBL, FormatMTB}
}

// Valid reports whether f is one of the supported formats
func (f FormatID) Valid() bool {
	switch f {
	case FormatEBL, FormatMTB:
		return true
	default:
		return false
	}
}

func (f FormatID) String() string {
	return string(f)
}
