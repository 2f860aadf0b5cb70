package diag

import (
	"fmt"
)

// Code identifies one diagnostic kind. The thousands digit groups codes by
// error class so that callers can classify without matching messages.
type Code uint16

const (
	UnknownCode Code = 0

	// Parse: the front end rejected the input.
	ParseInfo        Code = 1000
	ParseUnexpected  Code = 1001
	ParseUnclosed    Code = 1002
	ParseBadNumber   Code = 1003
	ParseBadType     Code = 1004
	ParseBadPragma   Code = 1005
	ParseExpectMain  Code = 1006
	ParseDuplicate   Code = 1007

	// Unsupported: valid source outside the synthesizable subset.
	UnsupportedInfo            Code = 2000
	UnsupportedConstruct       Code = 2001
	UnsupportedConditionalBrk  Code = 2002
	UnsupportedAnonRecord      Code = 2003
	UnsupportedChannelCapture  Code = 2004
	UnsupportedChannelIndirect Code = 2005
	UnsupportedIOInOperator    Code = 2006
	UnsupportedLoopForm        Code = 2007

	// Unsequenced: undefined evaluation order on one storage location.
	UnsequencedInfo   Code = 3000
	UnsequencedEffect Code = 3001

	// Bound: loop shape or trip count not statically provable.
	BoundInfo          Code = 4000
	BoundNotUnrolled   Code = 4001
	BoundMissingClause Code = 4002
	BoundMaxIterations Code = 4003
	BoundLoopVarWrite  Code = 4004
	BoundNotConstant   Code = 4005

	// Shape: aggregate layout errors.
	ShapeInfo          Code = 5000
	ShapeInitTooLong   Code = 5001
	ShapeFlattenFields Code = 5002
	ShapeFieldUnknown  Code = 5003
	ShapeTypeUnknown   Code = 5004

	// NotFound: missing entry points and symbols.
	NotFoundInfo   Code = 6000
	NotFoundTop    Code = 6001
	NotFoundSymbol Code = 6002
	NotFoundChan   Code = 6003
)

// Class returns the thousands group of the code.
func (c Code) Class() Code {
	return c / 1000 * 1000
}

func (c Code) String() string {
	var prefix string
	switch c.Class() {
	case ParseInfo.Class():
		prefix = "PARSE"
	case UnsupportedInfo.Class():
		prefix = "UNSUPPORTED"
	case UnsequencedInfo.Class():
		prefix = "UNSEQUENCED"
	case BoundInfo.Class():
		prefix = "BOUND"
	case ShapeInfo.Class():
		prefix = "SHAPE"
	case NotFoundInfo.Class():
		prefix = "NOTFOUND"
	default:
		prefix = "UNKNOWN"
	}
	return fmt.Sprintf("%s(%04d)", prefix, uint16(c))
}
