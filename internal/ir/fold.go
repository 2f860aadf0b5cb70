package ir

// mask returns the value mask for a width of w bits.
func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

// toSigned reinterprets the low w bits of v as a two's complement value.
func toSigned(v uint64, w int) int64 {
	v &= mask(w)
	if w < 64 && v&(uint64(1)<<uint(w-1)) != 0 {
		return int64(v | ^mask(w))
	}
	return int64(v)
}

// FromSigned encodes a signed value into the low w bits.
func FromSigned(v int64, w int) uint64 {
	return uint64(v) & mask(w)
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// evalBinary computes one binary bits op over operand values of width w
// (comparison results are 1 bit regardless of w). It is shared by the
// builder's constant folding and the evaluator.
func evalBinary(op Op, w int, a, b uint64) (uint64, bool) {
	a &= mask(w)
	b &= mask(w)
	sa, sb := toSigned(a, w), toSigned(b, w)
	switch op {
	case OpAdd:
		return (a + b) & mask(w), true
	case OpSub:
		return (a - b) & mask(w), true
	case OpSMul, OpUMul:
		return (a * b) & mask(w), true
	case OpUDiv:
		if b == 0 {
			return mask(w), true
		}
		return (a / b) & mask(w), true
	case OpSDiv:
		if sb == 0 {
			if sa < 0 {
				return uint64(1) << uint(w-1) & mask(w), true
			}
			return mask(w) >> 1, true
		}
		return FromSigned(sa/sb, w), true
	case OpUMod:
		if b == 0 {
			return 0, true
		}
		return (a % b) & mask(w), true
	case OpSMod:
		if sb == 0 {
			return 0, true
		}
		return FromSigned(sa%sb, w), true
	case OpAnd:
		return a & b, true
	case OpOr:
		return a | b, true
	case OpXor:
		return a ^ b, true
	case OpShll:
		if b >= uint64(w) {
			return 0, true
		}
		return (a << b) & mask(w), true
	case OpShrl:
		if b >= uint64(w) {
			return 0, true
		}
		return a >> b, true
	case OpShra:
		if b >= uint64(w) {
			b = uint64(w - 1)
		}
		return FromSigned(sa>>b, w), true
	case OpEq:
		return boolBit(a == b), true
	case OpNe:
		return boolBit(a != b), true
	case OpSLt:
		return boolBit(sa < sb), true
	case OpSLe:
		return boolBit(sa <= sb), true
	case OpSGt:
		return boolBit(sa > sb), true
	case OpSGe:
		return boolBit(sa >= sb), true
	case OpULt:
		return boolBit(a < b), true
	case OpULe:
		return boolBit(a <= b), true
	case OpUGt:
		return boolBit(a > b), true
	case OpUGe:
		return boolBit(a >= b), true
	}
	return 0, false
}

func evalUnary(op Op, w int, a uint64) (uint64, bool) {
	a &= mask(w)
	switch op {
	case OpNot:
		return ^a & mask(w), true
	case OpNeg:
		return (-a) & mask(w), true
	}
	return 0, false
}
