package lattice

// multiplierTag enumerates the Multiplier lattice's elements: Bot, Zero, One,
// NegOne, Top. Zero/One/NegOne track that a value is exactly thread-index
// times the given integer multiplier; Top means no linear relationship to
// the thread index could be established.
type multiplierTag int

const (
	multiplierBot multiplierTag = iota
	multiplierZero
	multiplierOne
	multiplierNegOne
	multiplierTop
)

// Multiplier is the abstract value used by the uncoalesced-access analysis.
// It tracks whether a value is a linear function of the thread index with
// multiplier 0, 1 or -1, plus whether the value is a boolean (result of a
// comparison) and/or an address (pointer-typed).
type Multiplier struct {
	tag           multiplierTag
	isBool        bool
	isAddressType bool
}

// Bot, Zero, One, NegOne and Top construct the corresponding lattice element.
func MultiplierBot() Multiplier { return Multiplier{tag: multiplierBot} }
func MultiplierZero() Multiplier { return Multiplier{tag: multiplierZero} }
func MultiplierOne() Multiplier   { return Multiplier{tag: multiplierOne} }
func MultiplierNegOne() Multiplier { return Multiplier{tag: multiplierNegOne} }
func MultiplierTop() Multiplier  { return Multiplier{tag: multiplierTop} }

// MultiplierFromInt maps an integer multiplier to its lattice element,
// folding anything outside {0, 1, -1} to Top. b marks the result as boolean.
func MultiplierFromInt(x int, b bool) Multiplier {
	switch x {
	case 0:
		return Multiplier{tag: multiplierZero, isBool: b}
	case 1:
		return Multiplier{tag: multiplierOne, isBool: b}
	case -1:
		return Multiplier{tag: multiplierNegOne, isBool: b}
	default:
		return Multiplier{tag: multiplierTop}
	}
}

// IntValue returns the integer multiplier corresponding to the value, with
// Top represented as 2 (matching the original's placeholder encoding: any
// value other than 0/1/-1 collapses to Top, so the exact magnitude is moot).
func (m Multiplier) IntValue() int {
	switch m.tag {
	case multiplierZero:
		return 0
	case multiplierOne:
		return 1
	case multiplierNegOne:
		return -1
	default:
		return 2
	}
}

func (m Multiplier) IsBot() bool    { return m.tag == multiplierBot }
func (m Multiplier) IsZero() bool   { return m.tag == multiplierZero }
func (m Multiplier) IsOne() bool    { return m.tag == multiplierOne }
func (m Multiplier) IsNegOne() bool { return m.tag == multiplierNegOne }
func (m Multiplier) IsTop() bool    { return m.tag == multiplierTop }
func (m Multiplier) IsBool() bool   { return m.isBool }

func (m Multiplier) IsAddressType() bool { return m.isAddressType }

// WithAddressType returns m marked (or unmarked) as pointer-typed.
func (m Multiplier) WithAddressType(addr bool) Multiplier {
	m.isAddressType = addr
	return m
}

// Join returns the least upper bound of m and v.
func (m Multiplier) Join(v Multiplier) Multiplier {
	if m.tag == multiplierBot {
		return v
	}
	if v.tag == multiplierBot {
		return m
	}
	if m.tag == v.tag {
		return v
	}
	return MultiplierTop()
}

// MultiplierSum computes the abstract value of v1 + v2.
func MultiplierSum(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == multiplierTop || v2.tag == multiplierTop {
		return MultiplierTop()
	}
	return MultiplierFromInt(v1.IntValue()+v2.IntValue(), false)
}

// MultiplierProd computes the abstract value of v1 * v2.
func MultiplierProd(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == multiplierZero && v2.tag == multiplierZero {
		return MultiplierZero()
	}
	return MultiplierTop()
}

// MultiplierEq computes the abstract value of the predicate (v1 == v2).
func MultiplierEq(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == v2.tag && v1.tag != multiplierTop {
		return Multiplier{tag: multiplierZero, isBool: true}
	}
	if ((v1.tag == multiplierOne || v1.tag == multiplierNegOne) && v2.tag == multiplierZero) ||
		((v2.tag == multiplierOne || v2.tag == multiplierNegOne) && v1.tag == multiplierZero) {
		return Multiplier{tag: multiplierOne, isBool: true}
	}
	return MultiplierTop()
}

// MultiplierNeq computes the abstract value of the predicate (v1 != v2).
func MultiplierNeq(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == v2.tag && v1.tag != multiplierTop {
		return Multiplier{tag: multiplierZero, isBool: true}
	}
	if ((v1.tag == multiplierOne || v1.tag == multiplierNegOne) && v2.tag == multiplierZero) ||
		((v2.tag == multiplierOne || v2.tag == multiplierNegOne) && v1.tag == multiplierZero) {
		return Multiplier{tag: multiplierNegOne, isBool: true}
	}
	return MultiplierTop()
}

// MultiplierAnd computes the abstract value of the conjunction v1 && v2.
func MultiplierAnd(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == multiplierZero && v2.tag == multiplierZero {
		return Multiplier{tag: multiplierZero, isBool: true}
	}
	if v1.tag == multiplierOne || v2.tag == multiplierOne {
		return Multiplier{tag: multiplierOne, isBool: true}
	}
	return MultiplierTop()
}

// MultiplierOr computes the abstract value of the disjunction v1 || v2.
func MultiplierOr(v1, v2 Multiplier) Multiplier {
	if v1.tag == multiplierBot || v2.tag == multiplierBot {
		return MultiplierBot()
	}
	if v1.tag == multiplierZero && v2.tag == multiplierZero {
		return Multiplier{tag: multiplierZero, isBool: true}
	}
	if v1.tag == multiplierNegOne || v2.tag == multiplierNegOne {
		return Multiplier{tag: multiplierNegOne, isBool: true}
	}
	return MultiplierTop()
}

// MultiplierNeg computes the abstract value of -v.
func MultiplierNeg(v Multiplier) Multiplier {
	if v.tag == multiplierBot {
		return MultiplierBot()
	}
	if v.tag == multiplierTop {
		return MultiplierTop()
	}
	return MultiplierFromInt(-v.IntValue(), v.isBool)
}

// Equal reports whether m and v denote the same lattice element, ignoring
// the isBool/isAddressType annotations (matching the original's operator==,
// which compares only the tag).
func (m Multiplier) Equal(v Multiplier) bool { return m.tag == v.tag }

func (m Multiplier) String() string {
	s := ""
	if m.isAddressType {
		s += "*"
	}
	switch m.tag {
	case multiplierBot:
		return s + "u"
	case multiplierZero:
		return s + "0"
	case multiplierOne:
		return s + "1"
	case multiplierNegOne:
		return s + "-1"
	default:
		return s + ">1"
	}
}
