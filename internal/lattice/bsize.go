package lattice

// bsizeTag enumerates the BSizeDependence lattice's elements.
type bsizeTag int

const (
	bsizeBot bsizeTag = iota
	bsizeConst
	bsizeTid
	bsizeBid
	bsizeBsize
	bsizeGsize
	bsizeBidBsize
	bsizeBConst
	bsizeBBsize
	bsizeTop
)

// MultiplierKey identifies the IR value used as a symbolic multiplier (the
// original's `const llvm::Value* k_`). It is opaque to the lattice package;
// equality is whatever the caller's value-handle type provides.
type MultiplierKey interface {
	comparable
}

// BSize is the abstract value used by the block-size-invariance analysis. It
// tracks dependence on threadIdx (tid), blockIdx (bid), blockDim (bsize) and
// gridDim (gsize), a sign, an optional symbolic multiplier, whether that
// multiplier is unknown, and whether the value is a pure constant (as
// opposed to merely block-size independent, e.g. a function of a kernel
// argument). The multiplier key type is instantiated to the concrete IR's
// value-handle type by the analyses that use this lattice.
type BSize[K MultiplierKey] struct {
	tag           bsizeTag
	negative      bool
	mult          K
	hasMult       bool
	unknownMult   bool
	pureConstant  bool
	isAddressType bool
}

func BSizeBot[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeBot} }
func BSizeConst[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeConst} }
func BSizeTid[K MultiplierKey]() BSize[K]  { return BSize[K]{tag: bsizeTid} }
func BSizeBid[K MultiplierKey]() BSize[K]  { return BSize[K]{tag: bsizeBid} }
func BSizeBsize[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeBsize} }
func BSizeGsize[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeGsize} }
func BSizeBidBsize[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeBidBsize} }
func BSizeBConst[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeBConst} }
func BSizeBBsize[K MultiplierKey]() BSize[K] { return BSize[K]{tag: bsizeBBsize} }
func BSizeTop[K MultiplierKey]() BSize[K]  { return BSize[K]{tag: bsizeTop} }

// BSizeConstWithKey builds a Const value carrying a concrete IR value as the
// result handle (mirrors BSizeDependenceValue(CONST, false, res)).
func BSizeConstWithKey[K MultiplierKey](key K) BSize[K] {
	return BSize[K]{tag: bsizeConst, mult: key, hasMult: true}
}

// WithNegative returns b with its sign set to neg.
func (b BSize[K]) WithNegative(neg bool) BSize[K] {
	b.negative = neg
	return b
}

// WithMultiplier returns b carrying key as its symbolic multiplier.
func (b BSize[K]) WithMultiplier(key K) BSize[K] {
	b.mult = key
	b.hasMult = true
	b.unknownMult = false
	return b
}

func (b BSize[K]) IsBot() bool      { return b.tag == bsizeBot }
func (b BSize[K]) IsConst() bool    { return b.tag == bsizeConst }
func (b BSize[K]) IsTid() bool      { return b.tag == bsizeTid }
func (b BSize[K]) IsBid() bool      { return b.tag == bsizeBid }
func (b BSize[K]) IsBsize() bool    { return b.tag == bsizeBsize }
func (b BSize[K]) IsGsize() bool    { return b.tag == bsizeGsize }
func (b BSize[K]) IsBidBsize() bool { return b.tag == bsizeBidBsize }
func (b BSize[K]) IsBConst() bool   { return b.tag == bsizeBConst }
func (b BSize[K]) IsBBsize() bool   { return b.tag == bsizeBBsize }
func (b BSize[K]) IsTop() bool      { return b.tag == bsizeTop }

// IsBoolean matches BSizeDependenceValue::isBoolean: only B_CONST and
// B_BSIZE are boolean-shaped results.
func (b BSize[K]) IsBoolean() bool { return b.tag == bsizeBConst || b.tag == bsizeBBsize }

func (b BSize[K]) IsNegative() bool   { return b.negative }
func (b BSize[K]) IsPureConstant() bool { return b.pureConstant }
func (b BSize[K]) HasMultiplier() bool  { return b.hasMult }
func (b BSize[K]) Multiplier() K        { return b.mult }
func (b BSize[K]) IsUnknownMultiplier() bool { return b.unknownMult }
func (b BSize[K]) IsAddressType() bool  { return b.isAddressType }

// WithAddressType returns b marked (or unmarked) as pointer-typed.
func (b BSize[K]) WithAddressType(addr bool) BSize[K] {
	b.isAddressType = addr
	return b
}

// WithPureConstant returns b marked (or unmarked) as a pure constant.
func (b BSize[K]) WithPureConstant(pure bool) BSize[K] {
	b.pureConstant = pure
	return b
}

// sameMultiplier reports whether b and v carry the same, known multiplier.
func sameMultiplier[K MultiplierKey](b, v BSize[K]) bool {
	if b.unknownMult || v.unknownMult {
		return false
	}
	if !b.hasMult && !v.hasMult {
		return true
	}
	if b.hasMult != v.hasMult {
		return false
	}
	return b.mult == v.mult
}

// Join returns the least upper bound of b and v, per
// BSizeDependenceValue::join.
func (b BSize[K]) Join(v BSize[K]) BSize[K] {
	if b.tag == bsizeBot {
		return v
	}
	if v.tag == bsizeBot {
		return b
	}
	// Special case: merge of B_CONST with CONST returns B_CONST.
	if v.tag == bsizeBConst && b.tag == bsizeConst {
		return v
	}
	if b.tag == bsizeBConst && v.tag == bsizeConst {
		return b
	}
	if b.tag == v.tag && b.negative == v.negative {
		if sameMultiplier(b, v) {
			return v
		}
		return BSize[K]{tag: b.tag, negative: b.negative, unknownMult: true}
	}
	// Merging (b_bsize) with (-b_bsize).
	if b.tag == bsizeBBsize && b.tag == v.tag && b.negative != v.negative {
		return BSizeBConst[K]()
	}
	return BSizeTop[K]()
}

// BSizeSum computes the abstract value of v1 + v2. res is the resulting IR
// value, recorded as the multiplier handle of a Const result (two Const
// operands, or a Tid/BidBsize pair that cancels out).
func BSizeSum[K MultiplierKey](v1, v2 BSize[K], res K) BSize[K] {
	if v1.tag == bsizeBot || v2.tag == bsizeBot {
		return BSizeBot[K]()
	}
	if v1.tag == bsizeTop || v2.tag == bsizeTop {
		return BSizeTop[K]()
	}
	if v1.tag == bsizeConst && v2.tag == bsizeConst {
		return BSizeConstWithKey(res)
	}
	if (v1.tag == bsizeTid || v1.tag == bsizeBidBsize) && v2.tag == bsizeConst {
		return v1
	}
	if (v2.tag == bsizeTid || v2.tag == bsizeBidBsize) && v1.tag == bsizeConst {
		return v2
	}
	if ((v1.tag == bsizeTid && v2.tag == bsizeBidBsize) || (v2.tag == bsizeTid && v1.tag == bsizeBidBsize)) &&
		sameMultiplier(v1, v2) && v1.negative == v2.negative && !v1.unknownMult && !v2.unknownMult {
		return BSizeConstWithKey(res)
	}
	return BSizeTop[K]()
}

// BSizeProd computes the abstract value of v1 * v2.
func BSizeProd[K MultiplierKey](v1, v2 BSize[K], res K) BSize[K] {
	if v1.tag == bsizeBot || v2.tag == bsizeBot {
		return BSizeBot[K]()
	}
	if v1.tag == bsizeConst && v2.tag == bsizeConst {
		return BSizeConstWithKey(res)
	}
	// Multiplying non-const value with a constant.
	if v2.tag == bsizeConst && v2.hasMult && v1.tag != bsizeConst && v1.tag != bsizeTop && !v1.hasMult {
		return BSize[K]{tag: v1.tag, negative: v1.negative, mult: v2.mult, hasMult: true}
	}
	if v1.tag == bsizeConst && v1.hasMult && v2.tag != bsizeConst && v2.tag != bsizeTop && !v2.hasMult {
		return BSize[K]{tag: v2.tag, negative: v2.negative, mult: v1.mult, hasMult: true}
	}
	// Multiplying (bid) with (bsize).
	if (v1.tag == bsizeBid && v2.tag == bsizeBsize) || (v2.tag == bsizeBid && v1.tag == bsizeBsize) {
		if !v1.hasMult || !v2.hasMult {
			negative := v1.negative != v2.negative
			key, has := v1.mult, v1.hasMult
			if !has {
				key, has = v2.mult, v2.hasMult
			}
			return BSize[K]{tag: bsizeBidBsize, negative: negative, mult: key, hasMult: has}
		}
	}
	// Multiplying (gsize) with (bsize).
	if (v1.tag == bsizeGsize && v2.tag == bsizeBsize) || (v2.tag == bsizeGsize && v1.tag == bsizeBsize) {
		return BSizeConstWithKey(res)
	}
	return BSizeTop[K]()
}

// BSizeNeg computes the abstract value of -v.
func BSizeNeg[K MultiplierKey](v BSize[K], res K) BSize[K] {
	if v.tag == bsizeBot {
		return v
	}
	if v.tag == bsizeTop {
		return v
	}
	if v.tag == bsizeBConst {
		return v
	}
	if v.tag == bsizeConst {
		return BSizeConstWithKey(res)
	}
	return BSize[K]{tag: v.tag, negative: !v.negative, mult: v.mult, hasMult: v.hasMult, unknownMult: v.unknownMult}
}

// BSizeAnd implements the precedence-for-v1 conjunction: if v1 already
// depends on block size, return v1, else return v2.
func BSizeAnd[K MultiplierKey](v1, v2 BSize[K]) BSize[K] {
	if v1.tag == bsizeBBsize {
		return v1
	}
	return v2
}

// BSizeOr mirrors BSizeAnd (the original defines both operators identically).
func BSizeOr[K MultiplierKey](v1, v2 BSize[K]) BSize[K] {
	if v1.tag == bsizeBBsize {
		return v1
	}
	return v2
}

// BSizeRel computes the abstract value of the relational predicate (v1 op v2).
func BSizeRel[K MultiplierKey](v1, v2 BSize[K]) BSize[K] {
	if v1.tag == bsizeConst && v2.tag == bsizeConst {
		return BSizeBConst[K]()
	}
	return BSizeBBsize[K]()
}

// Equal mirrors operator== : equal tag, sign, and (known, matching) or
// (both unknown) multiplier.
func (b BSize[K]) Equal(v BSize[K]) bool {
	if b.tag != v.tag || b.negative != v.negative {
		return false
	}
	if !b.unknownMult && !v.unknownMult {
		return b.hasMult == v.hasMult && (!b.hasMult || b.mult == v.mult)
	}
	return b.unknownMult && v.unknownMult
}

func (b BSize[K]) String() string {
	s := ""
	if b.isAddressType {
		s += "*"
	}
	if b.negative {
		s += "-"
	}
	if b.tag != bsizeConst && b.tag != bsizeBConst {
		if b.unknownMult {
			s += "{ ?? }."
		} else if b.hasMult {
			s += "{k}."
		}
	}
	switch b.tag {
	case bsizeBot:
		return s + "u"
	case bsizeConst:
		return s + "c"
	case bsizeBConst:
		return s + "b_c"
	case bsizeTid:
		return s + "tid"
	case bsizeBid:
		return s + "bid"
	case bsizeBsize:
		return s + "bdim"
	case bsizeBBsize:
		return s + "b_bdim"
	case bsizeBidBsize:
		return s + "bid.bdim"
	case bsizeGsize:
		return s + "gdim"
	default:
		return s + "?"
	}
}
