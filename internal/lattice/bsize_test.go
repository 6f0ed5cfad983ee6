package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// valueHandle is a comparable stand-in for *kernelir.Value, used only to
// exercise the BSize lattice generically over a multiplier key type.
type valueHandle int

func TestBSizeJoin(t *testing.T) {
	assert.True(t, BSizeBot[valueHandle]().Join(BSizeTid[valueHandle]()).Equal(BSizeTid[valueHandle]()))
	assert.True(t, BSizeTid[valueHandle]().Join(BSizeBot[valueHandle]()).Equal(BSizeTid[valueHandle]()))
	assert.True(t, BSizeConst[valueHandle]().Join(BSizeBConst[valueHandle]()).Equal(BSizeBConst[valueHandle]()))
	assert.True(t, BSizeBConst[valueHandle]().Join(BSizeConst[valueHandle]()).Equal(BSizeBConst[valueHandle]()))
	assert.True(t, BSizeTid[valueHandle]().Join(BSizeBid[valueHandle]()).Equal(BSizeTop[valueHandle]()))

	neg := BSizeBBsize[valueHandle]().WithNegative(true)
	pos := BSizeBBsize[valueHandle]()
	assert.True(t, pos.Join(neg).Equal(BSizeBConst[valueHandle]()))

	a := BSizeTid[valueHandle]().WithMultiplier(valueHandle(1))
	b := BSizeTid[valueHandle]().WithMultiplier(valueHandle(2))
	joined := a.Join(b)
	assert.True(t, joined.IsTid())
	assert.True(t, joined.IsUnknownMultiplier())
}

func TestBSizeSum(t *testing.T) {
	assert.True(t, BSizeSum(BSizeConst[valueHandle](), BSizeConst[valueHandle](), valueHandle(7)).IsConst())
	assert.True(t, BSizeSum(BSizeTid[valueHandle](), BSizeConst[valueHandle](), valueHandle(0)).IsTid())
	assert.True(t, BSizeSum(BSizeBot[valueHandle](), BSizeConst[valueHandle](), valueHandle(0)).IsBot())
	assert.True(t, BSizeSum(BSizeTop[valueHandle](), BSizeConst[valueHandle](), valueHandle(0)).IsTop())

	tid := BSizeTid[valueHandle]().WithMultiplier(valueHandle(3))
	bb := BSizeBidBsize[valueHandle]().WithMultiplier(valueHandle(3))
	assert.True(t, BSizeSum(tid, bb, valueHandle(9)).IsConst())
}

func TestBSizeProd(t *testing.T) {
	assert.True(t, BSizeProd(BSizeConst[valueHandle](), BSizeConst[valueHandle](), valueHandle(1)).IsConst())

	bid := BSizeBid[valueHandle]()
	bsz := BSizeBsize[valueHandle]()
	prod := BSizeProd(bid, bsz, valueHandle(0))
	assert.True(t, prod.IsBidBsize())
	assert.False(t, prod.IsNegative())

	gsz := BSizeGsize[valueHandle]()
	assert.True(t, BSizeProd(gsz, bsz, valueHandle(5)).IsConst())
}

func TestBSizeNeg(t *testing.T) {
	assert.True(t, BSizeNeg(BSizeBot[valueHandle](), valueHandle(0)).IsBot())
	assert.True(t, BSizeNeg(BSizeBConst[valueHandle](), valueHandle(0)).IsBConst())
	assert.True(t, BSizeNeg(BSizeConst[valueHandle](), valueHandle(0)).IsConst())

	tid := BSizeTid[valueHandle]()
	negTid := BSizeNeg(tid, valueHandle(0))
	assert.True(t, negTid.IsTid())
	assert.True(t, negTid.IsNegative())
}

func TestBSizeRel(t *testing.T) {
	assert.True(t, BSizeRel(BSizeConst[valueHandle](), BSizeConst[valueHandle]()).IsBConst())
	assert.True(t, BSizeRel(BSizeTid[valueHandle](), BSizeConst[valueHandle]()).IsBBsize())
}

func TestBSizeAndOrPrecedence(t *testing.T) {
	bbsize := BSizeBBsize[valueHandle]()
	bconst := BSizeBConst[valueHandle]()
	assert.True(t, BSizeAnd(bbsize, bconst).Equal(bbsize))
	assert.True(t, BSizeAnd(bconst, bbsize).Equal(bbsize))
	assert.True(t, BSizeOr(bconst, bbsize).Equal(bbsize))
}

func TestBSizeString(t *testing.T) {
	assert.Equal(t, "c", BSizeConst[valueHandle]().String())
	assert.Equal(t, "tid", BSizeTid[valueHandle]().String())
	assert.Equal(t, "-bid", BSizeBid[valueHandle]().WithNegative(true).String())
	assert.Equal(t, "*bdim", BSizeBsize[valueHandle]().WithAddressType(true).String())
}
