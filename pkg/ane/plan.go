package ane

import (
	"fmt"

	"github.com/samcharles93/anekit/pkg/anec"
)

// slotKind tags the role of one absolute channel index.
type slotKind uint8

const (
	slotAbsent slotKind = iota
	slotReserved
	slotDst
	slotSrc
)

func (k slotKind) String() string {
	switch k {
	case slotReserved:
		return "reserved"
	case slotDst:
		return "dst"
	case slotSrc:
		return "src"
	default:
		return "absent"
	}
}

type slot struct {
	kind slotKind
	idx  int // logical index within the kind
}

// channelPlan resolves the descriptor's reserved-range encoding once, at
// build time: every absolute channel index gets an explicit role, and the
// dst/src tables map logical tensor indices to absolute channels. Access
// paths never re-derive the index arithmetic.
type channelPlan struct {
	slots [TileCount]slot
	dst   []int
	src   []int
}

func buildPlan(h *anec.Header) (*channelPlan, error) {
	nd := int(h.DstCount)
	ns := int(h.SrcCount)
	if anec.ReservedChannels+nd+ns > TileCount {
		return nil, fmt.Errorf("%w: %d dst + %d src channels exceed table", ErrInvalidArg, nd, ns)
	}

	p := &channelPlan{
		dst: make([]int, nd),
		src: make([]int, ns),
	}
	for bdx := 0; bdx < anec.ReservedChannels; bdx++ {
		p.slots[bdx] = slot{kind: slotReserved, idx: bdx}
	}
	for i := 0; i < nd; i++ {
		bdx := h.DstChannel(i)
		p.slots[bdx] = slot{kind: slotDst, idx: i}
		p.dst[i] = bdx
	}
	for j := 0; j < ns; j++ {
		bdx := h.SrcChannel(j)
		p.slots[bdx] = slot{kind: slotSrc, idx: j}
		p.src[j] = bdx
	}
	return p, nil
}
