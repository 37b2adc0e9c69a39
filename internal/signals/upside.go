package signals

import (
	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// limitEpsilon absorbs the 0.01 price tick when comparing against the limit price
const limitEpsilon = 0.005

// Upside computes the distance from the last price to the segment's limit-up price
func Upside(q contracts.Quote, seg contracts.Segment) contracts.UpsideSpace {
	pct := universe.LimitPct(seg)
	limit := universe.LimitPrice(q.PrevClose, pct)
	space := contracts.UpsideSpace{
		LimitPct:   pct,
		LimitPrice: limit,
	}
	if limit <= 0 || q.Price <= 0 {
		return space
	}

	space.UpsidePct = round2((limit - q.Price) / q.Price * 100)
	space.Touched = q.High >= limit-limitEpsilon
	space.Sealed = q.Price >= limit-limitEpsilon
	return space
}
