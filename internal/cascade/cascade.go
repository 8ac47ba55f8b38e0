package cascade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/tariff-cli/internal/model"
)

// zeroRateCaveat is appended whenever the primary rate is exactly zero:
// upstream data cannot distinguish genuine duty-free status from a gap.
const zeroRateCaveat = "zero rate may indicate duty-free status or missing data; verify against an authoritative tariff schedule"

// Executor runs the fallback cascade against a primary source and an
// optional secondary cross-reference source.
type Executor struct {
	primary   Primary
	secondary Secondary
}

func NewExecutor(primary Primary, secondary Secondary) *Executor {
	return &Executor{primary: primary, secondary: secondary}
}

// attempt is one (partner, granularity) combination in the ordered scan.
type attempt struct {
	partner string
	product string
}

// ladder returns the code-granularity ladder for a product code: full
// code, 4-digit prefix, 2-digit prefix, with duplicates collapsed when
// the code is already short.
func ladder(code string) []string {
	levels := []string{code}
	if len(code) > 4 {
		levels = append(levels, code[:4])
	}
	if len(code) > 2 {
		levels = append(levels, code[:2])
	}
	return levels
}

// attempts builds the ordered scan list: partner-outer, granularity-inner.
func attempts(partner, product string) []attempt {
	partners := []string{partner}
	if partner != model.WorldPartner {
		partners = append(partners, model.WorldPartner)
	}

	var out []attempt
	for _, p := range partners {
		for _, hs := range ladder(product) {
			out = append(out, attempt{partner: p, product: hs})
		}
	}
	return out
}

// Run executes the full cascade for one query. The returned result's rate
// is nil only when every relaxation was exhausted; the trace always
// explains what happened. The only errors returned are the fatal ones:
// ErrSourceUnavailable from the availability precondition and
// ErrInvalidObservation from a malformed upstream value.
func (e *Executor) Run(ctx context.Context, q model.TariffQuery) (model.TariffResult, error) {
	var result model.TariffResult
	trace := &result.Trace

	// Step 1: availability discovery. A failure here is a hard
	// precondition failure, not part of the fallback logic.
	available, err := e.primary.Availability(ctx, q.Reporter)
	if err != nil {
		return result, err
	}
	if len(available) == 0 {
		trace.Note("no availability data for reporter " + q.Reporter)
		return result, nil
	}

	// Step 2: year selection. Exact match preferred, never forward in
	// time; the world aggregate counts as always available.
	years := make([]int, 0, len(available))
	for y := range available {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	searchPartner := q.Partner
	usedYear := 0
	for _, y := range years {
		if y > q.TargetYear {
			continue
		}
		if q.WantsWorld() || contains(available[y], q.Partner) {
			usedYear = y
			break
		}
	}
	if usedYear == 0 {
		searchPartner = model.WorldPartner
		for _, y := range years {
			if y <= q.TargetYear {
				usedYear = y
				break
			}
		}
		// The substitution only happened if the rescan found a year to
		// search under.
		if usedYear != 0 {
			trace.Relax(model.DimPartner, q.Partner, model.WorldPartner)
		}
	}
	if usedYear == 0 {
		trace.Note(fmt.Sprintf("no available year at or before %d for reporter %s", q.TargetYear, q.Reporter))
		return result, nil
	}
	if usedYear != q.TargetYear {
		trace.Relax(model.DimYear, strconv.Itoa(q.TargetYear), strconv.Itoa(usedYear))
	}

	// Step 3: ordered (partner, granularity) scan. First non-zero rate
	// wins; the first zero seen is kept as a last-resort candidate while
	// scanning continues for something more specific.
	var (
		winner  *attempt
		rate    float64
		zeroTry *attempt
	)
	for i, a := range attempts(searchPartner, q.ProductCode) {
		a := a
		obs, url, err := e.primary.Observation(ctx, q.Reporter, a.partner, a.product, usedYear)
		trace.LastURL = url
		if err != nil {
			if errors.Is(err, model.ErrInvalidObservation) {
				return result, err
			}
			// Timeouts and transport failures count as this combination
			// failing; the scan continues.
			zap.S().Debugw("combination failed", "attempt", i, "partner", a.partner, "product", a.product, "error", err)
			continue
		}
		if obs == nil {
			continue
		}
		if *obs == 0 {
			trace.Note(fmt.Sprintf("zero rate observed for product %s, partner %s", a.product, a.partner))
			if zeroTry == nil {
				zeroTry = &a
			}
			continue
		}
		winner, rate = &a, *obs
		break
	}
	if winner == nil && zeroTry != nil {
		winner, rate = zeroTry, 0
	}
	if winner == nil {
		trace.Note("no tariff data found after all fallbacks at " + trace.LastURL)
		return result, nil
	}

	if winner.product != q.ProductCode {
		trace.Relax(model.DimGranularity, q.ProductCode, winner.product)
	}
	if winner.partner != q.Partner && !trace.Relaxed(model.DimPartner) {
		trace.Relax(model.DimPartner, q.Partner, winner.partner)
	}

	// Steps 4 and 5: cross-reference and final selection. The zero-rate
	// caveat keys on the primary rate: even when a non-zero secondary
	// figure wins, the zero observation still needs verifying.
	final := e.crossReference(ctx, q, rate, trace)
	if rate == 0 {
		trace.Note(zeroRateCaveat)
	}
	result.Rate = &final
	return result, nil
}

// crossReference runs the secondary source check when warranted and picks
// the final rate. Every failure inside it is soft: the primary rate
// stands and the trace records what went wrong.
func (e *Executor) crossReference(ctx context.Context, q model.TariffQuery, primaryRate float64, trace *model.FallbackTrace) float64 {
	if e.secondary == nil || !e.secondary.Configured() {
		return primaryRate
	}
	if primaryRate != 0 && q.WantsWorld() {
		return primaryRate
	}

	indicators, err := e.secondary.Indicators(ctx)
	if err != nil {
		trace.Note("cross-reference skipped: " + err.Error())
		return primaryRate
	}
	ind := SelectIndicator(indicators)
	if ind == nil {
		trace.Note("cross-reference skipped: no suitable tariff indicator")
		return primaryRate
	}

	secRate, url, err := e.secondary.Rate(ctx, *ind, q.Reporter, q.Partner, q.ProductCode)
	if err != nil {
		trace.Note("cross-reference failed: " + err.Error())
		return primaryRate
	}
	if secRate == nil {
		trace.Note(fmt.Sprintf("cross-reference returned no data for indicator %s at %s", ind.Code, url))
		return primaryRate
	}

	if *secRate != primaryRate {
		trace.Note(fmt.Sprintf("discrepancy: secondary rate %g vs primary %g for indicator %s at %s", *secRate, primaryRate, ind.Code, url))
	} else {
		trace.Note(fmt.Sprintf("secondary confirms rate %g for indicator %s", primaryRate, ind.Code))
	}

	// The secondary figure replaces the primary only when present,
	// non-zero, and different.
	if *secRate != 0 && *secRate != primaryRate {
		trace.Note(fmt.Sprintf("using secondary rate %g over primary %g", *secRate, primaryRate))
		return *secRate
	}
	return primaryRate
}
