// Package pipeline is the resolution orchestrator: three concurrent
// semantic code resolutions feeding one tariff fallback cascade.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tariff-cli/internal/cascade"
	"github.com/sells-group/tariff-cli/internal/model"
	"github.com/sells-group/tariff-cli/internal/resolver"
)

// Fallback codes used when a resolver finds no match at all, mirroring
// the upstream conventions: an all-zero product code and the world
// aggregate for countries.
const (
	unknownProduct = "000000"
	unknownCountry = model.WorldPartner
)

// Orchestrator wires the resolvers and the cascade into the end-to-end
// resolve operation. Construct once per process and share; the resolvers
// hold open index connections.
type Orchestrator struct {
	products  *resolver.CodeResolver
	countries *resolver.CodeResolver
	executor  *cascade.Executor
}

func NewOrchestrator(products, countries *resolver.CodeResolver, executor *cascade.Executor) *Orchestrator {
	return &Orchestrator{products: products, countries: countries, executor: executor}
}

// Resolve answers one tariff question end to end. The three resolver
// calls have no data dependency on each other and run concurrently; the
// cascade waits for all three.
func (o *Orchestrator) Resolve(ctx context.Context, req model.ResolveRequest) (*model.Resolution, error) {
	res := &model.Resolution{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		code, match, err := o.resolveProduct(gctx, req.Product)
		if err != nil {
			return err
		}
		res.ProductCode, res.ProductMatch = code, match
		return nil
	})
	g.Go(func() error {
		code, match, err := o.resolveCountry(gctx, req.Reporter, true)
		if err != nil {
			return err
		}
		res.Countries.Reporter, res.ReporterMatch = code, match
		return nil
	})
	g.Go(func() error {
		code, match, err := o.resolveCountry(gctx, req.Partner, false)
		if err != nil {
			return err
		}
		res.Countries.Partner, res.PartnerMatch = code, match
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.S().Infow("codes resolved",
		"product", res.ProductCode,
		"reporter", res.Countries.Reporter,
		"partner", res.Countries.Partner)

	tariff, err := o.executor.Run(ctx, model.TariffQuery{
		Reporter:    res.Countries.Reporter,
		Partner:     res.Countries.Partner,
		ProductCode: res.ProductCode,
		TargetYear:  req.TargetYear,
	})
	if err != nil {
		return nil, err
	}
	res.Tariff = tariff
	return res, nil
}

func (o *Orchestrator) resolveProduct(ctx context.Context, product string) (string, *model.CodeMatch, error) {
	matches, err := o.products.Search(ctx, product, 1, nil)
	if err != nil {
		return "", nil, eris.Wrapf(err, "resolve product %q", product)
	}
	if len(matches) == 0 {
		return unknownProduct, nil, nil
	}
	return matches[0].Attributes["productcode"], &matches[0], nil
}

func (o *Orchestrator) resolveCountry(ctx context.Context, name string, isReporter bool) (string, *model.CodeMatch, error) {
	flag := "0"
	if isReporter {
		flag = "1"
	}
	matches, err := o.countries.Search(ctx, name, 1, map[string]string{"isreporter": flag})
	if err != nil {
		return "", nil, eris.Wrapf(err, "resolve country %q", name)
	}
	if len(matches) == 0 {
		return unknownCountry, nil, nil
	}
	return matches[0].Attributes["countrycode"], &matches[0], nil
}
