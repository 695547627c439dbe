package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/farm"
	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/metrics"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/store"
	"github.com/sells-group/terra/pkg/soilgrids"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func initSoilClient() soilgrids.Client {
	return soilgrids.FromConfig(cfg.SoilGrids, soilgrids.WithObserver(metrics.ObserveSoilGrids))
}

func initCrops() (*field.Catalogue, error) {
	if cfg.Crops.Path == "" {
		return nil, nil
	}
	crops, err := field.LoadCrops(cfg.Crops.Path)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("loaded crop catalogue", zap.Int("crops", len(crops.Names())))
	return crops, nil
}

// farmEnv bundles what the field and farm commands need.
type farmEnv struct {
	Store   store.Store
	Service *farm.Service
	Lookup  soilgrids.Client
}

func (e *farmEnv) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

// initFarm validates config for mode and builds the farm service. The
// soil client is only created for "lookup" and "serve".
func initFarm(ctx context.Context, mode string) (*farmEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	crops, err := initCrops()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &farmEnv{Store: st}

	if mode != "cli" {
		env.Lookup = initSoilClient()
	}

	env.Service, err = farm.New(cfg, st, env.Lookup, crops, farm.WithHooks(farm.Hooks{
		Assessed:  func(a soil.Assessment) { metrics.ObserveAssessment(a.QualityLabel) },
		Clustered: func(r cluster.Result) { metrics.ObserveClusterIterations(r.Iterations) },
		Listed:    func(n int) { metrics.FieldsTotal.Set(float64(n)) },
	}))
	if err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}
