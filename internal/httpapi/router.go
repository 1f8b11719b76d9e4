package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"bedrock_usage/internal/archive"
	"bedrock_usage/internal/cache"
	"bedrock_usage/internal/config"
	"bedrock_usage/internal/insights"
	"bedrock_usage/internal/middleware"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/storage"
	"bedrock_usage/internal/usage"
	"bedrock_usage/internal/utils"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Usage      *usage.Service
	Aggregator *usage.Aggregator
	Cache      cache.ResultCache
	DB         *storage.DB     // nil when no database is configured
	Archive    *archive.S3Sink // nil when archiving is disabled
	Logger     *utils.Logger

	// basePricing and fileAliases are the non-database layers of the
	// pricing and alias tables, kept so database changes can be
	// reapplied on top of them.
	basePricing config.PricingConfig
	fileAliases map[string]string
}

// NewRouter creates an HTTP router with all dependencies wired up
func NewRouter(ctx context.Context, cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	logger := utils.NewLogger("httpapi")

	// Database is optional: without it pricing and aliases come from
	// the built-in table and files, and admin endpoints are disabled.
	var db *storage.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = storage.NewDB(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	deps := &Dependencies{
		DB:          db,
		Logger:      logger,
		basePricing: cfg.Pricing,
	}

	pricingEntries, err := deps.loadPricingEntries(ctx)
	if err != nil {
		return nil, nil, err
	}

	fileAliases := map[string]string{}
	if cfg.Aliases.FilePath != "" {
		fileAliases, err = config.LoadAliasFile(cfg.Aliases.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load aliases: %w", err)
		}
	}
	deps.fileAliases = fileAliases

	aliases, err := deps.loadAliases(ctx)
	if err != nil {
		return nil, nil, err
	}

	norm := usage.NewNormalizer(aliases, cfg.Aliases.StripPrefix, cfg.Pricing.RegionPrefixes)
	deps.Aggregator = usage.NewAggregator(norm, models.NewPricingTable(pricingEntries))

	client, err := insights.NewClient(ctx, cfg.Insights)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize query client: %w", err)
	}

	var resultCache cache.ResultCache
	switch cfg.Cache.Backend {
	case "redis":
		resultCache, err = cache.NewRedisCache(cfg.Redis, cfg.Cache.ResultTTL, cfg.Cache.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
	default:
		resultCache = cache.NewMemoryCache(cfg.Cache.ResultTTL)
	}
	deps.Cache = resultCache

	var sink archive.Sink = archive.NoopSink{}
	if cfg.Archive.Enabled {
		writer, err := archive.NewS3Writer(ctx, cfg.Archive)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize archive writer: %w", err)
		}
		s3Sink := archive.NewS3Sink(writer, cfg.Archive)
		deps.Archive = s3Sink
		sink = s3Sink
	}

	deps.Usage = usage.NewService(
		client, deps.Aggregator, resultCache, sink,
		cfg.Cache.KeyPrefix, cfg.Insights.DefaultDays, cfg.Insights.MaxDays,
	)

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	return mux, deps, nil
}

// loadPricingEntries layers the pricing sources: built-in table, then
// the pricing file, then active database rows.
func (d *Dependencies) loadPricingEntries(ctx context.Context) (map[string]models.PricingEntry, error) {
	entries := models.DefaultPricing()

	if d.basePricing.FilePath != "" {
		fileEntries, err := config.LoadPricingFile(d.basePricing.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pricing: %w", err)
		}
		for modelID, entry := range fileEntries {
			entries[modelID] = models.PricingEntry{
				InputPerMTok:  entry.InputPerMTok,
				OutputPerMTok: entry.OutputPerMTok,
			}
		}
	}

	if d.DB != nil {
		dbEntries, err := d.DB.NewModelPriceRepository().ActiveEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load pricing from database: %w", err)
		}
		for modelID, entry := range dbEntries {
			entries[modelID] = entry
		}
	}

	return entries, nil
}

// loadAliases layers the alias sources: alias file, then database rows.
func (d *Dependencies) loadAliases(ctx context.Context) (map[string]string, error) {
	aliases := make(map[string]string, len(d.fileAliases))
	for raw, canonical := range d.fileAliases {
		aliases[raw] = canonical
	}

	if d.DB != nil {
		dbAliases, err := d.DB.NewUserAliasRepository().AliasMap(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load aliases from database: %w", err)
		}
		for raw, canonical := range dbAliases {
			aliases[raw] = canonical
		}
	}

	return aliases, nil
}

// reloadPricing rebuilds the pricing table from all sources and drops
// cached results so the next request prices fresh.
func (d *Dependencies) reloadPricing(ctx context.Context) error {
	entries, err := d.loadPricingEntries(ctx)
	if err != nil {
		return err
	}
	d.Aggregator.SetPricing(models.NewPricingTable(entries))
	d.Cache.Clear()
	return nil
}

// reloadAliases rebuilds the alias table from all sources and drops
// cached results.
func (d *Dependencies) reloadAliases(ctx context.Context) error {
	aliases, err := d.loadAliases(ctx)
	if err != nil {
		return err
	}
	d.Aggregator.Normalizer().SetAliases(aliases)
	d.Cache.Clear()
	return nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, cfg *config.Config) {
	// Health check endpoint - public
	mux.HandleFunc("/health", deps.handleHealth)

	// Usage endpoints - restricted to internal subnets when configured
	subnet := middleware.SubnetAllowlist(cfg.Subnets)
	mux.Handle("/api/usage", subnet(http.HandlerFunc(deps.handleUsage)))
	mux.Handle("/api/cost-matrix", subnet(http.HandlerFunc(deps.handleCostMatrix)))
	mux.Handle("/api/pricing", subnet(http.HandlerFunc(deps.handlePricing)))

	// Admin authentication endpoint - public (no middleware)
	authHandler := NewAdminAuthHandler(deps.DB, cfg)
	mux.HandleFunc("/admin/auth/login", authHandler.Login)

	// Admin management endpoints - protected, require the admin role
	adminJWT := middleware.AdminJWTMiddleware(cfg, "admin")
	pricingHandler := NewAdminPricingHandler(deps)
	aliasesHandler := NewAdminAliasesHandler(deps)
	mux.Handle("/admin/pricing", adminJWT(http.HandlerFunc(pricingHandler.Collection)))
	mux.Handle("/admin/pricing/", adminJWT(http.HandlerFunc(pricingHandler.Item)))
	mux.Handle("/admin/aliases", adminJWT(http.HandlerFunc(aliasesHandler.Collection)))
	mux.Handle("/admin/aliases/", adminJWT(http.HandlerFunc(aliasesHandler.Item)))
}

// handleHealth reports process and database health.
func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if d.DB != nil {
		if err := d.DB.Health(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			utils.RespondWithJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}
