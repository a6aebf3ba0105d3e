package app

import (
	"sync"
	"time"

	"meal-rotation/internal/clipper"
	"meal-rotation/internal/config"
	"meal-rotation/internal/database"
	"meal-rotation/internal/ghost"
	"meal-rotation/internal/metrics"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"
	"meal-rotation/internal/shopping"
	"meal-rotation/internal/storage"

	"go.uber.org/zap"
)

// App holds the application's dependencies and serializes every operation
// that reads and rewrites the plan or the shopping list.
type App struct {
	mu sync.Mutex

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
	ids    shared.IDSource

	recipeRepo   RecipeStore
	planRepo     PlanStore
	shoppingRepo ShoppingStore
	stapleRepo   StapleStore
	metricsStore *metrics.Store

	generator  *planner.Generator
	aggregator *shopping.Aggregator

	// Optional collaborators, nil when not configured.
	ghostClient   ghost.Client
	extractor     *recipe.Extractor
	recipeClipper *clipper.Clipper
	backups       *storage.RecipeStore

	syncDelay time.Duration
}

// Option customizes an App.
type Option func(*App)

// WithClock sets the clock that decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithIDs sets where identifiers for new recipes, meals and shopping lines come from.
func WithIDs(ids shared.IDSource) Option {
	return func(a *App) { a.ids = ids }
}

// WithGenerator replaces the plan generator built from the config.
func WithGenerator(g *planner.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithExtractor enables LLM backed imports.
func WithExtractor(e *recipe.Extractor) Option {
	return func(a *App) { a.extractor = e }
}

// WithGhost enables syncing from and publishing to a Ghost blog.
func WithGhost(c ghost.Client) Option {
	return func(a *App) { a.ghostClient = c }
}

// WithBackups enables file backups.
func WithBackups(s *storage.RecipeStore) Option {
	return func(a *App) { a.backups = s }
}

// WithRecipeStore replaces the SQLite recipe repository.
func WithRecipeStore(s RecipeStore) Option {
	return func(a *App) { a.recipeRepo = s }
}

// WithPlanStore replaces the SQLite plan repository.
func WithPlanStore(s PlanStore) Option {
	return func(a *App) { a.planRepo = s }
}

// WithShoppingStore replaces the SQLite shopping list repository.
func WithShoppingStore(s ShoppingStore) Option {
	return func(a *App) { a.shoppingRepo = s }
}

// WithStapleStore replaces the SQLite staple repository.
func WithStapleStore(s StapleStore) Option {
	return func(a *App) { a.stapleRepo = s }
}

// WithSyncDelay sets the pause between extractor calls during a Ghost sync.
func WithSyncDelay(d time.Duration) Option {
	return func(a *App) { a.syncDelay = d }
}

// NewApp creates and initializes a new App instance on top of db.
func NewApp(cfg *config.Config, logger *zap.Logger, db *database.DB, opts ...Option) *App {
	a := &App{
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		recipeRepo:   recipe.NewRepository(db.SQL, logger),
		planRepo:     planner.NewPlanRepository(db.SQL),
		shoppingRepo: shopping.NewRepository(db.SQL),
		stapleRepo:   shopping.NewStapleRepository(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),
		// Wait between posts to stay under Gemini Free Tier Rate Limits (15 RPM)
		syncDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ids == nil {
		a.ids = shared.NewClockIDs(a.now)
	}
	if a.generator == nil {
		a.generator = planner.NewGenerator(cfg.Planner, planner.WithClock(a.now), planner.WithIDs(a.ids))
	}
	a.aggregator = shopping.NewAggregator(a.ids)
	if a.extractor != nil {
		a.recipeClipper = clipper.NewClipper(a.extractor, a.ghostClient)
	}
	return a
}

// Today is the current calendar day by the app clock.
func (a *App) Today() time.Time {
	return planner.DateOf(a.now())
}
