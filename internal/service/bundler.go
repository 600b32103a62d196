package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/certquest/arena-backend/internal/category"
	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrBundleRunning = errors.New("auto bundler is already running")

// BundleStore is what one bundler run reads and writes. Every call made
// during a run belongs to the same transaction.
type BundleStore interface {
	ListPaidTitleGroups(ctx context.Context, byCategory bool) ([]model.TitleGroup, error)
	FindPackage(ctx context.Context, title, category string, byCategory bool) (uuid.UUID, bool, error)
	TouchPackage(ctx context.Context, id uuid.UUID) error
	ClearPackageExams(ctx context.Context, id uuid.UUID) error
	CreatePackage(ctx context.Context, p *model.Package) error
	LinkExam(ctx context.Context, packageID, examID uuid.UUID) (bool, error)
}

// BundleRunner runs fn in a transaction: commit on nil, rollback otherwise.
type BundleRunner interface {
	RunBundle(ctx context.Context, fn func(BundleStore) error) error
}

// Locker guards a run against a concurrent one. Release must be called once
// the lock was acquired.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// pgBundleRunner adapts PackageRepository transactions to BundleRunner.
type pgBundleRunner struct {
	repo *repository.PackageRepository
}

func (r pgBundleRunner) RunBundle(ctx context.Context, fn func(BundleStore) error) error {
	return r.repo.WithinTx(ctx, func(tx *repository.PackageTx) error { return fn(tx) })
}

// NewPostgresBundleRunner runs bundles inside PostgreSQL transactions.
func NewPostgresBundleRunner(repo *repository.PackageRepository) BundleRunner {
	return pgBundleRunner{repo: repo}
}

// RedisLock is a SET NX lock with an expiry, so a crashed run cannot hold it
// forever.
type RedisLock struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisLock creates the lock used by the auto-bundler.
func NewRedisLock(rdb *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{rdb: rdb, key: config.CacheKey.BundlerLockKey(), ttl: ttl}
}

func (l *RedisLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		// Only delete the key if it still carries our token.
		_ = releaseScript.Run(context.Background(), l.rdb, []string{l.key}, token).Err()
	}
	return release, true, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BundlerOptions tunes generated packages.
type BundlerOptions struct {
	GroupByCategory bool
	Discount        float64
}

// Bundler turns groups of paid exams sharing a title into packages.
type Bundler struct {
	runner BundleRunner
	locker Locker
	opts   BundlerOptions
	log    zerolog.Logger
}

// NewBundler creates a Bundler. A nil locker disables run locking.
func NewBundler(runner BundleRunner, locker Locker, opts BundlerOptions, log zerolog.Logger) *Bundler {
	if opts.Discount <= 0 || opts.Discount > 100 {
		opts.Discount = model.DefaultPackageDiscount
	}
	return &Bundler{
		runner: runner,
		locker: locker,
		opts:   opts,
		log:    log.With().Str("component", "package_bundler").Logger(),
	}
}

// Run groups paid exams and creates or refreshes one package per group of
// two or more. The whole run is one transaction; on error nothing is kept.
func (b *Bundler) Run(ctx context.Context) (*model.BundleReport, error) {
	if b.locker != nil {
		release, ok, err := b.locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire bundler lock: %w", err)
		}
		if !ok {
			return nil, ErrBundleRunning
		}
		defer release()
	}

	start := time.Now()
	var report *model.BundleReport
	err := b.runner.RunBundle(ctx, func(st BundleStore) error {
		r, err := b.bundle(ctx, st)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Auto bundle failed, changes rolled back")
		return nil, fmt.Errorf("auto bundle: %w", err)
	}

	b.log.Info().
		Int("created", len(report.Created)).
		Int("refreshed", len(report.Refreshed)).
		Int("links", report.Links).
		Dur("took", time.Since(start)).
		Msg("Auto bundle complete")
	return report, nil
}

func (b *Bundler) bundle(ctx context.Context, st BundleStore) (*model.BundleReport, error) {
	groups, err := st.ListPaidTitleGroups(ctx, b.opts.GroupByCategory)
	if err != nil {
		return nil, fmt.Errorf("list paid exams: %w", err)
	}

	report := &model.BundleReport{Created: []string{}, Refreshed: []string{}}
	for _, g := range groups {
		if len(g.ExamIDs) < 2 {
			continue
		}

		id, found, err := st.FindPackage(ctx, g.Title, g.Category, b.opts.GroupByCategory)
		if err != nil {
			return nil, fmt.Errorf("find package %q: %w", g.Title, err)
		}

		if found {
			if err := st.TouchPackage(ctx, id); err != nil {
				return nil, fmt.Errorf("touch package %q: %w", g.Title, err)
			}
			if err := st.ClearPackageExams(ctx, id); err != nil {
				return nil, fmt.Errorf("clear package %q: %w", g.Title, err)
			}
			report.Refreshed = append(report.Refreshed, g.Title)
		} else {
			p := b.newPackage(g)
			if err := st.CreatePackage(ctx, p); err != nil {
				return nil, fmt.Errorf("create package %q: %w", g.Title, err)
			}
			id = p.ID
			report.Created = append(report.Created, g.Title)
		}

		for _, examID := range g.ExamIDs {
			linked, err := st.LinkExam(ctx, id, examID)
			if err != nil {
				return nil, fmt.Errorf("link exam %s to %q: %w", examID, g.Title, err)
			}
			if linked {
				report.Links++
			}
		}
	}
	return report, nil
}

func (b *Bundler) newPackage(g model.TitleGroup) *model.Package {
	// Grouped by category, the package keeps the group's category as is so
	// the next run finds it again.
	cat := g.Category
	if !b.opts.GroupByCategory {
		cat = category.Detect(g.Title)
	}
	return &model.Package{
		Title:              g.Title,
		Description:        bundleDescription(g.Title, len(g.ExamIDs), b.opts.Discount),
		Price:              0,
		DiscountedPrice:    0,
		DiscountPercentage: b.opts.Discount,
		IsSubscription:     false,
		DurationDays:       model.DefaultPackageDurationDays,
		Category:           cat,
		Active:             true,
	}
}

func bundleDescription(title string, members int, discount float64) string {
	return fmt.Sprintf("Pacote completo %s com %d simulados. Economize %s%% comprando o pacote!",
		title, members, strconv.FormatFloat(discount, 'f', -1, 64))
}
