package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeExam struct {
	id       uuid.UUID
	title    string
	category string
	free     bool
}

type fakeState struct {
	packages map[uuid.UUID]model.Package
	links    map[uuid.UUID]map[uuid.UUID]bool
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		packages: make(map[uuid.UUID]model.Package, len(s.packages)),
		links:    make(map[uuid.UUID]map[uuid.UUID]bool, len(s.links)),
	}
	for k, v := range s.packages {
		c.packages[k] = v
	}
	for k, v := range s.links {
		m := make(map[uuid.UUID]bool, len(v))
		for e := range v {
			m[e] = true
		}
		c.links[k] = m
	}
	return c
}

// fakeDB commits a run's changes only when the run returns nil.
type fakeDB struct {
	exams         []fakeExam
	state         fakeState
	failLinkAfter int // 0 disables the failure
	now           time.Time
}

func newFakeDB(exams ...fakeExam) *fakeDB {
	return &fakeDB{
		exams: exams,
		state: fakeState{packages: map[uuid.UUID]model.Package{}, links: map[uuid.UUID]map[uuid.UUID]bool{}},
		now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (db *fakeDB) RunBundle(ctx context.Context, fn func(BundleStore) error) error {
	tx := &fakeTx{db: db, state: db.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	db.state = tx.state
	return nil
}

type fakeTx struct {
	db    *fakeDB
	state fakeState
	links int
}

func (t *fakeTx) ListPaidTitleGroups(_ context.Context, byCategory bool) ([]model.TitleGroup, error) {
	type key struct{ title, category string }
	grouped := map[key][]uuid.UUID{}
	for _, e := range t.db.exams {
		if e.free {
			continue
		}
		k := key{title: e.title}
		if byCategory {
			k.category = e.category
		}
		grouped[k] = append(grouped[k], e.id)
	}
	groups := make([]model.TitleGroup, 0, len(grouped))
	for k, ids := range grouped {
		groups = append(groups, model.TitleGroup{Title: k.title, Category: k.category, ExamIDs: ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Title != groups[j].Title {
			return groups[i].Title < groups[j].Title
		}
		return groups[i].Category < groups[j].Category
	})
	return groups, nil
}

func (t *fakeTx) FindPackage(_ context.Context, title, category string, byCategory bool) (uuid.UUID, bool, error) {
	for id, p := range t.state.packages {
		if p.Title == title && (!byCategory || p.Category == category) {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (t *fakeTx) TouchPackage(_ context.Context, id uuid.UUID) error {
	p := t.state.packages[id]
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	t.state.packages[id] = p
	return nil
}

func (t *fakeTx) ClearPackageExams(_ context.Context, id uuid.UUID) error {
	delete(t.state.links, id)
	return nil
}

func (t *fakeTx) CreatePackage(_ context.Context, p *model.Package) error {
	p.ID = uuid.New()
	p.CreatedAt = t.db.now
	p.UpdatedAt = t.db.now
	t.state.packages[p.ID] = *p
	return nil
}

func (t *fakeTx) LinkExam(_ context.Context, packageID, examID uuid.UUID) (bool, error) {
	t.links++
	if t.db.failLinkAfter > 0 && t.links > t.db.failLinkAfter {
		return false, errors.New("connection reset")
	}
	if t.state.links[packageID] == nil {
		t.state.links[packageID] = map[uuid.UUID]bool{}
	}
	if t.state.links[packageID][examID] {
		return false, nil
	}
	t.state.links[packageID][examID] = true
	return true, nil
}

type stubLocker struct{ held bool }

func (l *stubLocker) TryLock(context.Context) (func(), bool, error) {
	if l.held {
		return func() {}, false, nil
	}
	l.held = true
	return func() { l.held = false }, true, nil
}

func paid(title, category string) fakeExam {
	return fakeExam{id: uuid.New(), title: title, category: category}
}

func newTestBundler(db *fakeDB, byCategory bool) *Bundler {
	return NewBundler(db, nil, BundlerOptions{GroupByCategory: byCategory}, zerolog.New(io.Discard))
}

func TestBundlerCreatesPackagePerGroup(t *testing.T) {
	db := newFakeDB(
		paid("AWS Solutions Architect", ""),
		paid("AWS Solutions Architect", ""),
		paid("AWS Solutions Architect", ""),
		paid("Azure Fundamentals", ""),
		fakeExam{id: uuid.New(), title: "CCNA", free: true},
		fakeExam{id: uuid.New(), title: "CCNA", free: true},
	)

	report, err := newTestBundler(db, false).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Created) != 1 || report.Created[0] != "AWS Solutions Architect" || report.Links != 3 {
		t.Fatalf("report = %+v", report)
	}
	if len(db.state.packages) != 1 {
		t.Fatalf("packages = %d, want 1", len(db.state.packages))
	}

	for id, p := range db.state.packages {
		if len(db.state.links[id]) != 3 {
			t.Errorf("links = %d, want 3", len(db.state.links[id]))
		}
		if p.Price != 0 || p.DiscountedPrice != 0 || p.IsSubscription || p.DurationDays != 365 {
			t.Errorf("package defaults = %+v", p)
		}
		if p.DiscountPercentage != 25 || p.Category != "AWS" {
			t.Errorf("discount/category = %v/%q", p.DiscountPercentage, p.Category)
		}
		if !strings.Contains(p.Description, "3 simulados") || !strings.Contains(p.Description, "25%") {
			t.Errorf("description = %q", p.Description)
		}
	}
}

func TestBundlerIsIdempotent(t *testing.T) {
	db := newFakeDB(paid("CKA", ""), paid("CKA", ""))
	b := newTestBundler(db, false)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var firstID uuid.UUID
	var firstUpdated time.Time
	for id, p := range db.state.packages {
		firstID, firstUpdated = id, p.UpdatedAt
	}

	report, err := b.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Created) != 0 || len(report.Refreshed) != 1 || report.Links != 2 {
		t.Errorf("second report = %+v", report)
	}
	if len(db.state.packages) != 1 {
		t.Fatalf("packages = %d after second run, want 1", len(db.state.packages))
	}
	if len(db.state.links[firstID]) != 2 {
		t.Errorf("links = %d, want 2", len(db.state.links[firstID]))
	}
	if !db.state.packages[firstID].UpdatedAt.After(firstUpdated) {
		t.Error("refresh should touch updated_at")
	}
}

func TestBundlerDropsRemovedExamsOnRefresh(t *testing.T) {
	a, b2, c := paid("PMP", ""), paid("PMP", ""), paid("PMP", "")
	db := newFakeDB(a, b2, c)
	b := newTestBundler(db, false)
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	db.exams = db.exams[:2]
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for id := range db.state.packages {
		if got := len(db.state.links[id]); got != 2 || db.state.links[id][c.id] {
			t.Errorf("links after refresh = %d (stale member kept: %v)", got, db.state.links[id][c.id])
		}
	}
}

func TestBundlerRollsBackOnFailure(t *testing.T) {
	db := newFakeDB(paid("A exam", ""), paid("A exam", ""), paid("B exam", ""), paid("B exam", ""))
	db.failLinkAfter = 3

	_, err := newTestBundler(db, false).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(db.state.packages) != 0 || len(db.state.links) != 0 {
		t.Errorf("partial run was kept: %d packages, %d link sets", len(db.state.packages), len(db.state.links))
	}
}

func TestBundlerGroupByCategory(t *testing.T) {
	exams := []fakeExam{
		paid("Fundamentals", "AWS"), paid("Fundamentals", "AWS"),
		paid("Fundamentals", "Azure"), paid("Fundamentals", "Azure"),
	}

	titleOnly := newFakeDB(exams...)
	if _, err := newTestBundler(titleOnly, false).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(titleOnly.state.packages) != 1 {
		t.Errorf("title-only packages = %d, want 1", len(titleOnly.state.packages))
	}

	byCategory := newFakeDB(exams...)
	if _, err := newTestBundler(byCategory, true).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(byCategory.state.packages) != 2 {
		t.Errorf("category packages = %d, want 2", len(byCategory.state.packages))
	}
}

func TestBundlerCategoryModeMatchesEmptyCategoryExactly(t *testing.T) {
	blank1, blank2 := paid("Fundamentals", ""), paid("Fundamentals", "")
	db := newFakeDB(paid("Fundamentals", "AWS"), paid("Fundamentals", "AWS"), blank1, blank2)
	b := newTestBundler(db, true)

	first, err := b.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Created) != 2 || len(first.Refreshed) != 0 {
		t.Fatalf("first run created %v refreshed %v", first.Created, first.Refreshed)
	}

	second, err := b.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Created) != 0 || len(second.Refreshed) != 2 {
		t.Errorf("second run created %v refreshed %v", second.Created, second.Refreshed)
	}
	if len(db.state.packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(db.state.packages))
	}

	for id, p := range db.state.packages {
		if p.Category != "" {
			continue
		}
		links := db.state.links[id]
		if len(links) != 2 || !links[blank1.id] || !links[blank2.id] {
			t.Errorf("uncategorised package links = %v", links)
		}
		return
	}
	t.Error("no package kept the empty category")
}

func TestBundlerLock(t *testing.T) {
	db := newFakeDB(paid("CISSP", ""), paid("CISSP", ""))
	lock := &stubLocker{held: true}
	b := NewBundler(db, lock, BundlerOptions{}, zerolog.New(io.Discard))

	if _, err := b.Run(context.Background()); !errors.Is(err, ErrBundleRunning) {
		t.Fatalf("err = %v, want ErrBundleRunning", err)
	}
	if len(db.state.packages) != 0 {
		t.Error("locked run must not write")
	}

	lock.held = false
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if lock.held {
		t.Error("lock should be released after the run")
	}
}
