// Package splits partitions the clip index into stratified, reproducible
// train, val and test sets.
package splits

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/domain/model"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Default split configuration constants.
const (
	DefaultSeed     = 42
	DefaultValFrac  = 0.15
	DefaultTestFrac = 0.15
)

// Assignment maps every split to its records in output order.
type Assignment map[model.Split][]model.ClipRecord

// Builder assigns clips to splits within each action class.
type Builder struct {
	seed         int64
	valFrac      float64
	testFrac     float64
	perActionCap int
	logger       logger.Logger
}

// New creates a Builder with seed 42 and 15% val and test fractions.
func New(opts ...Option) *Builder {
	b := &Builder{
		seed:     DefaultSeed,
		valFrac:  DefaultValFrac,
		testFrac: DefaultTestFrac,
		logger:   logger.Named("splits"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Validate checks the configured fractions.
func (b *Builder) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"val", b.valFrac}, {"test", b.testFrac}} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s fraction %v outside [0,1]", ErrInvalidFractions, f.name, f.v)
		}
	}
	if b.valFrac+b.testFrac > 1 {
		return fmt.Errorf("%w: val %v + test %v exceeds 1", ErrInvalidFractions, b.valFrac, b.testFrac)
	}
	return nil
}

// Run reads the clip index at indexPath and writes train.csv, val.csv and
// test.csv into outDir. All three files are written even when empty.
func (b *Builder) Run(ctx context.Context, indexPath, outDir string) (*Summary, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	recs, err := csvio.ReadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asg, sum, err := b.Assign(recs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil { //nolint:gosec // splits are shared with the training job
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	for _, split := range model.Splits {
		path := filepath.Join(outDir, string(split)+".csv")
		if err := csvio.WriteSplit(path, asg[split]); err != nil {
			return nil, err
		}
		sum.Paths[split] = path
		metrics.RecordSplitRows(string(split), len(asg[split]))
	}

	b.logger.Info(ctx, "splits written",
		logger.String("out_dir", outDir),
		logger.Int("train", len(asg[model.SplitTrain])),
		logger.Int("val", len(asg[model.SplitVal])),
		logger.Int("test", len(asg[model.SplitTest])),
	)
	return sum, nil
}

// Assign partitions recs. The result depends only on the seed and the set of
// records, never on their order: classes are visited in sorted order and
// each class is sorted before its seeded shuffle.
func (b *Builder) Assign(recs []model.ClipRecord) (Assignment, *Summary, error) {
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	byAction := make(map[string][]model.ClipRecord)
	for _, rec := range recs {
		rec.Action = strings.ToLower(strings.TrimSpace(rec.Action))
		rec.Outcome = strings.TrimSpace(rec.Outcome)
		byAction[rec.Action] = append(byAction[rec.Action], rec)
	}
	actions := make([]string, 0, len(byAction))
	for a := range byAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	rng := rand.New(rand.NewSource(b.seed)) //nolint:gosec // reproducible shuffles, not security
	asg := Assignment{}
	sum := newSummary()
	for _, action := range actions {
		items := byAction[action]
		sort.Slice(items, func(i, j int) bool { return lessRecord(items[i], items[j]) })
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		cc := ClassCount{Action: action, Total: len(items)}
		if b.perActionCap > 0 && len(items) > b.perActionCap {
			items = items[:b.perActionCap]
		}
		cc.Dropped = cc.Total - len(items)

		nTest, nVal := Sizes(len(items), b.valFrac, b.testFrac)
		asg[model.SplitTest] = append(asg[model.SplitTest], items[:nTest]...)
		asg[model.SplitVal] = append(asg[model.SplitVal], items[nTest:nTest+nVal]...)
		asg[model.SplitTrain] = append(asg[model.SplitTrain], items[nTest+nVal:]...)

		cc.Test, cc.Val, cc.Train = nTest, nVal, len(items)-nTest-nVal
		sum.Classes = append(sum.Classes, cc)
	}
	return asg, sum, nil
}

// Sizes returns the test and val counts for a class of n items. Halves round
// to even. Counts are clamped so test never exceeds n and val never exceeds
// what test leaves.
func Sizes(n int, valFrac, testFrac float64) (nTest, nVal int) {
	nTest = int(math.RoundToEven(float64(n) * testFrac))
	nTest = min(max(nTest, 0), n)
	nVal = int(math.RoundToEven(float64(n) * valFrac))
	nVal = min(max(nVal, 0), n-nTest)
	return nTest, nVal
}

func lessRecord(a, b model.ClipRecord) bool { //nolint:gocritic // hugeParam: records are passed by value
	if a.ClipPath != b.ClipPath {
		return a.ClipPath < b.ClipPath
	}
	if a.EventID != b.EventID {
		return a.EventID < b.EventID
	}
	return a.TEventSec < b.TEventSec
}
