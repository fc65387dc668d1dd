package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
	"github.com/rawcontext/engram-sub005/tests/fixtures"
	"github.com/rawcontext/engram-sub005/tests/mocks"
)

type scannerMocks struct {
	memories   *mocks.MockMemoryRepository
	search     *mocks.MockCandidateSearch
	classifier *mocks.MockClassifier
	reports    *mocks.MockConflictReportRepository
}

func newScanner(m scannerMocks) *ConflictScanner {
	return NewConflictScanner(m.memories, m.search, m.classifier, m.reports, mocks.NoopMetrics{}, ConflictScannerOptions{
		MinSimilarity: 0.7,
		MaxCandidates: 5,
	}, zap.NewNop())
}

func newScannerMocks() scannerMocks {
	return scannerMocks{
		memories:   new(mocks.MockMemoryRepository),
		search:     new(mocks.MockCandidateSearch),
		classifier: new(mocks.MockClassifier),
		reports:    new(mocks.MockConflictReportRepository),
	}
}

func contradiction() entities.Classification {
	return entities.Classification{
		Relation:        entities.RelationContradiction,
		Confidence:      0.9,
		Reasoning:       "directly opposing statements",
		SuggestedAction: "review and resolve",
	}
}

func independent() entities.Classification {
	return entities.Classification{Relation: entities.RelationIndependent, Confidence: 0.8}
}

func matchMemory(id string) interface{} {
	return mock.MatchedBy(func(m entities.Memory) bool { return m.ID == id })
}

func TestConflictScanner_Process_RequiresProject(t *testing.T) {
	// Arrange
	m := newScannerMocks()
	scanner := newScanner(m)

	// Act
	err := scanner.Process(context.Background(), Input{OrgID: "org1", TriggeredBy: "manual"})

	// Assert
	assert.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeValidation))
	m.memories.AssertNotCalled(t, "ForProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestConflictScanner_Process_PersistsConfirmedConflict(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newScannerMocks()

	source := fixtures.NewMemoryBuilder().WithID("mem-a").Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{source}, nil)
	m.search.On("Similar", ctx, matchMemory("mem-a")).
		Return(fixtures.Candidates([]string{"mem-b"}, []float64{0.85}), nil)
	m.classifier.On("Classify", ctx, matchMemory("mem-a"), matchMemory("mem-b")).
		Return(contradiction(), nil)
	m.reports.On("CreateMany", ctx, mock.MatchedBy(func(reports []entities.ConflictReport) bool {
		if len(reports) != 1 {
			return false
		}
		r := reports[0]
		return r.MemoryIDA == "mem-a" && r.MemoryIDB == "mem-b" &&
			r.Relation == entities.RelationContradiction &&
			r.ScanID != "" && r.ID != ""
	})).Return(nil, nil)

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.NoError(t, err)
	m.reports.AssertExpectations(t)
}

func TestConflictScanner_Process_ClassifiesEachPairOnce(t *testing.T) {
	// Arrange: a and b each surface the other as a candidate; the pair must
	// be classified once regardless of discovery direction.
	ctx := context.Background()
	m := newScannerMocks()

	memA := fixtures.NewMemoryBuilder().WithID("mem-a").Build()
	memB := fixtures.NewMemoryBuilder().WithID("mem-b").Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{memA, memB}, nil)
	m.search.On("Similar", ctx, matchMemory("mem-a")).
		Return(fixtures.Candidates([]string{"mem-b"}, []float64{0.9}), nil)
	m.search.On("Similar", ctx, matchMemory("mem-b")).
		Return(fixtures.Candidates([]string{"mem-a"}, []float64{0.9}), nil)
	m.classifier.On("Classify", ctx, mock.Anything, mock.Anything).
		Return(independent(), nil).Once()

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.NoError(t, err)
	m.classifier.AssertNumberOfCalls(t, "Classify", 1)
	m.reports.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}

func TestConflictScanner_Process_SkipsPinnedMemories(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newScannerMocks()

	pinned := fixtures.NewMemoryBuilder().WithID("pinned").WithPinned(true).Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{pinned}, nil)

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.NoError(t, err)
	m.search.AssertNotCalled(t, "Similar", mock.Anything, mock.Anything)
}

func TestConflictScanner_Process_CandidateLookupFailureIsIsolated(t *testing.T) {
	// Arrange: the lookup for the first memory fails, the second one still
	// gets classified.
	ctx := context.Background()
	m := newScannerMocks()

	memA := fixtures.NewMemoryBuilder().WithID("mem-a").Build()
	memB := fixtures.NewMemoryBuilder().WithID("mem-b").Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{memA, memB}, nil)
	m.search.On("Similar", ctx, matchMemory("mem-a")).
		Return(nil, errors.New("search unavailable"))
	m.search.On("Similar", ctx, matchMemory("mem-b")).
		Return(fixtures.Candidates([]string{"mem-c"}, []float64{0.8}), nil)
	m.classifier.On("Classify", ctx, matchMemory("mem-b"), matchMemory("mem-c")).
		Return(independent(), nil)

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.NoError(t, err)
	m.classifier.AssertNumberOfCalls(t, "Classify", 1)
}

func TestConflictScanner_Process_ClassificationFailureIsIsolated(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newScannerMocks()

	source := fixtures.NewMemoryBuilder().WithID("mem-a").Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{source}, nil)
	m.search.On("Similar", ctx, matchMemory("mem-a")).
		Return(fixtures.Candidates([]string{"mem-b", "mem-c"}, []float64{0.9, 0.8}), nil)
	m.classifier.On("Classify", ctx, matchMemory("mem-a"), matchMemory("mem-b")).
		Return(entities.Classification{}, errors.New("provider timeout"))
	m.classifier.On("Classify", ctx, matchMemory("mem-a"), matchMemory("mem-c")).
		Return(contradiction(), nil)
	m.reports.On("CreateMany", ctx, mock.MatchedBy(func(reports []entities.ConflictReport) bool {
		return len(reports) == 1 && reports[0].MemoryIDB == "mem-c"
	})).Return(nil, nil)

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.NoError(t, err)
	m.reports.AssertExpectations(t)
}

func TestConflictScanner_Process_PersistFailureFailsRun(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newScannerMocks()

	source := fixtures.NewMemoryBuilder().WithID("mem-a").Build()

	m.memories.On("ForProject", ctx, "org1", "proj1").Return([]entities.Memory{source}, nil)
	m.search.On("Similar", ctx, matchMemory("mem-a")).
		Return(fixtures.Candidates([]string{"mem-b"}, []float64{0.9}), nil)
	m.classifier.On("Classify", ctx, mock.Anything, mock.Anything).
		Return(contradiction(), nil)
	m.reports.On("CreateMany", ctx, mock.Anything).
		Return(nil, errors.New("write failed"))

	scanner := newScanner(m)

	// Act
	err := scanner.Process(ctx, Input{OrgID: "org1", Project: "proj1", TriggeredBy: "cron"})

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "persist conflict reports")
}

func TestConflictScanner_FilterCandidates_FloorSelfAndCap(t *testing.T) {
	// Arrange: 7 candidates including a self-match and two below the floor
	scanner := newScanner(newScannerMocks())
	candidates := fixtures.Candidates(
		[]string{"self", "c1", "c2", "c3", "c4", "c5", "weak1", "weak2"},
		[]float64{0.99, 0.71, 0.95, 0.80, 0.75, 0.90, 0.69, 0.10},
	)

	// Act
	kept := scanner.filterCandidates("self", candidates)

	// Assert: self and sub-floor dropped, remainder sorted by similarity,
	// capped at MaxCandidates
	assert.Len(t, kept, 5)
	assert.Equal(t, "c2", kept[0].MemoryID)
	for i := 1; i < len(kept); i++ {
		assert.GreaterOrEqual(t, kept[i-1].Similarity, kept[i].Similarity)
	}
	for _, c := range kept {
		assert.NotEqual(t, "self", c.MemoryID)
		assert.GreaterOrEqual(t, c.Similarity, 0.7)
	}
}

func TestPairKey_CanonicalAcrossDirections(t *testing.T) {
	assert.Equal(t, pairKey("a", "b"), pairKey("b", "a"))

	first, second := orderPair("zeta", "alpha")
	assert.Equal(t, "alpha", first)
	assert.Equal(t, "zeta", second)
}
