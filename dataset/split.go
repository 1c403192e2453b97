package dataset

import (
	"math/rand"
	"sort"

	"github.com/tabprep/tabprep/core/table"
	"github.com/tabprep/tabprep/pkg/errors"
)

// Split holds the three row subsets of a stratified split.
type Split struct {
	Train *table.Table
	Val   *table.Table
	Test  *table.Table
}

// TrainValTestSplit splits a table into train, validation and test subsets
// stratified by the target column, so each subset preserves the class
// balance. testSize and valSize are fractions of the whole table; the
// validation rows are carved out of what remains after the test rows, the
// rest is training data. The split is deterministic for a given seed.
func TrainValTestSplit(t *table.Table, targetColumn string, testSize, valSize float64, seed int64) (*Split, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, errors.NewModelError("dataset.TrainValTestSplit", "empty table", errors.ErrEmptyData)
	}
	if testSize <= 0 || valSize < 0 || testSize+valSize >= 1 {
		return nil, errors.NewValueError("dataset.TrainValTestSplit", "sizes must satisfy 0 < test, 0 <= val, test+val < 1")
	}
	target, ok := t.Column(targetColumn)
	if !ok {
		return nil, errors.NewModelError("dataset.TrainValTestSplit", targetColumn, errors.ErrMissingColumn)
	}

	// Group row indices by class, in a deterministic class order.
	groups := make(map[string][]int)
	for i := 0; i < t.NumRows(); i++ {
		groups[target.StringValue(i, "")] = append(groups[target.StringValue(i, "")], i)
	}
	classes := make([]string, 0, len(groups))
	for class := range groups {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(seed))
	var trainRows, valRows, testRows []int
	for _, class := range classes {
		rows := groups[class]
		rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})

		nTest := int(float64(len(rows))*testSize + 0.5)
		remainder := len(rows) - nTest
		nVal := int(float64(remainder)*valSize/(1-testSize) + 0.5)

		testRows = append(testRows, rows[:nTest]...)
		valRows = append(valRows, rows[nTest:nTest+nVal]...)
		trainRows = append(trainRows, rows[nTest+nVal:]...)
	}

	sort.Ints(trainRows)
	sort.Ints(valRows)
	sort.Ints(testRows)

	return &Split{
		Train: t.Take(trainRows),
		Val:   t.Take(valRows),
		Test:  t.Take(testRows),
	}, nil
}
