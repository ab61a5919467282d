package datalog

import (
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/laserlog/internal/category"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCategory struct {
	id       category.ID
	labels   []string
	values   []string
	included atomic.Bool
}

func (c *fixedCategory) ID() category.ID           { return c.id }
func (c *fixedCategory) Name() string              { return string(c.id) }
func (c *fixedCategory) ColumnLabels() []string    { return c.labels }
func (c *fixedCategory) Values() ([]string, error) { return c.values, nil }
func (c *fixedCategory) Include()                  { c.included.Store(true) }
func (c *fixedCategory) Exclude()                  { c.included.Store(false) }
func (c *fixedCategory) IsIncluded() bool          { return c.included.Load() }

func TestAssembleConcatenatesInOrder(t *testing.T) {
	cats := []category.Category{
		&fixedCategory{id: "a", labels: []string{"X-1", "X-2"}, values: []string{"1", "2"}},
		&fixedCategory{id: "b", labels: []string{"Y"}, values: []string{""}},
	}
	at := time.Date(2025, 6, 1, 7, 5, 3, 0, time.UTC)

	columns, header := freeze(cats)
	assert.Equal(t, []string{"Date", "Time", "X-1", "X-2", "Y"}, header)

	row, err := assemble(columns, at)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-01", "07:05:03", "1", "2", ""}, row)
}

func TestAssembleRejectsMismatch(t *testing.T) {
	cats := []category.Category{
		&fixedCategory{id: "ok", labels: []string{"A"}, values: []string{"1"}},
		&fixedCategory{id: "bad", labels: []string{"B"}, values: []string{"1", "2"}},
	}

	columns, _ := freeze(cats)
	row, err := assemble(columns, time.Now())
	assert.Nil(t, row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category bad produced 2 values for 1 columns")
}

func TestAssembleUsesFrozenWidth(t *testing.T) {
	grown := &fixedCategory{id: "motors", labels: []string{"MotorIndex-X"}, values: []string{"3"}}
	columns, header := freeze([]category.Category{grown})
	assert.Equal(t, []string{"Date", "Time", "MotorIndex-X"}, header)

	// A second motor shows up after the header was written.
	grown.labels = []string{"MotorIndex-X", "MotorIndex-Y"}
	grown.values = []string{"3", "4"}

	row, err := assemble(columns, time.Now())
	assert.Nil(t, row)
	require.Error(t, err)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Labels)
	assert.Equal(t, 2, mismatch.Values)
}

func TestValuesByColumnSkipsTimestamp(t *testing.T) {
	got := valuesByColumn(
		[]string{"Date", "Time", "PRF", "PEC"},
		[]string{"2025-06-01", "07:05:03", "100", "1.00"},
	)
	assert.Equal(t, map[string]string{"PRF": "100", "PEC": "1.00"}, got)
}
