package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEvaluateAndsAllTerms(t *testing.T) {
	f := &Filter{Terms: []PropertyFilter{
		{Property: "a", Predicate: func(v interface{}) (bool, error) { return v.(int64) > 0, nil }},
		{Property: "b", Predicate: func(v interface{}) (bool, error) { return v.(int64) > 0, nil }},
	}}

	pass := NewProperties().Set("a", int64(1)).Set("b", int64(1))
	ok, err := f.Evaluate(pass)
	require.NoError(t, err)
	assert.True(t, ok)

	fail := NewProperties().Set("a", int64(1)).Set("b", int64(-1))
	ok, err = f.Evaluate(fail)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterEvaluateRejectsMissingProperty(t *testing.T) {
	f := &Filter{Terms: []PropertyFilter{
		{Property: "missing", Predicate: func(v interface{}) (bool, error) { return true, nil }},
	}}
	ok, err := f.Evaluate(NewProperties())
	require.NoError(t, err)
	assert.False(t, ok, "a missing property must fail the filter, never be treated as a pass")
}

func TestFilterEvaluateNilFilterPassesEverything(t *testing.T) {
	var f *Filter
	ok, err := f.Evaluate(NewProperties())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilterEvaluatePropagatesPredicateError(t *testing.T) {
	f := &Filter{Terms: []PropertyFilter{
		{Property: "a", Predicate: func(v interface{}) (bool, error) { return false, errors.New("boom") }},
	}}
	_, err := f.Evaluate(NewProperties().Set("a", int64(1)))
	assert.Error(t, err)
}

func TestNewViewIsUnrestricted(t *testing.T) {
	v := NewView()
	assert.True(t, v.IsUnrestricted())
	assert.False(t, v.HasAnyFilters())
	assert.False(t, v.HasAnyTransformers())
}

func TestViewWithAnyGroupIsNotUnrestricted(t *testing.T) {
	v := NewView().WithEntityGroup("person", &GroupView{})
	assert.False(t, v.IsUnrestricted())

	v2 := NewView().WithEdgeGroup("knows", &GroupView{})
	assert.False(t, v2.IsUnrestricted())
}

func TestViewGroupViewReportsSelection(t *testing.T) {
	v := NewView().WithEntityGroup("person", &GroupView{})

	gv, ok := v.GroupView(EntityKind, "person")
	require.True(t, ok)
	require.NotNil(t, gv)

	_, ok = v.GroupView(EntityKind, "other")
	assert.False(t, ok)

	_, ok = v.GroupView(EdgeKind, "person")
	assert.False(t, ok, "entity groups must not leak into edge lookups")
}

func TestViewWithEntityGroupDefaultsNilGroupView(t *testing.T) {
	v := NewView().WithEntityGroup("person", nil)
	gv, ok := v.GroupView(EntityKind, "person")
	require.True(t, ok)
	assert.NotNil(t, gv)
}

func TestHasAnyFiltersDetectsEachFilterStage(t *testing.T) {
	assert.True(t, NewView().WithEntityGroup("p", &GroupView{PreAggregationFilter: &Filter{}}).HasAnyFilters())
	assert.True(t, NewView().WithEntityGroup("p", &GroupView{PostAggregationFilter: &Filter{}}).HasAnyFilters())
	assert.True(t, NewView().WithEntityGroup("p", &GroupView{PostTransformationFilter: &Filter{}}).HasAnyFilters())
	assert.False(t, NewView().WithEntityGroup("p", &GroupView{}).HasAnyFilters())
}

func TestHasAnyTransformersDetectsTransformer(t *testing.T) {
	v := NewView().WithEdgeGroup("e", &GroupView{
		Transformer: func(p *Properties) (*Properties, error) { return p, nil },
	})
	assert.True(t, v.HasAnyTransformers())
	assert.False(t, NewView().WithEdgeGroup("e", &GroupView{}).HasAnyTransformers())
}
