package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

func TestSuccess(t *testing.T) {
	dep := &models.WorkPackage{ID: 2}
	r := Success(&models.Project{ID: 1}, dep)

	assert.True(t, r.Success())
	assert.False(t, r.Failure())
	assert.NoError(t, r.Err())
	require.Len(t, r.AllResults(), 2)
	assert.Same(t, dep, r.AllResults()[1])
}

func TestFailure(t *testing.T) {
	errs := contracts.NewErrors()
	errs.Add("subject", contracts.CodeBlank)
	r := Failure[*models.WorkPackage](errs)

	assert.False(t, r.Success())
	assert.True(t, r.Failure())
	assert.Nil(t, r.Result)

	var got *contracts.Errors
	require.True(t, errors.As(r.Err(), &got))
	assert.True(t, got.Has("subject", contracts.CodeBlank))
}

func TestFailure_NilErrorsStillFails(t *testing.T) {
	r := Failure[int](nil)
	assert.True(t, r.Failure())
	assert.True(t, r.Errors.Has(contracts.AttrBase, contracts.CodeInvalid))
}

func TestNilResult(t *testing.T) {
	var r *ServiceResult[int]
	assert.False(t, r.Success())
	assert.Nil(t, r.AllResults())

	errs, ok := contracts.AsErrors(r.Err())
	require.True(t, ok, "a nil result reports a real contract error")
	assert.True(t, errs.Has(contracts.AttrBase, contracts.CodeInvalid))
}

func TestMerge_ReplacesDuplicateDependents(t *testing.T) {
	first := Success(1, &models.WorkPackage{ID: 5, Subject: "old"})
	second := Success(2, &models.WorkPackage{ID: 5, Subject: "new"}, &models.WorkPackage{ID: 6})

	Merge(first, second)

	require.Len(t, first.Dependents, 2)
	assert.Equal(t, "new", first.Dependents[0].Subject)
	assert.Equal(t, 6, first.Dependents[1].ID)
	assert.True(t, first.Success())
}
