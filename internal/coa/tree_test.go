package coa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTreeLevelsAndChildren(t *testing.T) {
	tree, err := BuildTree(DefaultChart())
	require.NoError(t, err)
	require.Equal(t, len(DefaultChart()), tree.Len())

	cash, err := tree.Resolve("1111")
	require.NoError(t, err)
	assert.Equal(t, 4, cash.Level)
	assert.Equal(t, NatureDebit, cash.Nature())

	children, err := tree.Children("11")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "111", children[0].Code)
	assert.Equal(t, "112", children[1].Code)

	ancestors, err := tree.Ancestors("1111")
	require.NoError(t, err)
	require.Len(t, ancestors, 3)
	assert.Equal(t, "111", ancestors[0].Code)
	assert.Equal(t, "1", ancestors[2].Code)
}

func TestTreeRejectsDuplicateCode(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Add(Account{Code: "1", Name: "Activo", Type: TypeAsset}))
	err := tree.Add(Account{Code: "1", Name: "Activo bis", Type: TypeAsset})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestTreeRejectsInvalidParent(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.Add(Account{Code: "1", Name: "Activo", Type: TypeAsset}))
	require.NoError(t, tree.Add(Account{Code: "2", Name: "Pasivo", Type: TypeLiability}))

	// missing parent
	err := tree.Add(Account{Code: "31", Name: "Capital", Type: TypeEquity, ParentCode: "3"})
	assert.ErrorIs(t, err, ErrInvalidParent)

	// parent type mismatch
	err = tree.Add(Account{Code: "11", Name: "Corriente", Type: TypeLiability, ParentCode: "1"})
	assert.ErrorIs(t, err, ErrInvalidParent)

	// parent code is not a prefix
	err = tree.Add(Account{Code: "11", Name: "Corriente", Type: TypeLiability, ParentCode: "2"})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestWalkBottomUpVisitsChildrenFirst(t *testing.T) {
	tree, err := BuildTree(DefaultChart())
	require.NoError(t, err)

	seen := make(map[string]bool)
	tree.WalkBottomUp(func(account Account, children []Account) {
		for _, child := range children {
			assert.True(t, seen[child.Code], "child %s must be visited before parent %s", child.Code, account.Code)
		}
		seen[account.Code] = true
	})
	assert.Len(t, seen, tree.Len())
}

func TestNatureFixedPerType(t *testing.T) {
	assert.Equal(t, NatureDebit, TypeAsset.Nature())
	assert.Equal(t, NatureDebit, TypeExpense.Nature())
	assert.Equal(t, NatureCredit, TypeLiability.Nature())
	assert.Equal(t, NatureCredit, TypeEquity.Nature())
	assert.Equal(t, NatureCredit, TypeIncome.Nature())
}
