package main

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridcalc/gridcalc"
)

func TestLoadDocument(t *testing.T) {
	doc, err := loadDocument("testdata/budget.yaml")
	require.NoError(t, err)
	require.Len(t, doc.Sheets, 2)
	assert.Equal(t, "Sheet1", doc.Sheets[0].Name)
	assert.Equal(t, "2", doc.Names["Factor"])
}

func TestLoadDocument_MissingFile(t *testing.T) {
	_, err := loadDocument("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestBuildWorkbook(t *testing.T) {
	doc, err := loadDocument("testdata/budget.yaml")
	require.NoError(t, err)

	wb, err := buildWorkbook(doc)
	require.NoError(t, err)

	v, err := wb.GetCell(gridcalc.CellAddress{Sheet: 0, Row: 0, Col: 1})
	require.NoError(t, err)
	assert.Equal(t, gridcalc.KindFormula, v.Kind)
	assert.Equal(t, "=A1*3", v.Formula)

	def, ok := wb.NamedRange("Factor")
	assert.True(t, ok)
	assert.Equal(t, "2", def)
}

func TestBuildWorkbook_BadCellRef(t *testing.T) {
	doc := &document{
		Sheets: []documentSheet{{
			Name:  "Sheet1",
			Cells: map[string]any{"1A": 5},
		}},
	}
	_, err := buildWorkbook(doc)
	assert.Error(t, err)
}

func TestBuildWorkbook_BadFormulaSurfacesAtLoad(t *testing.T) {
	doc := &document{
		Sheets: []documentSheet{{
			Name:  "Sheet1",
			Cells: map[string]any{"A1": "=1+"},
		}},
	}
	_, err := buildWorkbook(doc)
	assert.ErrorIs(t, err, gridcalc.ErrInvalidFormula)
}

func TestRenderResults_Golden(t *testing.T) {
	doc, err := loadDocument("testdata/budget.yaml")
	require.NoError(t, err)
	wb, err := buildWorkbook(doc)
	require.NoError(t, err)

	stats := wb.Calculate()

	g := goldie.New(t)
	g.Assert(t, "budget_calc", []byte(renderResults(wb, stats)))
}
