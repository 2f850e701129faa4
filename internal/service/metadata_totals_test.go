package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edudata/completion-report-api/internal/models"
)

type stubEvaluator struct {
	result float64
	err    error
}

func (s stubEvaluator) Evaluate(string) (float64, error) {
	return s.result, s.err
}

func TestConvertAnnotatesWithFormula(t *testing.T) {
	converter := NewMetadataTotalsConverter(nil, nil)
	totals := []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 120}}
	conversions := map[int64]models.MetadataConversion{
		7: {Formula: "/60", Label: "hour(s)"},
	}

	converter.Convert(totals, conversions)
	require.Equal(t, "120 (2 hour(s))", totals[0].Display)
}

func TestConvertRoundsToTwoDecimals(t *testing.T) {
	converter := NewMetadataTotalsConverter(nil, nil)
	totals := []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 100}}
	conversions := map[int64]models.MetadataConversion{
		7: {Formula: "/60", Label: "hour(s)"},
	}

	converter.Convert(totals, conversions)
	require.Equal(t, "100 (1.67 hour(s))", totals[0].Display)
}

func TestConvertSkipsInvalidFormula(t *testing.T) {
	converter := NewMetadataTotalsConverter(nil, nil)
	totals := []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 120}}

	for _, conversion := range []models.MetadataConversion{
		{Formula: "abc", Label: "hour(s)"},
		{Formula: "", Label: "hour(s)"},
		{Formula: "/60", Label: ""},
	} {
		totals[0].Display = ""
		converter.Convert(totals, map[int64]models.MetadataConversion{7: conversion})
		require.Equal(t, "120", totals[0].Display)
	}
}

func TestConvertSwallowsEvaluationErrors(t *testing.T) {
	converter := NewMetadataTotalsConverter(stubEvaluator{err: errors.New("boom")}, nil)
	totals := []*models.MetaTotal{{FieldID: 7, Name: "Temps estimé", Counter: 120}}
	conversions := map[int64]models.MetadataConversion{
		7: {Formula: "/0", Label: "hour(s)"},
	}

	converter.Convert(totals, conversions)
	require.Equal(t, "120", totals[0].Display)
}

func TestConvertReportsWalksHierarchy(t *testing.T) {
	converter := NewMetadataTotalsConverter(nil, nil)
	course := &models.CourseReport{MetaTotals: []*models.MetaTotal{{FieldID: 7, Counter: 60}}}
	students := []*models.StudentReport{{
		MetaTotals: []*models.MetaTotal{{FieldID: 7, Counter: 60}},
		Courses:    []*models.CourseReport{course},
	}}
	conversions := map[int64]models.MetadataConversion{
		7: {Formula: "/60", Label: "hour(s)"},
	}

	converter.ConvertReports(students, conversions)
	require.Equal(t, "60 (1 hour(s))", students[0].MetaTotals[0].Display)
	require.Equal(t, "60 (1 hour(s))", course.MetaTotals[0].Display)
}
