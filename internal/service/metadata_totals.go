package service

import (
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/pkg/formula"
)

// MetadataTotalsConverter annotates numeric metadata totals with their
// configured conversion, e.g. a minutes counter with formula "/60" and label
// "hour(s)" displays as "120 (2 hour(s))".
type MetadataTotalsConverter struct {
	evaluator formula.Evaluator
	logger    *zap.Logger
}

// NewMetadataTotalsConverter constructs the converter.
func NewMetadataTotalsConverter(evaluator formula.Evaluator, logger *zap.Logger) *MetadataTotalsConverter {
	if evaluator == nil {
		evaluator = formula.NewEvaluator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataTotalsConverter{evaluator: evaluator, logger: logger}
}

// Convert fills the Display field of every total in place. Totals without a
// valid conversion keep the raw counter; evaluation failures are logged and
// skipped, never surfaced.
func (c *MetadataTotalsConverter) Convert(totals []*models.MetaTotal, conversions map[int64]models.MetadataConversion) {
	for _, total := range totals {
		total.Display = formatCounter(total.Counter)

		conversion, ok := conversions[total.FieldID]
		if !ok || conversion.Label == "" || !formula.Validate(conversion.Formula) {
			continue
		}
		value, err := c.evaluator.Evaluate(total.Display + conversion.Formula)
		if err != nil {
			c.logger.Warn("metadata conversion skipped",
				zap.String("field", total.Name),
				zap.String("formula", conversion.Formula),
				zap.Error(err))
			continue
		}
		total.Display = fmt.Sprintf("%s (%s %s)", total.Display, formatCounter(round2(value)), conversion.Label)
	}
}

// ConvertReports runs Convert over every student and course in the report.
func (c *MetadataTotalsConverter) ConvertReports(students []*models.StudentReport, conversions map[int64]models.MetadataConversion) {
	for _, student := range students {
		c.Convert(student.MetaTotals, conversions)
		for _, course := range student.Courses {
			c.Convert(course.MetaTotals, conversions)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatCounter renders a counter without a trailing ".0" for whole values.
func formatCounter(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
