// Package report exports a learner's progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
)

// Sheet names in workbook order.
const (
	SheetSummary  = "Summary"
	SheetTopics   = "Topics"
	SheetAttempts = "Attempts"
)

// WriteProgress writes a workbook with a summary, the per-topic status
// overview and the quiz attempt log.
func WriteProgress(w io.Writer, state *progress.LearnerState, store content.Store) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetAttempts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	concepts := store.Concepts("")
	sum := state.Summary(len(concepts))
	summary := [][]any{
		{"Metric", "Value"},
		{"Session", state.ID},
		{"Started", state.StartedAt.UTC().Format(time.RFC3339)},
		{"Concepts learned", fmt.Sprintf("%d / %d", sum.LearnedCount, sum.TotalConcepts)},
		{"Topics visited", len(state.Visited)},
		{"Quiz attempts", sum.Attempts},
		{"Average score", fmt.Sprintf("%.1f%%", sum.AverageScore*100)},
		{"Overall progress", fmt.Sprintf("%.1f%%", progress.Completion(state, store, concepts))},
	}
	if err := writeRows(f, SheetSummary, summary, header); err != nil {
		return err
	}

	topics := [][]any{{"Module", "Topic", "Level", "Status"}}
	for _, row := range progress.Topics(state, store) {
		topics = append(topics, []any{row.Module, row.Topic, string(row.Level), row.Status})
	}
	if err := writeRows(f, SheetTopics, topics, header); err != nil {
		return err
	}

	attempts := [][]any{{"Concept", "Correct", "Total", "Score", "At"}}
	for _, a := range state.Attempts {
		score := progress.Score{Correct: a.Correct, Total: a.Total}
		attempts = append(attempts, []any{
			a.ConceptID,
			a.Correct,
			a.Total,
			fmt.Sprintf("%.0f%%", score.Ratio()*100),
			a.At.UTC().Format(time.RFC3339),
		})
	}
	if err := writeRows(f, SheetAttempts, attempts, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	return nil
}
