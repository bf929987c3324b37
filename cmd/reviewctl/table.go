package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/theflex/reviews/pkg/common/models"
)

var summaryHeader = []string{"LISTING", "SLUG", "REVIEWS", "APPROVED", "PENDING", "AVG", "LATEST"}

// writeSummaryTable prints rows aligned by display width so listing names with wide
// characters keep the columns straight.
func writeSummaryTable(w io.Writer, rows []models.SummaryRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no reviews stored")
		return err
	}

	table := [][]string{summaryHeader}
	for _, r := range rows {
		avg := "-"
		if r.AverageRating != nil {
			avg = strconv.FormatFloat(*r.AverageRating, 'f', 2, 64)
		}
		latest := "-"
		if r.LatestReviewAt != nil {
			latest = *r.LatestReviewAt
		}
		table = append(table, []string{
			r.ListingName,
			r.ListingSlug,
			strconv.Itoa(r.ReviewCount),
			strconv.Itoa(r.ApprovedCount),
			strconv.Itoa(r.PendingCount),
			avg,
			latest,
		})
	}

	widths := make([]int, len(summaryHeader))
	for _, row := range table {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for _, row := range table {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}
