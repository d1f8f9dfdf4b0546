package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/higucxi/JobSearchApp/internal/models"
)

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *score)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatStatus(s *models.Status) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func joinSources(sources []models.JobSource) string {
	if len(sources) == 0 {
		return "-"
	}
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Source)
	}
	return strings.Join(names, ",")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
