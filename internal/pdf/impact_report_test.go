package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kalyana/internal/models"
)

func TestImpactReportRendersPDF(t *testing.T) {
	g := NewReportGenerator("")
	a := &models.Analytics{
		MonthLabels:                 []string{"Jan 2026", "Feb 2026"},
		MonthlySurplusKg:            []float64{12.5, 30},
		MonthlyCompletedAllocations: []int{1, 4},
		ComplaintStatus:             map[string]int{"under_review": 2, "resolved": 1},
		TopProviders:                []models.NamedAmount{{Name: "Grand Hall", Value: 42.5}},
		AvgTrustScore:               4.5,
		AllocationEfficiency:        80,
	}

	var buf bytes.Buffer
	require.NoError(t, g.ImpactReport(&buf, a, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Greater(t, buf.Len(), 500)
}

func TestImpactReportNeedsAnalytics(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, NewReportGenerator("").ImpactReport(&buf, nil, time.Now()))
	require.Zero(t, buf.Len())
}

func TestMissingFontFallsBack(t *testing.T) {
	g := NewReportGenerator("/nonexistent/DejaVuSans.ttf")
	require.Equal(t, "Helvetica", g.fontName)
}

func TestTitleCase(t *testing.T) {
	require.Equal(t, "Under Review", titleCase("under_review"))
	require.Equal(t, "Resolved", titleCase("resolved"))
	require.Equal(t, "", titleCase(""))
}
