package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityFor(t *testing.T) {
	cases := []struct {
		severity Severity
		priority Priority
		urgent   bool
	}{
		{SeverityUrgent, PriorityHigh, true},
		{SeverityModerate, PriorityMedium, false},
		{SeverityLow, PriorityLow, false},
		{Severity(""), PriorityLow, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.severity), func(t *testing.T) {
			assert.Equal(t, tc.priority, PriorityFor(tc.severity))
			assert.Equal(t, tc.urgent, IsUrgentSeverity(tc.severity))
		})
	}
}

func TestTruncatePhotoURLs(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e", "f", "g"}

	got := TruncatePhotoURLs(urls)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
	assert.Len(t, TruncatePhotoURLs([]string{"x"}), 1)
	assert.Empty(t, TruncatePhotoURLs(nil))

	got[0] = "changed"
	assert.Equal(t, "a", urls[0], "truncation must not alias the input")
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "in-progress", "resolved", "closed"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}

	_, err := ParseStatus("archived")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestClassifyTransition(t *testing.T) {
	assert.Equal(t, TransitionForward, ClassifyTransition(StatusPending, StatusInProgress))
	assert.Equal(t, TransitionForward, ClassifyTransition(StatusPending, StatusClosed))
	assert.Equal(t, TransitionSame, ClassifyTransition(StatusResolved, StatusResolved))
	assert.Equal(t, TransitionReopen, ClassifyTransition(StatusClosed, StatusPending))
	assert.Equal(t, TransitionReopen, ClassifyTransition(StatusResolved, StatusInProgress))
	assert.Equal(t, TransitionBackward, ClassifyTransition(StatusInProgress, StatusPending))
	assert.Equal(t, TransitionBackward, ClassifyTransition(StatusClosed, StatusResolved))
}

func TestReportPatch_Updates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	severity := SeverityUrgent
	desc := "bird with clipped wing"

	updates := ReportPatch{Severity: &severity, Description: &desc}.Updates(now)

	paths := map[string]any{}
	for _, u := range updates {
		paths[u.Path] = u.Value
	}
	assert.Equal(t, "urgent", paths["severity"])
	assert.Equal(t, "high", paths["priority"])
	assert.Equal(t, true, paths["isUrgent"])
	assert.Equal(t, desc, paths["description"])
	assert.Equal(t, now, paths["updatedAt"])
	assert.NotContains(t, paths, "status")
}

func TestReportPatch_IsEmpty(t *testing.T) {
	assert.True(t, ReportPatch{}.IsEmpty())
	name := "otter"
	assert.False(t, ReportPatch{SpeciesName: &name}.IsEmpty())
	assert.False(t, ReportPatch{PhotoURLs: []string{}}.IsEmpty())
}

func TestStatusUpdate_Updates(t *testing.T) {
	now := time.Now()
	volunteer := "Volunteer Mike"

	updates := StatusUpdate{Status: StatusResolved, AssignedTo: &volunteer}.Updates(now)

	paths := map[string]any{}
	for _, u := range updates {
		paths[u.Path] = u.Value
	}
	assert.Equal(t, "resolved", paths["status"])
	assert.Equal(t, volunteer, paths["assignedTo"])
	assert.Equal(t, now, paths["resolvedAt"])
	assert.Equal(t, now, paths["updatedAt"])

	updates = StatusUpdate{Status: StatusInProgress}.Updates(now)
	assert.Len(t, updates, 2)
}

func TestReportFilter_Matches(t *testing.T) {
	r := &Report{Status: StatusPending, Priority: PriorityHigh}

	assert.True(t, ReportFilter{}.Matches(r))
	assert.True(t, ReportFilter{Status: StatusPending}.Matches(r))
	assert.False(t, ReportFilter{Status: StatusClosed}.Matches(r))
	assert.False(t, ReportFilter{Priority: PriorityLow}.Matches(r))
}

func TestApply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	report := &Report{Severity: SeverityLow, Priority: PriorityLow, Status: StatusPending}

	severity := SeverityUrgent
	moving := "no"
	Apply(report, ReportPatch{Severity: &severity, IsMovingNormally: &moving}.Updates(now))
	Apply(report, StatusUpdate{Status: StatusResolved}.Updates(now))

	assert.Equal(t, SeverityUrgent, report.Severity)
	assert.Equal(t, PriorityHigh, report.Priority)
	assert.True(t, report.IsUrgent)
	assert.Equal(t, "no", report.Assessment.IsMovingNormally)
	assert.Equal(t, StatusResolved, report.Status)
	require.NotNil(t, report.ResolvedAt)
	assert.Equal(t, now, *report.ResolvedAt)
	assert.Equal(t, now, report.UpdatedAt)
}

func TestDistanceKm(t *testing.T) {
	// Orchard Road -> Raffles Place, около 3.2 км
	d := DistanceKm(1.3048, 103.8318, 1.2840, 103.8515)
	assert.InDelta(t, 3.18, d, 0.1)
	assert.Zero(t, DistanceKm(1.3, 103.8, 1.3, 103.8))
}

func TestReportFilter_Near(t *testing.T) {
	lat, lng := 1.3048, 103.8318
	farLat, farLng := 1.4491, 103.8185 // Вудлендс, около 16 км
	near := &Report{Status: StatusPending, Location: Location{Lat: &lat, Lng: &lng}}
	far := &Report{Status: StatusPending, Location: Location{Lat: &farLat, Lng: &farLng}}
	noCoords := &Report{Status: StatusPending}

	filter := ReportFilter{Near: &GeoRadius{Lat: 1.2840, Lng: 103.8515, RadiusKm: 5}}

	assert.True(t, filter.Matches(near))
	assert.False(t, filter.Matches(far))
	assert.False(t, filter.Matches(noCoords))
	assert.True(t, ReportFilter{}.Matches(noCoords))

	filter.Status = StatusResolved
	assert.False(t, filter.Matches(near))
}
