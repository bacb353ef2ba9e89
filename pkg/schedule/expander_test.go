package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func testItem(id uuid.UUID) models.PlanItem {
	return models.PlanItem{
		ID:     id,
		PlanID: uuid.New(),
		DrugID: uuid.New(),
	}
}

func testRule(itemID uuid.UUID, repeat models.RepeatType, start time.Time, end *time.Time, times ...string) models.RecurrenceRule {
	return models.RecurrenceRule{
		ID:         uuid.New(),
		PlanItemID: itemID,
		StartDate:  start,
		EndDate:    end,
		RepeatType: repeat,
		Times:      pq.StringArray(times),
	}
}

func TestExpand_DailyInterval(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatDaily, date(2025, 1, 1), datePtr(2025, 1, 5), "09:00")
	interval := 2
	rule.IntervalValue = &interval

	window := NewWindow(datePtr(2025, 1, 1), datePtr(2025, 1, 31))
	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		window,
	)

	require.Len(t, got, 3)
	assert.Equal(t, date(2025, 1, 1), *got[0].Date)
	assert.Equal(t, date(2025, 1, 3), *got[1].Date)
	assert.Equal(t, date(2025, 1, 5), *got[2].Date)
	for _, occ := range got {
		assert.Equal(t, "09:00", occ.Time)
		assert.Equal(t, itemID, occ.PlanItemID)
	}
}

func TestExpand_WeeklyFlags(t *testing.T) {
	// Jan 1 2025 is a Wednesday.
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatWeekly, date(2025, 1, 1), datePtr(2025, 1, 14), "07:00")
	rule.Mon = true
	rule.Wed = true
	rule.Fri = true

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 1, 1), datePtr(2025, 1, 31)),
	)

	want := []time.Time{
		date(2025, 1, 1), date(2025, 1, 3), date(2025, 1, 6),
		date(2025, 1, 8), date(2025, 1, 10), date(2025, 1, 13),
	}
	require.Len(t, got, len(want))
	for i, occ := range got {
		assert.Equal(t, want[i], *occ.Date)
		assert.Equal(t, "07:00", occ.Time)
	}
}

func TestExpand_OnceWithinWindow(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatOnce, date(2025, 3, 10), nil, "08:00", "20:00")

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 3, 1), datePtr(2025, 3, 31)),
	)

	require.Len(t, got, 2)
	assert.Equal(t, date(2025, 3, 10), *got[0].Date)
	assert.Equal(t, "08:00", got[0].Time)
	assert.Equal(t, "20:00", got[1].Time)
}

func TestExpand_OnceOutsideWindowYieldsNothing(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatOnce, date(2025, 6, 1), nil, "08:00")

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 3, 1), datePtr(2025, 3, 31)),
	)

	assert.Empty(t, got)
}

func TestExpand_OnceWithoutTimesIsDateOnly(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatOnce, date(2025, 3, 10), nil)

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 3, 1), datePtr(2025, 3, 31)),
	)

	require.Len(t, got, 1)
	assert.Equal(t, date(2025, 3, 10), *got[0].Date)
	assert.Empty(t, got[0].Time)
}

func TestExpand_PRNAlwaysSingleUndated(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatPRN, date(2025, 1, 1), nil, "09:00")

	// Window far away from the rule's start date.
	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2030, 1, 1), datePtr(2030, 1, 2)),
	)

	require.Len(t, got, 1)
	assert.Nil(t, got[0].Date)
	assert.Empty(t, got[0].Time)
}

func TestExpand_UnknownRepeatTypeSkipped(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatType("MONTHLY"), date(2025, 1, 1), nil, "09:00")

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 1, 1), datePtr(2025, 12, 31)),
	)

	assert.Empty(t, got)
}

func TestExpand_ItemWithoutRulesSkipped(t *testing.T) {
	got := Expand(
		[]models.PlanItem{testItem(uuid.New())},
		map[uuid.UUID][]models.RecurrenceRule{},
		NewWindow(datePtr(2025, 1, 1), datePtr(2025, 12, 31)),
	)

	assert.Empty(t, got)
}

func TestExpand_DailyWithoutEndDateClipsToWindow(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatDaily, date(2025, 1, 1), nil, "09:00")

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 1, 4), datePtr(2025, 1, 6)),
	)

	require.Len(t, got, 3)
	assert.Equal(t, date(2025, 1, 4), *got[0].Date)
	assert.Equal(t, date(2025, 1, 6), *got[2].Date)
}

func TestExpand_WindowContainment(t *testing.T) {
	itemID := uuid.New()
	window := NewWindow(datePtr(2025, 2, 1), datePtr(2025, 2, 28))
	rules := []models.RecurrenceRule{
		testRule(itemID, models.RepeatDaily, date(2025, 1, 15), datePtr(2025, 3, 15), "09:00"),
		testRule(itemID, models.RepeatOnce, date(2025, 2, 14), nil, "12:00"),
	}

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: rules},
		window,
	)

	require.NotEmpty(t, got)
	for _, occ := range got {
		require.NotNil(t, occ.Date)
		assert.True(t, window.Contains(*occ.Date), "occurrence on %s escaped the window", occ.Date)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	itemID := uuid.New()
	items := []models.PlanItem{testItem(itemID)}
	rules := map[uuid.UUID][]models.RecurrenceRule{
		itemID: {testRule(itemID, models.RepeatDaily, date(2025, 1, 1), datePtr(2025, 1, 10), "09:00", "21:00")},
	}
	window := NewWindow(datePtr(2025, 1, 1), datePtr(2025, 1, 31))

	first := Expand(items, rules, window)
	second := Expand(items, rules, window)

	assert.Equal(t, first, second)
}

func TestExpand_SortOrder(t *testing.T) {
	// Two items sharing a date: the date-only occurrence sorts before the
	// timed ones, malformed times sort as midnight, and item id breaks ties.
	lowID := uuid.UUID{0x01}
	highID := uuid.UUID{0x02}

	items := []models.PlanItem{testItem(highID), testItem(lowID)}
	rules := map[uuid.UUID][]models.RecurrenceRule{
		highID: {testRule(highID, models.RepeatOnce, date(2025, 1, 1), nil, "09:00")},
		lowID: {
			testRule(lowID, models.RepeatOnce, date(2025, 1, 1), nil),
			testRule(lowID, models.RepeatOnce, date(2025, 1, 1), nil, "garbage"),
			testRule(lowID, models.RepeatOnce, date(2025, 1, 1), nil, "09:00"),
		},
	}

	got := Expand(items, rules, NewWindow(datePtr(2025, 1, 1), datePtr(2025, 1, 1)))
	require.Len(t, got, 4)

	// Midnight-sorting entries come first, ordered by item id, with the
	// malformed time preserved verbatim.
	assert.Equal(t, lowID, got[0].PlanItemID)
	assert.Equal(t, lowID, got[1].PlanItemID)
	times := []string{got[0].Time, got[1].Time}
	assert.ElementsMatch(t, []string{"", "garbage"}, times)

	// Timed entries follow, tie broken by item id ascending.
	assert.Equal(t, "09:00", got[2].Time)
	assert.Equal(t, lowID, got[2].PlanItemID)
	assert.Equal(t, "09:00", got[3].Time)
	assert.Equal(t, highID, got[3].PlanItemID)
}

func TestExpand_MalformedTimePreserved(t *testing.T) {
	itemID := uuid.New()
	rule := testRule(itemID, models.RepeatOnce, date(2025, 1, 1), nil, "25:99")

	got := Expand(
		[]models.PlanItem{testItem(itemID)},
		map[uuid.UUID][]models.RecurrenceRule{itemID: {rule}},
		NewWindow(datePtr(2025, 1, 1), datePtr(2025, 1, 2)),
	)

	require.Len(t, got, 1)
	assert.Equal(t, "25:99", got[0].Time)
}
