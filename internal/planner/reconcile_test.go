package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/planner"
)

func at(hh, mm int) *time.Time {
	t := time.Date(2026, 1, 1, hh, mm, 0, 0, time.UTC)
	return &t
}

func TestCleanupPlan_OverlapWithLowerPriorityTruncates(t *testing.T) {
	input := []domain.ChargePlanSegment{
		{ChargeStart: at(8, 0), ChargeStop: at(10, 0), Level: 70, ChargeType: domain.ChargeTypeFill},
		{ChargeStart: at(9, 0), ChargeStop: at(11, 0), Level: 80, ChargeType: domain.ChargeTypeRoutine},
	}

	got := planner.CleanupPlan(input)

	require.Len(t, got, 2)
	assert.Equal(t, *at(8, 0), *got[0].ChargeStart)
	assert.Equal(t, *at(9, 0), *got[0].ChargeStop)
	assert.Equal(t, domain.ChargeTypeFill, got[0].ChargeType)
	assert.Equal(t, *at(9, 0), *got[1].ChargeStart)
	assert.Equal(t, *at(11, 0), *got[1].ChargeStop)
	assert.Equal(t, domain.ChargeTypeRoutine, got[1].ChargeType)
}

func TestCleanupPlan_ShiftPassClosesGap(t *testing.T) {
	input := []domain.ChargePlanSegment{
		{ChargeStart: at(7, 0), ChargeStop: at(7, 30), Level: 60, ChargeType: domain.ChargeTypeFill},
		{ChargeStart: at(8, 0), ChargeStop: at(9, 0), Level: 70, ChargeType: domain.ChargeTypeRoutine},
	}

	got := planner.CleanupPlan(input)

	require.Len(t, got, 2)
	assert.Equal(t, *at(7, 30), *got[0].ChargeStart)
	assert.Equal(t, *at(8, 0), *got[0].ChargeStop)
	assert.Equal(t, *at(8, 0), *got[1].ChargeStart)
	assert.Equal(t, *at(9, 0), *got[1].ChargeStop)
}

func TestCleanupPlan_SameTypeOverlapMerges(t *testing.T) {
	input := []domain.ChargePlanSegment{
		{ChargeStart: at(8, 0), ChargeStop: at(10, 0), Level: 70, ChargeType: domain.ChargeTypeFill},
		{ChargeStart: at(9, 0), ChargeStop: at(11, 0), Level: 80, ChargeType: domain.ChargeTypeFill},
	}

	got := planner.CleanupPlan(input)

	require.Len(t, got, 1)
	assert.Equal(t, *at(8, 0), *got[0].ChargeStart)
	assert.Equal(t, *at(11, 0), *got[0].ChargeStop)
	assert.Equal(t, 80, got[0].Level)
}

func TestCleanupPlan_NullBoundsTreatedAsInfinities(t *testing.T) {
	input := []domain.ChargePlanSegment{
		{ChargeStart: nil, ChargeStop: at(9, 0), Level: 50, ChargeType: domain.ChargeTypeMinimum},
		{ChargeStart: at(8, 0), ChargeStop: nil, Level: 90, ChargeType: domain.ChargeTypeFill},
	}

	got := planner.CleanupPlan(input)

	require.Len(t, got, 2)
	assert.Nil(t, got[0].ChargeStart)
	assert.Equal(t, domain.ChargeTypeMinimum, got[0].ChargeType)
}

func TestCleanupPlan_Idempotent(t *testing.T) {
	input := []domain.ChargePlanSegment{
		{ChargeStart: at(8, 0), ChargeStop: at(10, 0), Level: 70, ChargeType: domain.ChargeTypeFill},
		{ChargeStart: at(9, 0), ChargeStop: at(11, 0), Level: 80, ChargeType: domain.ChargeTypeRoutine},
		{ChargeStart: at(7, 0), ChargeStop: at(7, 30), Level: 60, ChargeType: domain.ChargeTypeFill},
	}

	once := planner.CleanupPlan(input)
	twice := planner.CleanupPlan(once)

	assert.Equal(t, once, twice)
}

func TestCleanupPlan_EmptyInput(t *testing.T) {
	assert.Nil(t, planner.CleanupPlan(nil))
	assert.Nil(t, planner.CleanupPlan([]domain.ChargePlanSegment{}))
}
