// Package progress implements the roadmap progress state machine: module and
// resource transitions, prerequisite unlocking, and weighted overall progress.
package progress

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonathan/career-roadmap/internal/types"
)

var (
	// ErrInvalidTransition is returned for backwards or otherwise illegal status changes
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrModuleNotFound is returned when the module id does not exist in the roadmap
	ErrModuleNotFound = errors.New("module not found")
	// ErrResourceNotFound is returned when the resource id does not exist in the module
	ErrResourceNotFound = errors.New("resource not found")
)

// Change describes the effect of one applied action
type Change struct {
	ModuleID   string
	ResourceID string
	Status     types.ModuleStatus // module status after the action
	Unlocked   []string
	Records    []types.UserProgress
}

// ApplyModuleStatus moves a module to status. Statuses only advance; repeating
// the current status is allowed and updates progress for in-progress modules.
func ApplyModuleStatus(rm *types.Roadmap, moduleID string, status types.ModuleStatus, progress *float64, now time.Time) (*Change, error) {
	m := rm.FindModule(moduleID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}
	if status.Rank() < 0 || status == types.ModuleLocked {
		return nil, fmt.Errorf("%w: cannot set status %q", ErrInvalidTransition, status)
	}
	if m.Status == types.ModuleLocked {
		return nil, fmt.Errorf("%w: module %s is locked", ErrInvalidTransition, moduleID)
	}
	if status.Rank() < m.Status.Rank() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, status)
	}

	change := &Change{ModuleID: moduleID}
	switch status {
	case types.ModuleInProgress:
		m.Status = types.ModuleInProgress
		if m.StartedAt == nil {
			m.StartedAt = stamp(now)
		}
		if progress != nil {
			m.Progress = clampPercent(*progress)
		}
	case types.ModuleCompleted:
		if m.Status != types.ModuleCompleted {
			complete(m, now)
			change.Unlocked = Unlock(rm, moduleID)
		}
	case types.ModuleAvailable:
		if progress != nil {
			m.Progress = clampPercent(*progress)
		}
	}
	change.Status = m.Status
	change.Records = append(change.Records, moduleRecord(rm, m, now))
	return change, nil
}

// ApplyResourceStatus checks or unchecks a resource and recomputes the owning
// module's progress. Full completion completes the module and runs Unlock.
// Unchecking a resource never reopens a completed module.
func ApplyResourceStatus(rm *types.Roadmap, moduleID, resourceID string, completed bool, now time.Time) (*Change, error) {
	m := rm.FindModule(moduleID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}
	res := m.FindResource(resourceID)
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, resourceID)
	}
	if m.Status == types.ModuleLocked {
		return nil, fmt.Errorf("%w: module %s is locked", ErrInvalidTransition, moduleID)
	}

	res.Completed = completed
	if completed {
		if res.CompletedAt == nil {
			res.CompletedAt = stamp(now)
		}
	} else {
		res.CompletedAt = nil
	}

	change := &Change{ModuleID: moduleID, ResourceID: resourceID}
	before := m.Status
	if m.Status != types.ModuleCompleted {
		done := 0
		for _, r := range m.Resources {
			if r.Completed {
				done++
			}
		}
		m.Progress = round2(float64(done) / float64(len(m.Resources)) * 100)

		switch {
		case done == len(m.Resources):
			complete(m, now)
			change.Unlocked = Unlock(rm, moduleID)
		case done > 0 && m.Status == types.ModuleAvailable:
			m.Status = types.ModuleInProgress
			if m.StartedAt == nil {
				m.StartedAt = stamp(now)
			}
		}
	}
	change.Status = m.Status

	rec := types.UserProgress{
		UserID:     rm.UserID,
		RoadmapID:  rm.ID,
		ModuleID:   moduleID,
		ResourceID: resourceID,
		Status:     types.ProgressStarted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if completed {
		rec.Status = types.ProgressCompleted
		rec.Progress = 100
	}
	change.Records = append(change.Records, rec)
	if m.Status != before {
		change.Records = append(change.Records, moduleRecord(rm, m, now))
	}
	return change, nil
}

// Unlock applies the unlock rules after completedID reached completed and
// returns the ids of modules that moved from locked to available.
//
// Sequential rule: the module right after completedID in (stage.order,
// module.order) order becomes available. Prerequisite rule: any locked module
// with explicit prerequisites becomes available once all of them are completed.
func Unlock(rm *types.Roadmap, completedID string) []string {
	ordered := Ordered(rm)
	var unlocked []string
	open := func(m *types.RoadmapModule) {
		if m.Status == types.ModuleLocked {
			m.Status = types.ModuleAvailable
			unlocked = append(unlocked, m.ID)
		}
	}

	for i, m := range ordered {
		if m.ID == completedID && i+1 < len(ordered) {
			open(ordered[i+1])
			break
		}
	}

	status := make(map[string]types.ModuleStatus, len(ordered))
	for _, m := range ordered {
		status[m.ID] = m.Status
	}
	for _, m := range ordered {
		if m.Status != types.ModuleLocked || len(m.Prerequisites) == 0 {
			continue
		}
		ready := true
		for _, p := range m.Prerequisites {
			if status[p] != types.ModuleCompleted {
				ready = false
				break
			}
		}
		if ready {
			open(m)
		}
	}
	return unlocked
}

// Ordered returns pointers to every module sorted by (stage.order, module.order).
// Ties keep their position in the roadmap.
func Ordered(rm *types.Roadmap) []*types.RoadmapModule {
	stages := make([]int, len(rm.Stages))
	for i := range stages {
		stages[i] = i
	}
	sort.SliceStable(stages, func(a, b int) bool {
		return rm.Stages[stages[a]].Order < rm.Stages[stages[b]].Order
	})

	var out []*types.RoadmapModule
	for _, si := range stages {
		mods := make([]*types.RoadmapModule, len(rm.Stages[si].Modules))
		for j := range rm.Stages[si].Modules {
			mods[j] = &rm.Stages[si].Modules[j]
		}
		sort.SliceStable(mods, func(a, b int) bool { return mods[a].Order < mods[b].Order })
		out = append(out, mods...)
	}
	return out
}

// OverallProgress is 80% completed-module share plus 20% of the mean progress
// of in-progress modules, on a 0-100 scale rounded to two decimals.
// A roadmap whose modules are all completed is exactly 100.
func OverallProgress(rm *types.Roadmap) float64 {
	total, completed, active := 0, 0, 0
	var activeSum float64
	for _, stage := range rm.Stages {
		for _, m := range stage.Modules {
			total++
			switch m.Status {
			case types.ModuleCompleted:
				completed++
			case types.ModuleInProgress:
				active++
				activeSum += m.Progress
			}
		}
	}
	if total == 0 {
		return 0
	}
	if completed == total {
		return 100
	}
	overall := 0.8 * float64(completed) / float64(total) * 100
	if active > 0 {
		overall += 0.2 * activeSum / float64(active)
	}
	return round2(math.Min(overall, 100))
}

func complete(m *types.RoadmapModule, now time.Time) {
	m.Status = types.ModuleCompleted
	m.Progress = 100
	if m.StartedAt == nil {
		m.StartedAt = stamp(now)
	}
	m.CompletedAt = stamp(now)
}

func moduleRecord(rm *types.Roadmap, m *types.RoadmapModule, now time.Time) types.UserProgress {
	status := types.ProgressStarted
	if m.Status == types.ModuleCompleted {
		status = types.ProgressCompleted
	}
	return types.UserProgress{
		UserID:    rm.UserID,
		RoadmapID: rm.ID,
		ModuleID:  m.ID,
		Status:    status,
		Progress:  m.Progress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func stamp(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}

func clampPercent(v float64) float64 {
	return round2(math.Max(0, math.Min(100, v)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
