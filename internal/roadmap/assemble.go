package roadmap

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// Assemble converts a draft into a new Roadmap owned by userID. Stage and
// module order is normalised to 1..n, ids are made unique, prerequisites that
// do not point to an earlier module are dropped, and initial statuses are set:
// modules of the first stage without prerequisites are available, everything
// else is locked.
func Assemble(d *Draft, userID uuid.UUID, req GenerationRequest, now time.Time) *types.Roadmap {
	now = now.UTC()
	profile := req.Profile.WithDefaults()

	stages := append([]DraftStage(nil), d.Stages...)
	sort.SliceStable(stages, func(i, j int) bool { return orderKey(int(stages[i].Order), i) < orderKey(int(stages[j].Order), j) })

	rm := &types.Roadmap{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Category:    req.Category,
		Source:      req.Source,
		SourceData:  sourceData(req),
		Stages:      make([]types.RoadmapStage, 0, len(stages)),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	usedIDs := map[string]bool{}
	renamed := map[string]string{} // draft module id -> roadmap module id
	seenModules := map[string]bool{}
	stageIDs := map[string]string{}
	totalHours := 0.0

	for si, ds := range stages {
		stageNum := si + 1
		stageID := uniqueID(ds.ID, fmt.Sprintf("stage-%d", stageNum), usedIDs)
		if ds.ID != "" {
			stageIDs[ds.ID] = stageID
		}

		stage := types.RoadmapStage{
			ID:          stageID,
			Name:        strings.TrimSpace(ds.Name),
			Description: strings.TrimSpace(ds.Description),
			Order:       stageNum,
			Modules:     make([]types.RoadmapModule, 0, len(ds.Modules)),
		}
		for _, p := range ds.Prerequisites {
			if id, ok := stageIDs[p]; ok && id != stageID {
				stage.Prerequisites = append(stage.Prerequisites, id)
			}
		}

		modules := append([]DraftModule(nil), ds.Modules...)
		sort.SliceStable(modules, func(i, j int) bool { return orderKey(int(modules[i].Order), i) < orderKey(int(modules[j].Order), j) })

		for mi, dm := range modules {
			moduleID := uniqueID(dm.ID, fmt.Sprintf("m-%d-%d", stageNum, mi+1), usedIDs)

			var prereqs []string
			for _, p := range dm.Prerequisites {
				if id, ok := renamed[p]; ok && seenModules[id] && !contains(prereqs, id) {
					prereqs = append(prereqs, id)
				}
			}
			if dm.ID != "" {
				if _, taken := renamed[dm.ID]; !taken {
					renamed[dm.ID] = moduleID
				}
			}
			seenModules[moduleID] = true

			hours := clampHours(dm.EstimatedHours)
			totalHours += hours

			status := types.ModuleLocked
			if stageNum == 1 && (mi == 0 || len(prereqs) == 0) {
				status = types.ModuleAvailable
			}

			stage.Modules = append(stage.Modules, types.RoadmapModule{
				ID:             moduleID,
				Title:          strings.TrimSpace(dm.Title),
				Description:    strings.TrimSpace(dm.Description),
				Status:         status,
				Order:          mi + 1,
				EstimatedTime:  formatHours(hours),
				EstimatedHours: hours,
				Resources:      []types.LearningResource{},
				Prerequisites:  prereqs,
			})
		}
		rm.Stages = append(rm.Stages, stage)
	}

	rm.EstimatedCompletionTime = formatWeeks(totalHours, profile.HoursPerWeek)
	return rm
}

// orderKey sorts by declared order, keeping input position for missing or equal orders.
func orderKey(order, pos int) int {
	if order <= 0 {
		return math.MaxInt32/2 + pos
	}
	return order*1000 + pos
}

func uniqueID(preferred, fallback string, used map[string]bool) string {
	id := strings.TrimSpace(preferred)
	if id == "" || used[id] {
		id = fallback
	}
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s-%d", fallback, n)
	}
	used[id] = true
	return id
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clampHours(h float64) float64 {
	switch {
	case h <= 0:
		return 1
	case h > MaxModuleHours:
		return MaxModuleHours
	default:
		return h
	}
}

func formatHours(h float64) string {
	if h <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%s hours", trimFloat(h))
}

func formatWeeks(totalHours float64, hoursPerWeek int) string {
	if hoursPerWeek <= 0 {
		hoursPerWeek = 10
	}
	weeks := int(math.Ceil(totalHours / float64(hoursPerWeek)))
	if weeks <= 1 {
		return "1 week"
	}
	return fmt.Sprintf("%d weeks", weeks)
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int(f))
	}
	return fmt.Sprintf("%.1f", f)
}

func sourceData(req GenerationRequest) map[string]any {
	data := map[string]any{}
	if len(req.Gaps) > 0 {
		gaps := make([]string, 0, len(req.Gaps))
		for _, g := range req.Gaps {
			gaps = append(gaps, g.Requirement)
		}
		data["skill_gaps"] = gaps
	}
	if c := strings.TrimSpace(req.Context); c != "" {
		data["context_excerpt"] = truncateRunes(c, 500)
	}
	if len(data) == 0 {
		return nil
	}
	return data
}
