package scoring

import (
	"math"

	coreTask "github.com/frahmantamala/performance-tracker/internal/core/task"
)

// TaskCompletion is the share-weighted fraction of owned tasks that are
// completed.
func TaskCompletion(tasks []OwnedTask) float64 {
	var done, total float64
	for _, t := range tasks {
		total += t.ShareWeight
		if t.Completed() {
			done += t.ShareWeight
		}
	}
	if total <= 0 {
		return FallbackScore
	}
	return clamp(done / total * 100)
}

// Timeliness is the share-weighted fraction of completed tasks finished on
// or before their due date. Tasks lacking either date are ignored.
func Timeliness(tasks []OwnedTask) float64 {
	var onTime, total float64
	for _, t := range tasks {
		if !t.Completed() || t.DueDate == nil || t.CompletedAt == nil {
			continue
		}
		total += t.ShareWeight
		if !t.CompletedAt.After(*t.DueDate) {
			onTime += t.ShareWeight
		}
	}
	if total <= 0 {
		return FallbackScore
	}
	return clamp(onTime / total * 100)
}

// Efficiency buckets the ratio of logged minutes to the share-weighted
// estimate.
func Efficiency(tasks []OwnedTask, loggedMinutes int64) float64 {
	var estimated float64
	for _, t := range tasks {
		estimated += t.EstimatedHours * 60 * t.ShareWeight
	}
	if estimated <= 0 || loggedMinutes <= 0 {
		return FallbackScore
	}
	return EfficiencyBucket(float64(loggedMinutes) / estimated)
}

func EfficiencyBucket(ratio float64) float64 {
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 100
	case ratio >= 0.6 && ratio <= 1.5:
		return 85
	case ratio >= 0.4 && ratio <= 2.0:
		return 65
	default:
		return 40
	}
}

// ProgressQuality is the share-weighted mean progress of the tasks still
// open.
func ProgressQuality(tasks []OwnedTask) float64 {
	if len(tasks) == 0 {
		return FallbackScore
	}
	var sum, total float64
	active := 0
	for _, t := range tasks {
		if t.Completed() {
			continue
		}
		active++
		sum += float64(t.EffectiveProgress()) * t.ShareWeight
		total += t.ShareWeight
	}
	if active == 0 {
		return FallbackAllTasksClosed
	}
	if total <= 0 {
		return FallbackScore
	}
	return clamp(sum / total)
}

// PriorityFocus is completion weighted by priority and share.
func PriorityFocus(tasks []OwnedTask) float64 {
	var done, total float64
	for _, t := range tasks {
		w := coreTask.PriorityWeight(t.Priority) * t.ShareWeight
		total += w
		if t.Completed() {
			done += w
		}
	}
	if total <= 0 {
		return FallbackScore
	}
	return clamp(done / total * 100)
}

// ComputeComponents runs every calculator over one user's window.
func ComputeComponents(tasks []OwnedTask, loggedMinutes int64, weights NormalizedWeights) Components {
	return Components{
		TaskCompletion:  TaskCompletion(tasks),
		Timeliness:      Timeliness(tasks),
		Efficiency:      Efficiency(tasks, loggedMinutes),
		ProgressQuality: ProgressQuality(tasks),
		PriorityFocus:   PriorityFocus(tasks),
		Weights:         weights,
	}
}

// Aggregate folds the components with their weights into a value in [0,100]
// rounded to two decimals.
func Aggregate(c Components) float64 {
	w := c.Weights
	v := c.TaskCompletion*w.TaskCompletion +
		c.Timeliness*w.Timeliness +
		c.Efficiency*w.Efficiency +
		c.ProgressQuality*w.ProgressQuality +
		c.PriorityFocus*w.PriorityFocus
	return math.Round(clamp(v)*100) / 100
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
