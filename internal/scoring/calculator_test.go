package scoring_test

import (
	"math/rand"
	"time"

	"github.com/frahmantamala/performance-tracker/internal/scoring"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(v int) *int              { return &v }

var due = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func completedTask(priority string, finished time.Time, estimate float64) scoring.OwnedTask {
	return scoring.OwnedTask{
		Status:             "completed",
		Priority:           priority,
		ProgressPercentage: 100,
		EstimatedHours:     estimate,
		DueDate:            ptrTime(due),
		CompletedAt:        ptrTime(finished),
		ShareWeight:        1,
	}
}

func openTask(priority string, progress int, estimate float64) scoring.OwnedTask {
	return scoring.OwnedTask{
		Status:             "in_progress",
		Priority:           priority,
		ProgressPercentage: progress,
		EstimatedHours:     estimate,
		DueDate:            ptrTime(due),
		ShareWeight:        1,
	}
}

var _ = Describe("Calculators", func() {
	Context("with no tasks and no logged time", func() {
		It("should fall back to 70 for every component", func() {
			c := scoring.ComputeComponents(nil, 0, scoring.DefaultWeights().Normalize())

			Expect(c.TaskCompletion).To(Equal(70.0))
			Expect(c.Timeliness).To(Equal(70.0))
			Expect(c.Efficiency).To(Equal(70.0))
			Expect(c.ProgressQuality).To(Equal(70.0))
			Expect(c.PriorityFocus).To(Equal(70.0))
			Expect(scoring.Aggregate(c)).To(Equal(70.0))
		})
	})

	Describe("TaskCompletion", func() {
		It("should weight completion by ownership share", func() {
			// Given
			done := completedTask("medium", due, 1)
			done.ShareWeight = 0.5
			open := openTask("medium", 10, 1)

			// When
			v := scoring.TaskCompletion([]scoring.OwnedTask{done, open})

			// Then
			Expect(v).To(BeNumerically("~", 100.0/3.0, 1e-9))
		})

		It("should count the legacy Done status as completed", func() {
			t := openTask("low", 100, 1)
			t.Status = "Done"

			Expect(scoring.TaskCompletion([]scoring.OwnedTask{t})).To(Equal(100.0))
		})

		It("should not treat a validated 100 percent as completion", func() {
			t := openTask("low", 20, 1)
			t.ManagerValidatedPercentage = ptrInt(100)

			Expect(scoring.TaskCompletion([]scoring.OwnedTask{t})).To(Equal(0.0))
		})
	})

	Describe("Timeliness", func() {
		It("should count tasks finished on the due date as on time", func() {
			tasks := []scoring.OwnedTask{
				completedTask("high", due, 1),
				completedTask("high", due.Add(48*time.Hour), 1),
			}

			Expect(scoring.Timeliness(tasks)).To(Equal(50.0))
		})

		It("should ignore completed tasks without a due date", func() {
			t := completedTask("high", due, 1)
			t.DueDate = nil

			Expect(scoring.Timeliness([]scoring.OwnedTask{t})).To(Equal(70.0))
		})
	})

	Describe("Efficiency", func() {
		DescribeTable("bucketing the logged to estimated ratio",
			func(ratio, expected float64) {
				Expect(scoring.EfficiencyBucket(ratio)).To(Equal(expected))
			},
			Entry("lower edge of the best band", 0.8, 100.0),
			Entry("upper edge of the best band", 1.2, 100.0),
			Entry("slightly under", 0.6, 85.0),
			Entry("slightly over", 1.5, 85.0),
			Entry("far under", 0.4, 65.0),
			Entry("far over", 2.0, 65.0),
			Entry("way under", 0.39, 40.0),
			Entry("way over", 2.01, 40.0),
		)

		It("should compare logged minutes with the share-weighted estimate", func() {
			// Given two hours estimated at half share
			t := openTask("medium", 0, 4)
			t.ShareWeight = 0.5

			// When 120 minutes were logged
			v := scoring.Efficiency([]scoring.OwnedTask{t}, 120)

			// Then the ratio is exactly one
			Expect(v).To(Equal(100.0))
		})

		It("should fall back when nothing was logged", func() {
			Expect(scoring.Efficiency([]scoring.OwnedTask{openTask("low", 0, 3)}, 0)).To(Equal(70.0))
		})

		It("should fall back when there is no estimate", func() {
			Expect(scoring.Efficiency([]scoring.OwnedTask{openTask("low", 0, 0)}, 90)).To(Equal(70.0))
		})
	})

	Describe("ProgressQuality", func() {
		It("should return 90 when every owned task is closed", func() {
			tasks := []scoring.OwnedTask{completedTask("low", due, 1)}

			Expect(scoring.ProgressQuality(tasks)).To(Equal(90.0))
		})

		It("should prefer the manager-validated percentage", func() {
			a := openTask("low", 80, 1)
			a.ManagerValidatedPercentage = ptrInt(40)
			b := openTask("low", 60, 1)

			Expect(scoring.ProgressQuality([]scoring.OwnedTask{a, b})).To(Equal(50.0))
		})
	})

	Describe("PriorityFocus", func() {
		It("should weight high priority three times a low one", func() {
			tasks := []scoring.OwnedTask{
				completedTask("high", due, 1),
				openTask("low", 0, 1),
			}

			Expect(scoring.PriorityFocus(tasks)).To(Equal(75.0))
		})

		It("should treat an unknown priority like low", func() {
			tasks := []scoring.OwnedTask{
				completedTask("whatever", due, 1),
				openTask("low", 0, 1),
			}

			Expect(scoring.PriorityFocus(tasks)).To(Equal(50.0))
		})
	})

	Describe("Aggregate", func() {
		It("should combine the components with the default weights", func() {
			// Given
			tasks := []scoring.OwnedTask{
				completedTask("high", due, 2),
				completedTask("medium", due.Add(24*time.Hour), 2),
				openTask("low", 50, 2),
			}

			// When 360 minutes against a 360 minute estimate
			c := scoring.ComputeComponents(tasks, 360, scoring.DefaultWeights().Normalize())

			// Then
			Expect(c.TaskCompletion).To(BeNumerically("~", 66.6667, 1e-3))
			Expect(c.Timeliness).To(Equal(50.0))
			Expect(c.Efficiency).To(Equal(100.0))
			Expect(c.ProgressQuality).To(Equal(50.0))
			Expect(c.PriorityFocus).To(BeNumerically("~", 83.3333, 1e-3))
			// 0.30*66.667 + 0.25*50 + 0.25*100 + 0.15*50 + 0.05*83.333
			Expect(scoring.Aggregate(c)).To(Equal(69.17))
		})

		It("should stay within bounds and keep two decimals for arbitrary input", func() {
			rng := rand.New(rand.NewSource(42))
			statuses := []string{"todo", "in_progress", "completed", "Done", "blocked"}
			priorities := []string{"high", "medium", "low", ""}

			for i := 0; i < 500; i++ {
				n := rng.Intn(12)
				tasks := make([]scoring.OwnedTask, n)
				for j := range tasks {
					tasks[j] = scoring.OwnedTask{
						Status:             statuses[rng.Intn(len(statuses))],
						Priority:           priorities[rng.Intn(len(priorities))],
						ProgressPercentage: rng.Intn(101),
						EstimatedHours:     float64(rng.Intn(20)),
						DueDate:            ptrTime(due),
						CompletedAt:        ptrTime(due.Add(time.Duration(rng.Intn(96)-48) * time.Hour)),
						ShareWeight:        float64(rng.Intn(100)+1) / 100,
					}
				}
				w := scoring.Weights{TaskCompletion: rng.Intn(30), Timeliness: rng.Intn(30), Efficiency: rng.Intn(30)}
				w.ProgressQuality = rng.Intn(101 - w.Sum())
				w.PriorityFocus = 100 - w.Sum()

				v := scoring.Aggregate(scoring.ComputeComponents(tasks, int64(rng.Intn(5000)), w.Normalize()))

				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 100))
				Expect(v * 100).To(BeNumerically("~", float64(int64(v*100+0.5)), 1e-6))
			}
		})
	})

	Describe("Weights", func() {
		It("should accept the defaults", func() {
			Expect(scoring.DefaultWeights().Validate()).To(Succeed())
		})

		It("should reject weights not summing to 100", func() {
			w := scoring.DefaultWeights()
			w.PriorityFocus = 10

			Expect(w.Validate()).To(HaveOccurred())
		})

		It("should reject negative weights", func() {
			w := scoring.Weights{TaskCompletion: 110, Timeliness: -10}

			Expect(w.Validate()).To(HaveOccurred())
		})

		It("should normalize into fractions summing to one", func() {
			n := scoring.DefaultWeights().Normalize()

			Expect(n.Sum()).To(BeNumerically("~", 1.0, 1e-9))
			Expect(n.TaskCompletion).To(BeNumerically("~", 0.30, 1e-9))
		})
	})

	Describe("Window", func() {
		It("should cover thirty calendar days ending on the date", func() {
			asOf := time.Date(2026, 3, 31, 17, 45, 0, 0, time.UTC)

			start, end := scoring.Window(asOf)

			Expect(start).To(Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
			Expect(end).To(Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
		})
	})
})
