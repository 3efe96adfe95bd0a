package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/ingest"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an HR admin, a two-level management line and a sample project with tasks and logged time.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		defer app.Close()

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), app.Config.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		ids := make(map[string]int64)
		for _, u := range seedUsers {
			id, err := seedUser(app.DB, u, string(hash), ids)
			if err != nil {
				log.Fatalf("failed to seed user %s: %v", u.email, err)
			}
			ids[u.email] = id
			fmt.Printf("Seeded %s user: %s\n", u.role, u.email)
		}

		result, err := app.Ingest.Apply(context.Background(), seedBatch(time.Now().UTC()))
		if err != nil {
			log.Fatalf("failed to seed project data: %v", err)
		}
		fmt.Printf("Seeded %d projects, %d tasks and %d time logs\n", result.Projects, result.Tasks, result.TimeLogs)
	},
}

const seedPassword = "password"

type seedAccount struct {
	email   string
	name    string
	role    coreUser.Role
	manager string
	dept    string
}

var seedUsers = []seedAccount{
	{email: "hana@mail.com", name: "Hana HR", role: coreUser.RoleHRAdmin, dept: "People"},
	{email: "maya@mail.com", name: "Maya Lead", role: coreUser.RoleManager, manager: "hana@mail.com", dept: "Engineering"},
	{email: "omar@mail.com", name: "Omar Manager", role: coreUser.RoleManager, manager: "maya@mail.com", dept: "Engineering"},
	{email: "ana@mail.com", name: "Ana", role: coreUser.RoleEmployee, manager: "omar@mail.com", dept: "Engineering"},
	{email: "ben@mail.com", name: "Ben", role: coreUser.RoleEmployee, manager: "omar@mail.com", dept: "Engineering"},
	{email: "cleo@mail.com", name: "Cleo", role: coreUser.RoleEmployee, manager: "maya@mail.com", dept: "Design"},
}

func seedUser(db *gorm.DB, u seedAccount, hash string, ids map[string]int64) (int64, error) {
	var managerID *int64
	if u.manager != "" {
		id, ok := ids[u.manager]
		if !ok {
			return 0, fmt.Errorf("manager %s must be seeded first", u.manager)
		}
		managerID = &id
	}

	now := time.Now().UTC()
	row := userDatamodel.User{
		Email:        u.email,
		Name:         u.name,
		PasswordHash: hash,
		Role:         string(u.role),
		ManagerID:    managerID,
		Department:   u.dept,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := db.Where(userDatamodel.User{Email: u.email}).
		Assign(map[string]interface{}{
			"role":       row.Role,
			"manager_id": managerID,
			"department": row.Department,
		}).
		FirstOrCreate(&row).Error
	return row.ID, err
}

func seedBatch(now time.Time) ingest.Batch {
	day := func(offset int) *time.Time {
		t := now.AddDate(0, 0, offset).Truncate(24 * time.Hour)
		return &t
	}
	fifty := 50

	return ingest.Batch{
		Projects: []ingest.ProjectRecord{{ExternalID: "seed:apollo", Name: "Apollo"}},
		Tasks: []ingest.TaskRecord{
			{
				ExternalID: "seed:apollo-1", ProjectExternalID: "seed:apollo", Title: "Design onboarding flow",
				AssigneeEmail: "cleo@mail.com", Status: "completed", Priority: "high", Progress: 100,
				EstimatedHours: 6, CreatedAt: day(-10), DueDate: day(-3), CompletedAt: day(-4),
			},
			{
				ExternalID: "seed:apollo-2", ProjectExternalID: "seed:apollo", Title: "Build onboarding API",
				AssigneeEmail: "ana@mail.com", Status: "Done", Priority: "medium", Progress: 100,
				EstimatedHours: 10, CreatedAt: day(-9), DueDate: day(-2), CompletedAt: day(-1),
				Owners: []ingest.OwnerRecord{
					{Email: "ana@mail.com", SharePercentage: &fifty},
					{Email: "ben@mail.com", SharePercentage: &fifty},
				},
			},
			{
				ExternalID: "seed:apollo-3", ProjectExternalID: "seed:apollo", Title: "Load test onboarding",
				AssigneeEmail: "ben@mail.com", Status: "in_progress", Priority: "low", Progress: 40,
				EstimatedHours: 4, CreatedAt: day(-5), DueDate: day(3),
				Owners: []ingest.OwnerRecord{{Email: "ben@mail.com"}, {Email: "ana@mail.com"}, {Email: "cleo@mail.com"}},
			},
		},
		TimeLogs: []ingest.TimeLogRecord{
			{ExternalID: "seed:log-1", TaskExternalID: "seed:apollo-1", UserEmail: "cleo@mail.com", Minutes: 300, LoggedAt: *day(-5)},
			{ExternalID: "seed:log-2", TaskExternalID: "seed:apollo-2", UserEmail: "ana@mail.com", Minutes: 330, LoggedAt: *day(-2)},
			{ExternalID: "seed:log-3", TaskExternalID: "seed:apollo-2", UserEmail: "ben@mail.com", Minutes: 240, LoggedAt: *day(-2)},
			{ExternalID: "seed:log-4", TaskExternalID: "seed:apollo-3", UserEmail: "ben@mail.com", Minutes: 90, LoggedAt: *day(-1)},
		},
	}
}
