package internal_test

import (
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			Port:              8080,
			AllowedOrigins:    "http://localhost:3000",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost/performance_tracker",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Security: internal.SecurityConfig{
			JWTAccessSecret:      "access-secret-access-secret-access-secret",
			JWTRefreshSecret:     "refresh-secret-refresh-secret-refresh-secret",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           12,
		},
		Scheduler: internal.SchedulerConfig{
			Enabled:            true,
			Timezone:           "Asia/Jakarta",
			GenerateScoresSpec: "0 1 * * *",
			ProjectSyncSpec:    "@every 1h",
		},
	}
}

var _ = Describe("Config", func() {
	It("should accept a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("should collect the failures of every section", func() {
		// Given
		cfg := validConfig()
		cfg.Database.Source = ""
		cfg.Security.JWTRefreshSecret = cfg.Security.JWTAccessSecret
		cfg.Scheduler.ManagerReportsSpec = "every monday"

		// When
		err := cfg.Validate()

		// Then
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("database config: source is required"))
		Expect(err.Error()).To(ContainSubstring("secrets must differ"))
		Expect(err.Error()).To(ContainSubstring("manager_reports_spec"))
	})

	It("should ignore cron specs while the scheduler is disabled", func() {
		cfg := validConfig()
		cfg.Scheduler.Enabled = false
		cfg.Scheduler.GenerateScoresSpec = "not a spec"

		Expect(cfg.Validate()).To(Succeed())
	})

	It("should validate the sync base url only when sync is configured", func() {
		cfg := validConfig()
		cfg.Sync.BaseURL = "::not-a-url"

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("invalid base_url")))
	})

	DescribeTable("Scheduler.Location",
		func(tz string, expected string) {
			cfg := internal.SchedulerConfig{Timezone: tz}
			Expect(cfg.Location().String()).To(Equal(expected))
		},
		Entry("empty falls back to UTC", "", "UTC"),
		Entry("unknown falls back to UTC", "Mars/Olympus", "UTC"),
		Entry("named zone", "Asia/Jakarta", "Asia/Jakarta"),
	)
})
