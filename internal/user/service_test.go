package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/frahmantamala/performance-tracker/internal"
	userDatamodel "github.com/frahmantamala/performance-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/performance-tracker/internal/core/events"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/user"
	userPostgres "github.com/frahmantamala/performance-tracker/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type capturePublisher struct {
	events []events.Event
}

func (c *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func ids(users []*user.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func ref(v int64) *int64 { return &v }

var _ = Describe("User Service", func() {
	var (
		db        *gorm.DB
		service   *user.Service
		publisher *capturePublisher
		ctx       context.Context
	)

	// 1 (HR) ; 2 (manager) -> 3 (manager) -> 4, 5 ; 6 unmanaged
	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		rows := []userDatamodel.User{
			{ID: 1, Email: "hr@example.com", Name: "HR", PasswordHash: "x", Role: "HR_ADMIN", IsActive: true},
			{ID: 2, Email: "head@example.com", Name: "Head", PasswordHash: "x", Role: "MANAGER", IsActive: true},
			{ID: 3, Email: "lead@example.com", Name: "Lead", PasswordHash: "x", Role: "MANAGER", ManagerID: ref(2), IsActive: true},
			{ID: 4, Email: "a@example.com", Name: "A", PasswordHash: "x", Role: "EMPLOYEE", ManagerID: ref(3), IsActive: true},
			{ID: 5, Email: "b@example.com", Name: "B", PasswordHash: "x", Role: "EMPLOYEE", ManagerID: ref(3), IsActive: true},
			{ID: 6, Email: "c@example.com", Name: "C", PasswordHash: "x", Role: "EMPLOYEE", IsActive: true},
		}
		Expect(db.Create(&rows).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		publisher = &capturePublisher{}
		service = user.NewService(userPostgres.NewUserRepository(db), publisher, slogger)
	})

	Describe("GetReports", func() {
		It("should return direct reports only when not recursive", func() {
			reports, err := service.GetReports(ctx, 2, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(reports)).To(Equal([]int64{3}))
		})

		It("should walk the whole reporting line", func() {
			reports, err := service.GetReports(ctx, 2, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(ids(reports)).To(Equal([]int64{3, 4, 5}))
		})

		It("should terminate on a cycle in stored data", func() {
			// Given 2 -> 3 -> 2
			Expect(db.Model(&userDatamodel.User{}).Where("id = ?", 2).Update("manager_id", 3).Error).To(Succeed())

			// When
			reports, err := service.GetReports(ctx, 2, true)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(reports)).To(Equal([]int64{3, 4, 5}))
		})
	})

	Describe("IsReportOf", func() {
		It("should see indirect reports", func() {
			ok, err := service.IsReportOf(ctx, 2, 5)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("should reject users outside the line", func() {
			ok, err := service.IsReportOf(ctx, 3, 6)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should terminate on a cycle", func() {
			Expect(db.Model(&userDatamodel.User{}).Where("id = ?", 2).Update("manager_id", 4).Error).To(Succeed())

			ok, err := service.IsReportOf(ctx, 6, 4)

			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("UpdateRole", func() {
		It("should change the role and publish an event", func() {
			u, err := service.UpdateRole(ctx, 1, coreUser.RoleHRAdmin, 6, user.UpdateRoleDTO{Role: "MANAGER"})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(coreUser.RoleManager))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.UserRoleChangedEventType))

			stored, err := service.GetByID(ctx, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Role).To(Equal(coreUser.RoleManager))
		})

		It("should reject unknown roles", func() {
			_, err := service.UpdateRole(ctx, 1, coreUser.RoleHRAdmin, 6, user.UpdateRoleDTO{Role: "CEO"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidRole))
		})

		It("should only allow HR admins", func() {
			_, err := service.UpdateRole(ctx, 2, coreUser.RoleManager, 6, user.UpdateRoleDTO{Role: "MANAGER"})

			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("should return not found for unknown users", func() {
			_, err := service.UpdateRole(ctx, 1, coreUser.RoleHRAdmin, 99, user.UpdateRoleDTO{Role: "MANAGER"})

			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("SetManager", func() {
		It("should assign a manager", func() {
			u, err := service.SetManager(ctx, 1, coreUser.RoleHRAdmin, 6, ref(3))

			Expect(err).NotTo(HaveOccurred())
			Expect(*u.ManagerID).To(Equal(int64(3)))
			reports, err := service.GetReports(ctx, 3, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(reports)).To(ContainElement(int64(6)))
		})

		It("should detach a manager", func() {
			u, err := service.SetManager(ctx, 1, coreUser.RoleHRAdmin, 4, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.ManagerID).To(BeNil())
		})

		It("should reject self management", func() {
			_, err := service.SetManager(ctx, 1, coreUser.RoleHRAdmin, 3, ref(3))

			Expect(err).To(HaveOccurred())
		})

		It("should reject a reporting cycle", func() {
			// 2 managing through 3 to 4; making 4 the manager of 2 closes a loop
			_, err := service.SetManager(ctx, 1, coreUser.RoleHRAdmin, 2, ref(4))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Error()).To(ContainSubstring("cycle"))
		})
	})
})
