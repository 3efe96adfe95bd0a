package logger_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/performance-tracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	It("should respect an explicit level override", func() {
		lg := logger.Setup("production", logger.Options{Level: "error"})

		Expect(lg.Enabled(context.Background(), slog.LevelInfo)).To(BeFalse())
		Expect(lg.Enabled(context.Background(), slog.LevelError)).To(BeTrue())
	})

	It("should tee records into the rotating file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "app.log")
		lg := logger.Setup("development", logger.Options{
			Format: "json",
			File:   logger.FileOptions{Path: path, MaxSizeMB: 1},
		})

		lg.Info("scores generated", "inserted", 3)

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(`"msg":"scores generated"`))
		Expect(string(content)).To(ContainSubstring(`"inserted":3`))
	})

	It("should carry fields through the context", func() {
		logger.Setup("development", logger.Options{})
		ctx := logger.With(context.Background(), "request_id", "abc")

		Expect(logger.From(ctx)).NotTo(BeIdenticalTo(logger.LoggerWrapper()))
		Expect(logger.From(context.Background())).To(BeIdenticalTo(logger.LoggerWrapper()))
	})

	It("should hand the innermost logger to a capturing caller", func() {
		logger.Setup("development", logger.Options{})
		var captured *slog.Logger
		ctx := logger.Capture(context.Background(), &captured)

		inner := logger.With(logger.With(ctx, "request_id", "abc"), "user_id", 7)

		Expect(captured).To(BeIdenticalTo(logger.From(inner)))
	})
})
