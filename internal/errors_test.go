package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("should leave sentinels untouched when a cause is attached", func() {
		// Given
		cause := errors.New("connection reset")

		// When
		err := internal.ErrTaskNotFound.WithCause(cause)

		// Then
		Expect(internal.ErrTaskNotFound.Cause).To(BeNil())
		Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeFalse())
	})

	It("should match through fmt wrapping", func() {
		err := fmt.Errorf("validate task 7: %w", internal.ErrUnauthorizedAccess)

		appErr, ok := internal.IsAppError(err)

		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusForbidden))
		Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
	})

	It("should report the failing field as the error message", func() {
		err := internal.NewValidationFieldError("validationComment", "validationComment must be at least 10 characters", internal.ErrCodeCommentTooShort)

		Expect(err.Error()).To(Equal("validationComment must be at least 10 characters"))
		Expect(err.Code).To(Equal(internal.ErrCodeValidationFailed))
		Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should hide the cause from the JSON body", func() {
		status, body := internal.NewInternalError("failed to list scores", errors.New("pq: timeout")).ToHTTPResponse()

		raw, err := json.Marshal(body)

		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(raw)).To(ContainSubstring(`"code":"INTERNAL_ERROR"`))
		Expect(string(raw)).NotTo(ContainSubstring("pq: timeout"))
	})
})
