package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bulkwear-backend/api/middleware"
	"github.com/angelmondragon/bulkwear-backend/api/responses"
	"github.com/angelmondragon/bulkwear-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/bulkwear-backend/internal/checkout"
	"github.com/angelmondragon/bulkwear-backend/internal/reconciliation"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
	"github.com/angelmondragon/bulkwear-backend/pkg/types"
)

const maxSessionIDLen = 255

type createSessionRequest struct {
	Email           string         `json:"email" validate:"required,email,max=254"`
	Phone           string         `json:"phone" validate:"required,min=7,max=20"`
	ShippingAddress types.Address  `json:"shipping_address"`
	BillingAddress  *types.Address `json:"billing_address,omitempty" validate:"omitempty"`
	Notes           *string        `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (req createSessionRequest) toInput() checkoutsvc.CreateSessionInput {
	input := checkoutsvc.CreateSessionInput{
		Contact: checkoutsvc.Contact{
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
		},
		ShippingAddress: req.ShippingAddress.Normalize(),
		Notes:           req.Notes,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.Normalize()
		input.BillingAddress = &billing
	}
	return input
}

// CheckoutCreateSession turns the caller's cart into a pending order and opens
// a gateway session for it.
func CheckoutCreateSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		caller, err := middleware.CallerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), caller, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutVerify accepts the client's signed payment confirmation.
func CheckoutVerify(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		var payload reconciliation.VerifyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Verify(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutStatus polls the gateway for a session and applies any settled outcome.
func CheckoutStatus(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}
		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if sessionID == "" || len(sessionID) > maxSessionIDLen {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id"))
			return
		}
		result, err := svc.PollStatus(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
