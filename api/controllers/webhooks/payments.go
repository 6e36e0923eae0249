package webhooks

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/bulkwear-backend/api/responses"
	"github.com/angelmondragon/bulkwear-backend/internal/reconciliation"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

const (
	SignatureHeader = "X-Payment-Signature"
	EventIDHeader   = "X-Payment-Event-Id"
	maxWebhookBytes = 1 << 20
)

// PaymentWebhook hands the raw gateway delivery to reconciliation. The body
// is read untouched so the signature can be checked over the exact bytes.
func PaymentWebhook(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "webhook body too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		eventID := strings.TrimSpace(r.Header.Get(EventIDHeader))
		if logg != nil && eventID != "" {
			ctx = logg.WithField(ctx, "event_id", eventID)
		}

		result, err := svc.HandleWebhook(ctx, reconciliation.WebhookInput{
			Body:      payload,
			Signature: strings.TrimSpace(r.Header.Get(SignatureHeader)),
			EventID:   eventID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
