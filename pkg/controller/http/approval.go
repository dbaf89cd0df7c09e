package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// approvalPayload is the inbound approval-channel callback body:
//
//	{"type": "message", "value": {"data": {"action": ..., "user_id"?: ..., "request_id"?: ...}}}
//
// user_id carries the correlation token for re_enable / keep_blocked;
// request_id carries the elevation request ID for approve / reject.
type approvalPayload struct {
	Type  string `json:"type"`
	Value struct {
		Data struct {
			Action    string `json:"action"`
			UserID    string `json:"user_id"`
			RequestID string `json:"request_id"`
		} `json:"data"`
	} `json:"value"`
}

// approvalHandler handles approval webhook deliveries. Delivery is
// at-least-once and retries on non-2xx, so anything short of a malformed
// request is acknowledged with 200: unknown actions get an "ignored"
// response instead of an error.
func approvalHandler(approvalUC *usecase.ApprovalUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload approvalPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "malformed approval payload"), http.StatusBadRequest)
			return
		}

		kind := types.DecisionKind(payload.Value.Data.Action)
		if !kind.IsValid() {
			logging.From(ctx).Info("approval callback with unrecognized action ignored",
				"action", payload.Value.Data.Action,
			)
			respond(ctx, w, "ignored")
			return
		}

		decision := &model.ApprovalDecision{
			Kind:       kind,
			Token:      types.CorrelationToken(payload.Value.Data.UserID),
			RequestID:  types.RequestID(payload.Value.Data.RequestID),
			ReceivedAt: time.Now().UTC(),
		}

		outcome, err := approvalUC.Handle(ctx, decision)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to handle approval decision"), http.StatusBadRequest)
			return
		}

		respond(ctx, w, outcome)
	}
}

func respond(ctx context.Context, w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{"result": text}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.From(ctx).Error("failed to write approval response", "error", err)
	}
}
