package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/warden/pkg/controller/http"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/repository/memory"
	"github.com/secmon-lab/warden/pkg/service/directory"
	"github.com/secmon-lab/warden/pkg/usecase"
)

const testSecret = "test-webhook-secret"

type webhookEnv struct {
	repo   *memory.Memory
	dir    *directory.Mock
	server *httpctrl.Server
}

func newWebhookEnv(t *testing.T) *webhookEnv {
	t.Helper()

	repo := memory.New()
	dir := directory.NewMockWithSeed()
	uc := usecase.New(repo, dir, usecase.Sources{})

	server, err := httpctrl.New(uc.Approval,
		httpctrl.WithWebhookSecret(testSecret, ""),
	)
	gt.NoError(t, err).Required()

	return &webhookEnv{repo: repo, dir: dir, server: server}
}

// seedPendingAction persists a pending block and applies it to the directory
func (e *webhookEnv) seedPendingAction(t *testing.T, principalID types.PrincipalID) types.CorrelationToken {
	t.Helper()
	ctx := context.Background()

	action := &model.MitigationAction{
		Token:       types.NewCorrelationToken(),
		PrincipalID: principalID,
		Kind:        types.ActionKindConditionalAccessBlock,
		State:       types.ActionStatePendingReview,
		Reason:      "composite score 95 at or above mitigation threshold 90",
		Score:       95,
	}
	gt.NoError(t, e.dir.BlockConditionalAccess(ctx, principalID, action.Reason)).Required()
	gt.NoError(t, e.repo.Action().Put(ctx, action)).Required()
	return action.Token
}

func approvalBody(action, userID, requestID string) []byte {
	payload := map[string]any{
		"type": "message",
		"value": map[string]any{
			"data": map[string]any{
				"action":     action,
				"user_id":    userID,
				"request_id": requestID,
			},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

func (e *webhookEnv) post(body []byte, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/approval", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(httpctrl.DefaultSecretHeader, secret)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestApprovalWebhook_Auth(t *testing.T) {
	t.Run("missing secret is rejected", func(t *testing.T) {
		env := newWebhookEnv(t)
		rec := env.post(approvalBody("re_enable", "token", ""), "")
		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		env := newWebhookEnv(t)
		rec := env.post(approvalBody("re_enable", "token", ""), "wrong")
		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})

	t.Run("custom header name is honored", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, directory.NewMockWithSeed(), usecase.Sources{})
		server, err := httpctrl.New(uc.Approval,
			httpctrl.WithWebhookSecret(testSecret, "X-Custom-Auth"),
		)
		gt.NoError(t, err).Required()

		req := httptest.NewRequest(http.MethodPost, "/webhook/approval",
			bytes.NewReader(approvalBody("nonsense", "", "")))
		req.Header.Set("X-Custom-Auth", testSecret)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestApprovalWebhook_Validation(t *testing.T) {
	t.Run("malformed body is a 400", func(t *testing.T) {
		env := newWebhookEnv(t)
		rec := env.post([]byte("{not json"), testSecret)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown action is acknowledged as ignored", func(t *testing.T) {
		env := newWebhookEnv(t)
		rec := env.post(approvalBody("self_destruct", "", ""), testSecret)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(rec.Body.String(), "ignored")).True()
	})

	t.Run("absent action is acknowledged as ignored", func(t *testing.T) {
		env := newWebhookEnv(t)
		rec := env.post([]byte(`{"type":"message","value":{"data":{}}}`), testSecret)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(rec.Body.String(), "ignored")).True()
	})
}

func TestApprovalWebhook_ReEnable(t *testing.T) {
	t.Run("restores access", func(t *testing.T) {
		env := newWebhookEnv(t)
		token := env.seedPendingAction(t, "user001")

		rec := env.post(approvalBody("re_enable", token.String(), ""), testSecret)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(rec.Body.String(), "access restored")).True()
		gt.Bool(t, env.dir.IsBlocked("user001")).False()
	})

	t.Run("double delivery is a no-op on the second call", func(t *testing.T) {
		env := newWebhookEnv(t)
		token := env.seedPendingAction(t, "user001")
		body := approvalBody("re_enable", token.String(), "")

		first := env.post(body, testSecret)
		gt.Number(t, first.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(first.Body.String(), "access restored")).True()

		second := env.post(body, testSecret)
		gt.Number(t, second.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(second.Body.String(), "nothing to do")).True()

		stored, err := env.repo.Action().Get(context.Background(), token)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.State).Equal(types.ActionStateResolved)
		gt.Value(t, stored.Outcome).Equal(types.OutcomeRestored)
	})
}

func TestApprovalWebhook_KeepBlocked(t *testing.T) {
	env := newWebhookEnv(t)
	token := env.seedPendingAction(t, "user001")

	rec := env.post(approvalBody("keep_blocked", token.String(), ""), testSecret)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "block confirmed")).True()
	gt.Bool(t, env.dir.IsBlocked("user001")).True()
}

func TestApprovalWebhook_Elevation(t *testing.T) {
	env := newWebhookEnv(t)

	for i, action := range []string{"approve", "reject"} {
		requestID := fmt.Sprintf("req-%d", i)
		rec := env.post(approvalBody(action, "", requestID), testSecret)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	}

	gt.Value(t, env.dir.ElevationState("req-0")).Equal("approved")
	gt.Value(t, env.dir.ElevationState("req-1")).Equal("rejected")
}

func TestHealthEndpoint(t *testing.T) {
	env := newWebhookEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	gt.Number(t, rec.Code).Equal(http.StatusOK)
}
