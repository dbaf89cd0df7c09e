package directory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/service/directory"
)

type scimCall struct {
	method string
	path   string
	filter string
	body   map[string]any
}

// scimStub is a minimal SCIM 2.0 endpoint recording every request
type scimStub struct {
	t      *testing.T
	calls  []scimCall
	users  map[string]map[string]any
	groups []map[string]any
}

func newSCIMStub(t *testing.T) *scimStub {
	return &scimStub{
		t: t,
		users: map[string]map[string]any{
			"user001": {"id": "user001", "userName": "john.doe", "active": true},
		},
	}
}

func (s *scimStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		call := scimCall{
			method: r.Method,
			path:   r.URL.Path,
			filter: r.URL.Query().Get("filter"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&call.body)
		}
		s.calls = append(s.calls, call)

		w.Header().Set("Content-Type", "application/scim+json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Users/user001":
			_ = json.NewEncoder(w).Encode(s.users["user001"])
		case r.Method == http.MethodPatch && r.URL.Path == "/Users/user001":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/Groups":
			var resources []map[string]any
			for _, g := range s.groups {
				if call.filter == "" || call.filter == `displayName eq "`+g["displayName"].(string)+`"` {
					resources = append(resources, g)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"totalResults": len(resources),
				"Resources":    resources,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/Groups":
			group := map[string]any{
				"id":          "grp-new",
				"displayName": call.body["displayName"],
			}
			s.groups = append(s.groups, group)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(group)
		case r.Method == http.MethodPatch && r.URL.Path == "/Groups/grp-new":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (s *scimStub) lastCall() scimCall {
	gt.Number(s.t, len(s.calls)).NotEqual(0)
	return s.calls[len(s.calls)-1]
}

func newSCIMClient(t *testing.T) (*directory.SCIM, *scimStub) {
	t.Helper()
	stub := newSCIMStub(t)
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := directory.NewSCIM(srv.URL, "test-token")
	gt.NoError(t, err).Required()
	return client, stub
}

func TestSCIM_Principals(t *testing.T) {
	ctx := context.Background()

	t.Run("get principal maps active to status", func(t *testing.T) {
		client, _ := newSCIMClient(t)

		p, err := client.GetPrincipal(ctx, "user001")
		gt.NoError(t, err).Required()
		gt.Value(t, p.ID).Equal(types.PrincipalID("user001"))
		gt.Value(t, p.Status).Equal(model.PrincipalActive)
	})

	t.Run("disable sends an active false patch", func(t *testing.T) {
		client, stub := newSCIMClient(t)

		gt.NoError(t, client.DisablePrincipal(ctx, "user001", "risk mitigation")).Required()

		call := stub.lastCall()
		gt.Value(t, call.method).Equal(http.MethodPatch)
		ops := call.body["Operations"].([]any)
		gt.Array(t, ops).Length(1).Required()
		op := ops[0].(map[string]any)
		gt.Value(t, op["op"]).Equal("replace")
		gt.Value(t, op["path"]).Equal("active")
		gt.Value(t, op["value"]).Equal(false)
	})

	t.Run("unblock reactivates the account", func(t *testing.T) {
		client, stub := newSCIMClient(t)

		gt.NoError(t, client.UnblockConditionalAccess(ctx, "user001")).Required()

		op := stub.lastCall().body["Operations"].([]any)[0].(map[string]any)
		gt.Value(t, op["value"]).Equal(true)
	})
}

func TestSCIM_Groups(t *testing.T) {
	ctx := context.Background()

	t.Run("list groups sends a displayName filter", func(t *testing.T) {
		client, stub := newSCIMClient(t)

		_, err := client.ListGroups(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()
		gt.Value(t, stub.lastCall().filter).Equal(`displayName eq "sec-Engineering"`)
	})

	t.Run("create then find round-trip", func(t *testing.T) {
		client, _ := newSCIMClient(t)

		created, err := client.CreateGroup(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(types.GroupID("grp-new"))

		groups, err := client.ListGroups(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1)
	})

	t.Run("membership changes use PatchOp", func(t *testing.T) {
		client, stub := newSCIMClient(t)

		_, err := client.CreateGroup(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()

		gt.NoError(t, client.AddGroupMembers(ctx, "grp-new", []types.PrincipalID{"user001"})).Required()
		addOp := stub.lastCall().body["Operations"].([]any)[0].(map[string]any)
		gt.Value(t, addOp["op"]).Equal("add")
		gt.Value(t, addOp["path"]).Equal("members")

		gt.NoError(t, client.RemoveGroupMembers(ctx, "grp-new", []types.PrincipalID{"user001"})).Required()
		removeOp := stub.lastCall().body["Operations"].([]any)[0].(map[string]any)
		gt.Value(t, removeOp["op"]).Equal("remove")
	})
}

func TestSCIM_UnsupportedCapabilities(t *testing.T) {
	ctx := context.Background()
	client, _ := newSCIMClient(t)

	err := client.BlockConditionalAccess(ctx, "user001", "reason")
	gt.Error(t, err).Is(directory.ErrNotSupported)

	err = client.ApproveElevation(ctx, "req-1")
	gt.Error(t, err).Is(directory.ErrNotSupported)
}
