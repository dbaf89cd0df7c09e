package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

const scimPatchSchema = "urn:ietf:params:scim:api:messages:2.0:PatchOp"

// ErrNotSupported is returned for directory capabilities the backend does
// not implement. The mitigation engine treats it as a trigger for the
// disable fallback.
var ErrNotSupported = goerr.New("directory capability not supported")

// errSCIMNotFound marks 404 responses so callers can map them to the
// resource-specific sentinel.
var errSCIMNotFound = goerr.New("SCIM resource not found")

// SCIM is a Directory implementation backed by a SCIM 2.0 provisioning
// endpoint. SCIM has no conditional-access or elevation surface, so those
// calls return ErrNotSupported; account disablement maps to `active: false`.
type SCIM struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

var _ interfaces.Directory = &SCIM{}

// SCIMOption configures the SCIM directory client
type SCIMOption func(*SCIM)

// WithHTTPClient overrides the HTTP client (e.g. for tests)
func WithHTTPClient(c *http.Client) SCIMOption {
	return func(s *SCIM) {
		s.httpClient = c
	}
}

// NewSCIM creates a SCIM-backed directory client
func NewSCIM(baseURL, bearerToken string, opts ...SCIMOption) (*SCIM, error) {
	if baseURL == "" {
		return nil, goerr.New("SCIM base URL is required")
	}
	if bearerToken == "" {
		return nil, goerr.New("SCIM bearer token is required")
	}

	s := &SCIM{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type scimMember struct {
	Value string `json:"value"`
}

type scimGroup struct {
	ID          string       `json:"id,omitempty"`
	DisplayName string       `json:"displayName"`
	Members     []scimMember `json:"members,omitempty"`
}

type scimName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type scimUser struct {
	ID       string   `json:"id,omitempty"`
	UserName string   `json:"userName"`
	Name     scimName `json:"name,omitempty"`
	Active   bool     `json:"active"`
}

type scimListResponse struct {
	TotalResults int               `json:"totalResults"`
	Resources    []json.RawMessage `json:"Resources"`
}

type scimPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path,omitempty"`
	Value any    `json:"value,omitempty"`
}

type scimPatchRequest struct {
	Schemas    []string      `json:"schemas"`
	Operations []scimPatchOp `json:"Operations"`
}

func (s *SCIM) request(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal SCIM request body")
		}
		reader = bytes.NewReader(data)
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build SCIM request", goerr.V("path", path))
	}
	req.Header.Set("Accept", "application/scim+json, application/json")
	req.Header.Set("Content-Type", "application/scim+json")
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "SCIM request failed", goerr.V("method", method), goerr.V("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return goerr.Wrap(errSCIMNotFound, "SCIM resource not found",
			goerr.V("method", method), goerr.V("path", path))
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.New("SCIM request rejected",
			goerr.V("method", method),
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(data)),
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return goerr.Wrap(err, "failed to decode SCIM response", goerr.V("path", path))
		}
	}
	return nil
}

func toPrincipal(u *scimUser) *model.Principal {
	status := model.PrincipalDisabled
	if u.Active {
		status = model.PrincipalActive
	}
	return &model.Principal{
		ID:       types.PrincipalID(u.ID),
		UserName: u.UserName,
		Email:    u.UserName,
		Status:   status,
	}
}

func toGroup(g *scimGroup) *model.Group {
	members := make([]types.PrincipalID, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, types.PrincipalID(m.Value))
	}
	return &model.Group{
		ID:          types.GroupID(g.ID),
		DisplayName: g.DisplayName,
		Members:     members,
	}
}

func (s *SCIM) GetPrincipal(ctx context.Context, id types.PrincipalID) (*model.Principal, error) {
	var user scimUser
	if err := s.request(ctx, http.MethodGet, "/Users/"+url.PathEscape(id.String()), nil, nil, &user); err != nil {
		return nil, goerr.Wrap(err, "failed to get SCIM user", goerr.V("principal_id", id))
	}
	return toPrincipal(&user), nil
}

func (s *SCIM) ListPrincipals(ctx context.Context, filter model.PrincipalFilter) ([]*model.Principal, error) {
	var list scimListResponse
	if err := s.request(ctx, http.MethodGet, "/Users", nil, nil, &list); err != nil {
		return nil, goerr.Wrap(err, "failed to list SCIM users")
	}

	var principals []*model.Principal
	for _, raw := range list.Resources {
		var user scimUser
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, goerr.Wrap(err, "failed to decode SCIM user resource")
		}
		p := toPrincipal(&user)
		if filter.Matches(p) {
			principals = append(principals, p)
		}
	}
	return principals, nil
}

func (s *SCIM) DisablePrincipal(ctx context.Context, id types.PrincipalID, reason string) error {
	patch := scimPatchRequest{
		Schemas: []string{scimPatchSchema},
		Operations: []scimPatchOp{
			{Op: "replace", Path: "active", Value: false},
		},
	}
	if err := s.request(ctx, http.MethodPatch, "/Users/"+url.PathEscape(id.String()), nil, patch, nil); err != nil {
		return goerr.Wrap(err, "failed to deactivate SCIM user",
			goerr.V("principal_id", id), goerr.V("reason", reason))
	}
	return nil
}

func (s *SCIM) BlockConditionalAccess(ctx context.Context, id types.PrincipalID, reason string) error {
	return goerr.Wrap(ErrNotSupported, "SCIM backend has no conditional access surface",
		goerr.V("principal_id", id))
}

func (s *SCIM) UnblockConditionalAccess(ctx context.Context, id types.PrincipalID) error {
	// The fallback path disables via `active: false`, so unblock re-enables.
	patch := scimPatchRequest{
		Schemas: []string{scimPatchSchema},
		Operations: []scimPatchOp{
			{Op: "replace", Path: "active", Value: true},
		},
	}
	if err := s.request(ctx, http.MethodPatch, "/Users/"+url.PathEscape(id.String()), nil, patch, nil); err != nil {
		return goerr.Wrap(err, "failed to reactivate SCIM user", goerr.V("principal_id", id))
	}
	return nil
}

func (s *SCIM) ListGroups(ctx context.Context, nameFilter string) ([]*model.Group, error) {
	query := url.Values{}
	if nameFilter != "" {
		query.Set("filter", fmt.Sprintf("displayName eq %q", nameFilter))
	}

	var list scimListResponse
	if err := s.request(ctx, http.MethodGet, "/Groups", query, nil, &list); err != nil {
		return nil, goerr.Wrap(err, "failed to list SCIM groups", goerr.V("filter", nameFilter))
	}

	var groups []*model.Group
	for _, raw := range list.Resources {
		var group scimGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, goerr.Wrap(err, "failed to decode SCIM group resource")
		}
		groups = append(groups, toGroup(&group))
	}
	return groups, nil
}

func (s *SCIM) CreateGroup(ctx context.Context, displayName string) (*model.Group, error) {
	var created scimGroup
	if err := s.request(ctx, http.MethodPost, "/Groups", nil, scimGroup{DisplayName: displayName}, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to create SCIM group", goerr.V("display_name", displayName))
	}
	return toGroup(&created), nil
}

func (s *SCIM) patchMembers(ctx context.Context, id types.GroupID, op string, members []types.PrincipalID) error {
	values := make([]scimMember, 0, len(members))
	for _, m := range members {
		values = append(values, scimMember{Value: m.String()})
	}

	patch := scimPatchRequest{
		Schemas: []string{scimPatchSchema},
		Operations: []scimPatchOp{
			{Op: op, Path: "members", Value: values},
		},
	}
	if err := s.request(ctx, http.MethodPatch, "/Groups/"+url.PathEscape(id.String()), nil, patch, nil); err != nil {
		if errors.Is(err, errSCIMNotFound) {
			return goerr.Wrap(interfaces.ErrGroupNotFound, "cannot patch members",
				goerr.V("group_id", id), goerr.V("op", op))
		}
		return goerr.Wrap(err, "failed to patch SCIM group members",
			goerr.V("group_id", id), goerr.V("op", op))
	}
	return nil
}

func (s *SCIM) AddGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error {
	return s.patchMembers(ctx, id, "add", members)
}

func (s *SCIM) RemoveGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error {
	return s.patchMembers(ctx, id, "remove", members)
}

func (s *SCIM) ApproveElevation(ctx context.Context, id types.RequestID) error {
	return goerr.Wrap(ErrNotSupported, "SCIM backend has no elevation surface",
		goerr.V("request_id", id))
}

func (s *SCIM) RejectElevation(ctx context.Context, id types.RequestID, justification string) error {
	return goerr.Wrap(ErrNotSupported, "SCIM backend has no elevation surface",
		goerr.V("request_id", id))
}
