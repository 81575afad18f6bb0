package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/cerr"
)

const secret = "test-secret"

func TestIssueAndVerify(t *testing.T) {
	now := time.Now()
	token, err := NewIssuer(secret, "todoguild", time.Hour).Issue("u-1", now)
	require.NoError(t, err)

	got, err := NewVerifier(secret, "todoguild").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got)
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Now()
	valid, err := NewIssuer(secret, "todoguild", time.Hour).Issue("u-1", now)
	require.NoError(t, err)
	expired, err := NewIssuer(secret, "todoguild", time.Minute).Issue("u-1", now.Add(-time.Hour))
	require.NoError(t, err)
	otherIssuer, err := NewIssuer(secret, "elsewhere", time.Hour).Issue("u-1", now)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"missing", "", "missing bearer token"},
		{"garbage", "not-a-token", "invalid token"},
		{"wrong secret", mustIssue(t, NewIssuer("other", "todoguild", time.Hour)), "invalid token"},
		{"expired", expired, "token expired"},
		{"wrong issuer", otherIssuer, "invalid token"},
	}
	v := NewVerifier(secret, "todoguild")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
			assert.Equal(t, tt.wantMsg, cerr.Reason(err))
		})
	}
	_, err = v.Verify(valid)
	assert.NoError(t, err)
}

func mustIssue(t *testing.T, i *Issuer) string {
	t.Helper()
	token, err := i.Issue("u-1", time.Now())
	require.NoError(t, err)
	return token
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(secret, "todoguild")
	token := mustIssue(t, NewIssuer(secret, "todoguild", time.Hour))

	var seen string
	h := cerr.NewConvertConnectErrorChiMiddleware()(Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorID(r.Context())
		cerr.SetNoContent(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/todos/x/attachments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u-1", seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos/x/attachments", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":"unauthenticated","message":"missing bearer token"}`, rec.Body.String())
}

func TestRequireActor(t *testing.T) {
	_, err := RequireActor(context.Background())
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))

	id, err := RequireActor(WithActor(context.Background(), "u-9"))
	require.NoError(t, err)
	assert.Equal(t, "u-9", id)
}

func TestSubjectOf(t *testing.T) {
	token := mustIssue(t, NewIssuer("any-secret", "todoguild", time.Hour))
	got, err := SubjectOf(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got)

	_, err = SubjectOf("")
	assert.Equal(t, "missing bearer token", cerr.Reason(err))
	_, err = SubjectOf("garbage")
	assert.Equal(t, "invalid token", cerr.Reason(err))
}
