package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	emailsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/email"
)

func TestUserAPI_Signup(t *testing.T) {
	env := setup(t)
	env.createUser(t, "Taken", "taken@example.com", user.RoleStudent)

	signup := func(name, email, pwd string, roles ...string) []byte {
		return marchallObj(t, map[string]interface{}{
			"full_name":        name,
			"email":            email,
			"password":         pwd,
			"password_confirm": pwd,
			"roles":            roles,
		})
	}

	tests := []httpTest{
		{
			name:     "admin role",
			body:     signup("Eve", "eve@example.com", testPassword, user.RoleAdmin),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": errNoPermsToSetRoles}),
		},
		{
			name:     "unknown role",
			body:     signup("Eve", "eve@example.com", testPassword, "janitor"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "weak password",
			body:     signup("Eve", "eve@example.com", "password"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "email taken",
			body:     signup("Eve", "Taken@Example.com", testPassword, user.RoleStudent),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/signup", tt.body)
			env.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/signup", signup(" Ada Lovelace ", "ADA@example.com", testPassword, user.RoleTeacher))
		env.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp SignupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Ada Lovelace", resp.User.FullName)
		assert.Equal(t, "ada@example.com", resp.User.Email)
		assert.Equal(t, []string{user.RoleTeacher}, resp.User.Roles)
		assert.True(t, resp.User.IsActive)
		assert.NotEmpty(t, resp.Token)
		assert.NotContains(t, rec.Body.String(), "password")

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token)
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUserAPI_Login(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Grace Hopper", "grace@example.com", user.RoleTeacher)
	inactive := env.createUser(t, "Gone", "gone@example.com", user.RoleStudent)
	inactive.IsActive = false
	_, err := env.usrRepo.UpdateUser(context.Background(), inactive)
	require.NoError(t, err)

	login := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	tests := []httpTest{
		{name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "unknown email", body: login("nobody@example.com", testPassword), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: login(usr.Email, "nope"), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated", body: login(inactive.Email, testPassword), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", login(" GRACE@example.com ", testPassword))
		env.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(env.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, claims.Subject)
		assert.True(t, claims.IsTeacher)
		assert.False(t, claims.IsAdmin)

		got, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, got.LastLogin.IsZero())
	})
}

func TestUserAPI_Me(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "Stu Dent", "stu@example.com", user.RoleStudent)
	admin := env.createUser(t, "Ad Min", "admin@example.com", user.RoleAdmin)
	token := env.getToken(t, student)

	tests := []httpTest{
		{name: "no token", method: http.MethodGet, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "invalid token", method: http.MethodGet, token: "not.a.jwt", wantCode: http.StatusUnauthorized},
		{name: "get", method: http.MethodGet, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{
			name:     "student cannot change roles",
			method:   http.MethodPut,
			token:    token,
			body:     []byte(`{"roles": ["teacher"]}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "email taken",
			method:   http.MethodPut,
			token:    token,
			body:     marchallObj(t, map[string]string{"email": admin.Email}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "password mismatch",
			method:   http.MethodPut,
			token:    token,
			body:     marchallObj(t, map[string]string{"password": "N3w-Passphrase!", "password_confirm": "other"}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, "/v1/users/me", tt.token, tt.body)
			env.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"full_name": "Stu Renamed", "password": "N3w-Passphrase!", "password_confirm": "N3w-Passphrase!"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		env.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := env.usrRepo.GetUserByID(context.Background(), student.ID)
		require.NoError(t, err)
		assert.Equal(t, "Stu Renamed", got.FullName)
		assert.Equal(t, student.Email, got.Email)
		assert.NoError(t, got.CheckPassword("N3w-Passphrase!"))
	})
}

func TestUserAPI_Admin(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "Ad Min", "admin@example.com", user.RoleAdmin)
	teacher := env.createUser(t, "Tea Cher", "teacher@example.com", user.RoleTeacher)
	adminToken := env.getToken(t, admin)
	teacherToken := env.getToken(t, teacher)

	runHTTPTests(t, env, []httpTest{
		{name: "non admin", method: http.MethodGet, path: "/v1/users/" + admin.ID, token: teacherToken, wantCode: http.StatusForbidden},
		{name: "get", method: http.MethodGet, path: "/v1/users/" + teacher.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, teacher)},
		{name: "unknown", method: http.MethodGet, path: "/v1/users/" + core.NewID(), token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()})},
		{name: "delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{
			name:     "deactivate",
			method:   http.MethodPut,
			path:     "/v1/users/" + teacher.ID,
			token:    adminToken,
			body:     []byte(`{"is_active": false}`),
			wantCode: http.StatusOK,
		},
		{name: "deactivated token", method: http.MethodGet, path: "/v1/users/me", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "delete", method: http.MethodDelete, path: "/v1/users/" + teacher.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "roles", method: http.MethodGet, path: "/v1/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.AllRoles)},
	})
}

func TestUserAPI_PasswordReset(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Reset Me", "reset@example.com", user.RoleStudent)

	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "unknown@example.com"}`))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, emailsvc.SentMessages())

	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "RESET@example.com"}`))
	env.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)

	data, ok := sent[0].TemplateData.(core.ContextData).Data.(map[string]string)
	require.True(t, ok)
	uid, token := data["UID"], data["Token"]
	assert.Regexp(t, regexp.MustCompile(`\S+`), token)

	confirm := func(uid, token, pwd string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: pwd})
	}
	runHTTPTests(t, env, []httpTest{
		{
			name:     "bad token",
			method:   http.MethodPost,
			path:     "/v1/users/password-reset-confirm",
			body:     confirm(uid, "bad-token", "N3w-Passphrase!"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid token or uid"}),
		},
		{
			name:     "weak password",
			method:   http.MethodPost,
			path:     "/v1/users/password-reset-confirm",
			body:     confirm(uid, token, "12345678"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "success",
			method:   http.MethodPost,
			path:     "/v1/users/password-reset-confirm",
			body:     confirm(uid, token, "N3w-Passphrase!"),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	})

	got, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("N3w-Passphrase!"))
}

func TestUserAPI_TokenRefresh(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Re Fresh", "refresh@example.com", user.RoleStudent)

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", env.getToken(t, usr))
		env.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("refresh expired", func(t *testing.T) {
		claims := env.app.auth.claimsFor(usr, time.Now().Add(-env.conf.Server.JWTRefreshExpirationDelta-time.Minute).Unix())
		token, err := env.app.auth.generateToken(claims)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
		env.do(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}, rec)
	})
}
