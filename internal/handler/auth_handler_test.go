package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapps/internal/model"
	"sampleapps/internal/service/auth"
	"sampleapps/pkg/util"
)

type fakeAuth struct {
	users map[string]string
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (*model.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, auth.ErrEmailTaken
	}
	if len(password) > util.MaxPasswordBytes {
		return nil, util.ErrPasswordTooLong
	}
	f.users[email] = password
	return &model.User{ID: len(f.users), Email: email, Role: "user"}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	if p, ok := f.users[email]; !ok || p != password {
		return "", auth.ErrInvalidCredentials
	}
	return "token-for-" + email, nil
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{users: map[string]string{}}, nopLogger())
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "Ana@Example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "ana@example.com", decode[model.User](t, w).Email)
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusConflict,
		doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "ana@example.com", "password": "correct-horse"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "not-an-email", "password": "correct-horse"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "b@example.com", "password": "short"}).Code)
	// 25 runes pass the length tag but are 75 bytes
	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, r, http.MethodPost, "/register", gin.H{"email": "c@example.com", "password": strings.Repeat("水", 25)}).Code)

	w = doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "ana@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-for-ana@example.com", decode[map[string]string](t, w)["token"])

	assert.Equal(t, http.StatusUnauthorized,
		doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "ana@example.com", "password": "wrong-horse"}).Code)
}
