package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "supervisor")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "supervisor" {
		t.Errorf("Role = %q, want supervisor", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token must not validate")
	}
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/supervisor-only", RequireAuthWithRole("supervisor"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireAuthWithRole(t *testing.T) {
	r := authTestRouter()

	cases := []struct {
		name    string
		role    string
		noToken bool
		want    int
	}{
		{name: "missing token", noToken: true, want: http.StatusUnauthorized},
		{name: "wrong role", role: "passenger", want: http.StatusForbidden},
		{name: "matching role", role: "supervisor", want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/supervisor-only", nil)
			if !tc.noToken {
				token, err := GenerateToken(1, tc.role)
				if err != nil {
					t.Fatalf("generate token: %v", err)
				}
				req.Header.Set("Authorization", "Bearer "+token)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
