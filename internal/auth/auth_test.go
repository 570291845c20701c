package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/golang-jwt/jwt/v5"
)

func TestRoleAuthorizer_CanEdit(t *testing.T) {
	img := &domain.Image{ID: 1, AuthorID: "alice"}

	tests := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{name: "administrator", actor: domain.Actor{ID: "root", Role: domain.RoleAdministrator}, want: true},
		{name: "editor", actor: domain.Actor{ID: "ed", Role: domain.RoleEditor}, want: true},
		{name: "author owns image", actor: domain.Actor{ID: "alice", Role: domain.RoleAuthor}, want: true},
		{name: "author of someone else", actor: domain.Actor{ID: "bob", Role: domain.RoleAuthor}, want: false},
		{name: "subscriber", actor: domain.Actor{ID: "alice", Role: domain.RoleSubscriber}, want: false},
		{name: "unknown role", actor: domain.Actor{ID: "alice", Role: "guest"}, want: false},
	}

	authz := NewRoleAuthorizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanEdit(tt.actor, img); got != tt.want {
				t.Errorf("CanEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleAuthorizer_AuthorWithoutID(t *testing.T) {
	authz := NewRoleAuthorizer()
	if authz.CanEdit(domain.Actor{Role: domain.RoleAuthor}, &domain.Image{}) {
		t.Error("author with empty id should not match an image with empty owner")
	}
}

func TestRoleAuthorizer_IsAdmin(t *testing.T) {
	authz := NewRoleAuthorizer()
	if !authz.IsAdmin(SystemActor) {
		t.Error("SystemActor should be an administrator")
	}
	if authz.IsAdmin(domain.Actor{ID: "ed", Role: domain.RoleEditor}) {
		t.Error("editor should not be an administrator")
	}
}

func TestRoleAuthorizer_CanUpload(t *testing.T) {
	authz := NewRoleAuthorizer()
	if !authz.CanUpload(domain.Actor{Role: domain.RoleAuthor}) {
		t.Error("author should be allowed to upload")
	}
	if authz.CanUpload(domain.Actor{Role: domain.RoleSubscriber}) {
		t.Error("subscriber should not be allowed to upload")
	}
}

func TestTokenParser_RoundTrip(t *testing.T) {
	parser := NewTokenParser("secret")
	want := domain.Actor{ID: "alice", Role: domain.RoleAuthor}

	token, err := parser.Issue(want, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	got, err := parser.FromHeader(headers)
	if err != nil {
		t.Fatalf("FromHeader() error = %v", err)
	}
	if got != want {
		t.Errorf("FromHeader() = %+v, want %+v", got, want)
	}
}

func TestTokenParser_Rejects(t *testing.T) {
	parser := NewTokenParser("secret")

	expired, err := parser.Issue(domain.Actor{ID: "alice", Role: domain.RoleAuthor}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	wrongKey, err := NewTokenParser("other").Issue(domain.Actor{ID: "alice", Role: domain.RoleAuthor}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "editor"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{name: "no header", header: "", want: ErrMissingToken},
		{name: "not bearer", header: "Basic abc", want: ErrMissingToken},
		{name: "empty bearer", header: "Bearer   ", want: ErrMissingToken},
		{name: "garbage", header: "Bearer not.a.jwt", want: ErrInvalidToken},
		{name: "expired", header: "Bearer " + expired, want: ErrInvalidToken},
		{name: "wrong key", header: "Bearer " + wrongKey, want: ErrInvalidToken},
		{name: "no subject", header: "Bearer " + noSubject, want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Authorization", tt.header)
			}
			_, err := parser.FromHeader(headers)
			if !errors.Is(err, tt.want) {
				t.Errorf("FromHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTokenParser_DefaultsRoleToSubscriber(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "carol"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	actor, err := NewTokenParser("secret").Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if actor.Role != domain.RoleSubscriber {
		t.Errorf("Role = %q, want %q", actor.Role, domain.RoleSubscriber)
	}
}
