package auth

import "github.com/dfryer1193/alttext/media/domain"

var _ domain.Authorizer = RoleAuthorizer{}

// SystemActor runs scheduled and command-line work with store-wide permissions
var SystemActor = domain.Actor{ID: "system", Role: domain.RoleAdministrator}

// RoleAuthorizer grants edit rights by role, and to authors for their own uploads
type RoleAuthorizer struct{}

func NewRoleAuthorizer() RoleAuthorizer {
	return RoleAuthorizer{}
}

func (RoleAuthorizer) CanEdit(actor domain.Actor, img *domain.Image) bool {
	switch actor.Role {
	case domain.RoleAdministrator, domain.RoleEditor:
		return true
	case domain.RoleAuthor:
		return img != nil && actor.ID != "" && img.AuthorID == actor.ID
	default:
		return false
	}
}

func (RoleAuthorizer) IsAdmin(actor domain.Actor) bool {
	return actor.Role == domain.RoleAdministrator
}

// CanUpload reports whether the actor may register new attachments
func (RoleAuthorizer) CanUpload(actor domain.Actor) bool {
	switch actor.Role {
	case domain.RoleAdministrator, domain.RoleEditor, domain.RoleAuthor:
		return true
	default:
		return false
	}
}
