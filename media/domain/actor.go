package domain

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleAuthor        Role = "author"
	RoleSubscriber    Role = "subscriber"
)

// Actor is the authenticated principal behind an action.
type Actor struct {
	ID   string
	Role Role
}

// Authorizer answers permission questions for actors.
// Implementations must not touch the record store.
type Authorizer interface {
	// CanEdit reports whether the actor may change the image's alt text
	CanEdit(actor Actor, img *Image) bool

	// IsAdmin reports store-wide management rights
	IsAdmin(actor Actor) bool
}
