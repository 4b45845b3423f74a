package model

import "strings"

// Role is the permission level the backend assigns to a bearer.  It drives
// which route table the portal mounts for a request.
type Role string

const (
	RoleAluno     Role = "ALUNO"     // student
	RoleProfessor Role = "PROFESSOR" // professor
	RoleGestao    Role = "GESTAO"    // school management

	// RoleNone means unauthenticated or undetermined.  It is never a fourth
	// role and no route table is registered for it.
	RoleNone Role = ""
)

// Roles lists every assignable role in a stable order.
var Roles = []Role{RoleAluno, RoleGestao, RoleProfessor}

// ParseRole maps a backend permission string onto a Role.  Unknown values
// collapse to RoleNone.
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAluno, RoleProfessor, RoleGestao:
		return r
	}
	return RoleNone
}

// Valid reports whether r is one of the three assignable roles.
func (r Role) Valid() bool { return ParseRole(string(r)) == r && r != RoleNone }

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
