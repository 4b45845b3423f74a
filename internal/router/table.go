package router

import (
	"strings"

	"github.com/iliyamo/school-portal/internal/handler"
	"github.com/iliyamo/school-portal/internal/model"
)

// Route binds a portal path to the view it renders.
type Route struct {
	Path string
	View handler.View
}

// Table is the static role→routes mapping the gate consults once per
// request.  Exactly one entry is mounted for a resolved role; RoleNone has no
// entry.  /home exists for every role but renders a role-specific view.
var Table = map[model.Role][]Route{
	model.RoleAluno: {
		{Path: "/home", View: handler.View{Name: "aluno.home", Title: "Início", Source: "/avisos"}},
		{Path: "/grade", View: handler.View{Name: "aluno.grade", Title: "Grade horária", Source: "/grade"}},
		{Path: "/notas", View: handler.View{Name: "aluno.notas", Title: "Minhas notas", Source: "/notas"}},
	},
	model.RoleGestao: {
		{Path: "/home", View: handler.View{Name: "gestao.home", Title: "Início", Source: "/avisos"}},
		{Path: "/conteudo", View: handler.View{Name: "gestao.conteudo", Title: "Conteúdo", Source: "/conteudos"}},
		{Path: "/usuarios", View: handler.View{Name: "gestao.usuarios", Title: "Usuários", Source: "/usuarios"}},
		{Path: "/monitoramento", View: handler.View{Name: "gestao.monitoramento", Title: "Monitoramento", Source: "/turmas"}},
		{Path: "/monitoramento/notas/:id", View: handler.View{Name: "gestao.turma.notas", Title: "Notas da turma", Source: "/turmas/:id/notas"}},
	},
	model.RoleProfessor: {
		{Path: "/home", View: handler.View{Name: "professor.home", Title: "Início", Source: "/avisos"}},
		{Path: "/conteudo", View: handler.View{Name: "professor.conteudo", Title: "Meus conteúdos", Source: "/conteudos"}},
		{Path: "/monitoramento/notas/:id", View: handler.View{Name: "professor.turma.notas", Title: "Notas da turma", Source: "/turmas/:id/notas"}},
	},
}

// PathsFor lists the paths mounted for role in table order.
func PathsFor(role model.Role) []string {
	routes := Table[role]
	out := make([]string, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.Path)
	}
	return out
}

// protectedPaths is the union of every table's paths, each once.
func protectedPaths() []string {
	seen := map[string]bool{}
	var out []string
	for _, role := range model.Roles {
		for _, p := range PathsFor(role) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// navFor returns the links shown in the navigation bar for role.  Routes
// with parameters are reached from other pages and are left out.
func navFor(role model.Role) []handler.NavLink {
	var out []handler.NavLink
	for _, r := range Table[role] {
		if strings.Contains(r.Path, ":") {
			continue
		}
		out = append(out, handler.NavLink{Path: r.Path, Title: r.View.Title})
	}
	return out
}
