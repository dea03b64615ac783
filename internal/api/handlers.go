package api

import (
	"fmt"
	"net/http"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/ledger"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listStandards(r *http.Request) (*Response, error) {
	return ok(s.svc.Standards().All())
}

func (s *Server) getForms(r *http.Request) (*Response, error) {
	id := chi.URLParam(r, "standard")
	std, found := s.svc.Standards().Get(id)
	if !found {
		return nil, apperrors.NotFound("standard %s not found", id)
	}
	return ok(std.Forms())
}

func (s *Server) createTenant(r *http.Request) (*Response, error) {
	var in ledger.TenantInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	t, err := s.svc.CreateTenant(r.Context(), userOf(r), in)
	if err != nil {
		return nil, err
	}
	return created(fmt.Sprintf("%s/tenants/%d", BasePath, t.ID), t)
}

func (s *Server) listTenants(r *http.Request) (*Response, error) {
	tenants, err := s.svc.ListTenants(r.Context(), userOf(r))
	if err != nil {
		return nil, err
	}
	return ok(tenants)
}

func (s *Server) getTenant(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	t, err := s.svc.GetTenant(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(t)
}

func (s *Server) deleteTenant(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteTenant(r.Context(), userOf(r), id); err != nil {
		return nil, err
	}
	return noContent()
}

func (s *Server) listMembers(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	members, err := s.svc.ListMembers(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(members)
}

func (s *Server) addMember(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	var in ledger.MemberInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	tu, err := s.svc.AddMember(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return created(fmt.Sprintf("%s/tenants/%d/members/%s", BasePath, id, tu.UserID), tu)
}

func (s *Server) removeMember(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	if err := s.svc.RemoveMember(r.Context(), userOf(r), id, chi.URLParam(r, "userID")); err != nil {
		return nil, err
	}
	return noContent()
}

func (s *Server) listProjects(r *http.Request) (*Response, error) {
	id, err := idParam(r, "tenantID")
	if err != nil {
		return nil, err
	}
	projects, err := s.svc.GetProjectsByTenant(r.Context(), userOf(r), id, r.URL.Query().Get("standard"))
	if err != nil {
		return nil, err
	}
	return ok(projects)
}

func (s *Server) createProject(r *http.Request) (*Response, error) {
	var in ledger.ProjectInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	p, err := s.svc.CreateProject(r.Context(), userOf(r), in)
	if err != nil {
		return nil, err
	}
	return created(fmt.Sprintf("%s/projects/%d", BasePath, p.ID), p)
}

func (s *Server) getProject(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	p, err := s.svc.GetProject(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(p)
}

func (s *Server) updateProject(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	var in ledger.ProjectUpdate
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	p, err := s.svc.UpdateProject(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return ok(p)
}

func (s *Server) deleteProject(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteProject(r.Context(), userOf(r), id); err != nil {
		return nil, err
	}
	return noContent()
}

func (s *Server) setProjectStatus(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	var in ledger.StatusInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	p, err := s.svc.SetProjectStatus(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return ok(p)
}

func (s *Server) listEntries(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	entries, err := s.svc.ListEntries(r.Context(), userOf(r), id, chi.URLParam(r, "step"))
	if err != nil {
		return nil, err
	}
	return ok(entries)
}

func (s *Server) createEntry(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	step := chi.URLParam(r, "step")
	data := map[string]interface{}{}
	if err := decodeBody(r, &data); err != nil {
		return nil, err
	}
	a, err := s.svc.CreateEntry(r.Context(), userOf(r), id, step, data)
	if err != nil {
		return nil, err
	}
	return created(fmt.Sprintf("%s/projects/%d/steps/%s/%d", BasePath, id, step, a.ID), a)
}

func (s *Server) getEntry(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	entryID, err := idParam(r, "entryID")
	if err != nil {
		return nil, err
	}
	a, err := s.svc.GetEntry(r.Context(), userOf(r), id, chi.URLParam(r, "step"), entryID)
	if err != nil {
		return nil, err
	}
	return ok(a)
}

func (s *Server) updateEntry(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	entryID, err := idParam(r, "entryID")
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := decodeBody(r, &data); err != nil {
		return nil, err
	}
	a, err := s.svc.UpdateEntry(r.Context(), userOf(r), id, chi.URLParam(r, "step"), entryID, data)
	if err != nil {
		return nil, err
	}
	return ok(a)
}

func (s *Server) deleteEntry(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	entryID, err := idParam(r, "entryID")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteEntry(r.Context(), userOf(r), id, chi.URLParam(r, "step"), entryID); err != nil {
		return nil, err
	}
	return noContent()
}

func (s *Server) listCalculations(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	rows, err := s.svc.ListCalculations(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(rows)
}

func (s *Server) createCalculation(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	var in ledger.CalculationInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	c, err := s.svc.CreateCalculation(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return created(fmt.Sprintf("%s/calculations/%d", BasePath, c.ID), c)
}

func (s *Server) getCalculation(r *http.Request) (*Response, error) {
	id, err := idParam(r, "calculationID")
	if err != nil {
		return nil, err
	}
	c, err := s.svc.GetCalculation(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(c)
}

func (s *Server) updateCalculation(r *http.Request) (*Response, error) {
	id, err := idParam(r, "calculationID")
	if err != nil {
		return nil, err
	}
	var in ledger.CalculationInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	c, err := s.svc.UpdateCalculation(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return ok(c)
}

func (s *Server) deleteCalculation(r *http.Request) (*Response, error) {
	id, err := idParam(r, "calculationID")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteCalculation(r.Context(), userOf(r), id); err != nil {
		return nil, err
	}
	return noContent()
}

func (s *Server) calculate(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	var in ledger.CalculateInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	res, err := s.svc.Calculate(r.Context(), userOf(r), id, in)
	if err != nil {
		return nil, err
	}
	return ok(res)
}

func (s *Server) getSummary(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	ps, err := s.svc.GetSummary(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(ps)
}

func (s *Server) recalculateSummary(r *http.Request) (*Response, error) {
	id, err := idParam(r, "projectID")
	if err != nil {
		return nil, err
	}
	ps, err := s.svc.RecalculateSummary(r.Context(), userOf(r), id)
	if err != nil {
		return nil, err
	}
	return ok(ps)
}
