package ledger

import (
	"context"
	"errors"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenantuser"
	"gorm.io/gorm"
)

// TenantInput is the body of a tenant creation
type TenantInput struct {
	Name           string `json:"name" validate:"required,max=255"`
	ExternalTenant string `json:"external_tenant" validate:"max=64"`
	Description    string `json:"description"`
}

// MemberInput adds a user to a tenant
type MemberInput struct {
	UserID string `json:"user_id" validate:"required,max=255"`
	Role   string `json:"role" validate:"required,oneof=owner admin member"`
}

// CreateTenant creates a tenant with the caller as its owner
func (s *Service) CreateTenant(ctx context.Context, user string, in TenantInput) (*tenant.Tenant, error) {
	glog := logOf(ctx)
	if user == "" {
		return nil, apperrors.Unauthorized("no user identity")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	t := &tenant.Tenant{Name: in.Name, ExternalTenant: in.ExternalTenant, Description: in.Description}
	err := s.tx.InTx(ctx, func(st *Store) error {
		if err := st.Tenants.Create(ctx, glog, t); err != nil {
			return apperrors.FromDB(err, "tenant")
		}
		owner := &tenantuser.TenantUser{TenantID: t.ID, UserID: user, Role: tenantuser.RoleOwner}
		if err := st.Members.Add(ctx, glog, owner); err != nil {
			return apperrors.FromDB(err, "tenant user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("Tenant %d created by %s", t.ID, user)
	return t, nil
}

// ListTenants returns the tenants the caller is a member of
func (s *Service) ListTenants(ctx context.Context, user string) ([]tenant.Tenant, error) {
	glog := logOf(ctx)
	if user == "" {
		return nil, apperrors.Unauthorized("no user identity")
	}
	st := s.tx.Store()
	members, err := st.Members.ListByUser(ctx, glog, user)
	if err != nil {
		return nil, apperrors.FromDB(err, "tenant users")
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.TenantID)
	}
	tenants, err := st.Tenants.ListByIDs(ctx, glog, ids)
	if err != nil {
		return nil, apperrors.FromDB(err, "tenants")
	}
	return tenants, nil
}

// GetTenant returns one tenant of the caller
func (s *Service) GetTenant(ctx context.Context, user string, tenantID int64) (*tenant.Tenant, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	t, err := st.Tenants.GetByID(ctx, glog, tenantID)
	if err != nil {
		return nil, apperrors.FromDB(err, "tenant")
	}
	if _, err := s.authorize(ctx, glog, st, tenantID, user); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTenant removes the tenant and everything under it, owners only
func (s *Service) DeleteTenant(ctx context.Context, user string, tenantID int64) error {
	glog := logOf(ctx)
	return s.tx.InTx(ctx, func(st *Store) error {
		if _, err := st.Tenants.GetByID(ctx, glog, tenantID); err != nil {
			return apperrors.FromDB(err, "tenant")
		}
		member, err := s.authorize(ctx, glog, st, tenantID, user)
		if err != nil {
			return err
		}
		if member.Role != tenantuser.RoleOwner {
			return apperrors.Forbidden("only owners can delete tenant %d", tenantID)
		}
		return apperrors.FromDB(st.Tenants.Delete(ctx, glog, tenantID), "tenant")
	})
}

// ListMembers returns the memberships of a tenant
func (s *Service) ListMembers(ctx context.Context, user string, tenantID int64) ([]tenantuser.TenantUser, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	if _, err := st.Tenants.GetByID(ctx, glog, tenantID); err != nil {
		return nil, apperrors.FromDB(err, "tenant")
	}
	if _, err := s.authorize(ctx, glog, st, tenantID, user); err != nil {
		return nil, err
	}
	members, err := st.Members.ListByTenant(ctx, glog, tenantID)
	if err != nil {
		return nil, apperrors.FromDB(err, "tenant users")
	}
	return members, nil
}

// AddMember adds a user to the tenant. Owners and admins may add members,
// only owners may add owners.
func (s *Service) AddMember(ctx context.Context, user string, tenantID int64, in MemberInput) (*tenantuser.TenantUser, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var tu *tenantuser.TenantUser
	err := s.tx.InTx(ctx, func(st *Store) error {
		if _, err := st.Tenants.GetByID(ctx, glog, tenantID); err != nil {
			return apperrors.FromDB(err, "tenant")
		}
		caller, err := s.authorizeManager(ctx, glog, st, tenantID, user)
		if err != nil {
			return err
		}
		if in.Role == tenantuser.RoleOwner && caller.Role != tenantuser.RoleOwner {
			return apperrors.Forbidden("only owners can add owners")
		}
		_, err = st.Members.Get(ctx, glog, tenantID, in.UserID)
		if err == nil {
			return apperrors.Conflict("user %s is already a member of tenant %d", in.UserID, tenantID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.FromDB(err, "tenant user")
		}
		tu = &tenantuser.TenantUser{TenantID: tenantID, UserID: in.UserID, Role: in.Role}
		return apperrors.FromDB(st.Members.Add(ctx, glog, tu), "tenant user")
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("User %s added to tenant %d as %s by %s", in.UserID, tenantID, in.Role, user)
	return tu, nil
}

// RemoveMember removes a user from the tenant. Owners and admins may remove
// members, any member may leave, the last owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, user string, tenantID int64, memberID string) error {
	glog := logOf(ctx)
	return s.tx.InTx(ctx, func(st *Store) error {
		if _, err := st.Tenants.GetByID(ctx, glog, tenantID); err != nil {
			return apperrors.FromDB(err, "tenant")
		}
		caller, err := s.authorize(ctx, glog, st, tenantID, user)
		if err != nil {
			return err
		}
		if memberID != user && !tenantuser.CanManage(caller.Role) {
			return apperrors.Forbidden("user %s cannot manage tenant %d", user, tenantID)
		}
		target, err := st.Members.Get(ctx, glog, tenantID, memberID)
		if err != nil {
			return apperrors.FromDB(err, "tenant user")
		}
		if target.Role == tenantuser.RoleOwner {
			if memberID != user && caller.Role != tenantuser.RoleOwner {
				return apperrors.Forbidden("only owners can remove owners")
			}
			members, err := st.Members.ListByTenant(ctx, glog, tenantID)
			if err != nil {
				return apperrors.FromDB(err, "tenant users")
			}
			owners := 0
			for _, m := range members {
				if m.Role == tenantuser.RoleOwner {
					owners++
				}
			}
			if owners <= 1 {
				return apperrors.Conflict("user %s is the last owner of tenant %d", memberID, tenantID)
			}
		}
		if err := st.Members.Remove(ctx, glog, tenantID, memberID); err != nil {
			return apperrors.FromDB(err, "tenant user")
		}
		glog.Infof("User %s removed from tenant %d by %s", memberID, tenantID, user)
		return nil
	})
}
