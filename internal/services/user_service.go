package services

import (
	"strings"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
	"shopfront/internal/validate"
)

type UserService struct {
	Users *repos.UserRepo
}

func NewUserService(users *repos.UserRepo) *UserService { return &UserService{Users: users} }

func (s *UserService) Get(id string) (*domain.User, error) {
	u, err := s.Users.ByID(id)
	if err != nil {
		return nil, notFoundOr(err, apperr.NotFound("User with ID %s not found", id), "load user")
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of p.
func (s *UserService) UpdateProfile(id string, p domain.UserPatch) (*domain.User, error) {
	p.FirstName = trimmed(p.FirstName)
	p.LastName = trimmed(p.LastName)
	p.Email = trimmed(p.Email)
	for _, f := range []struct {
		name string
		v    *string
	}{{"first_name", p.FirstName}, {"last_name", p.LastName}, {"email", p.Email}} {
		if err := setButBlank(f.name, f.v); err != nil {
			return nil, err
		}
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		email, ok := validate.Email(*p.Email)
		if !ok {
			return nil, apperr.Validation("email", "Invalid email address")
		}
		u.Email = email
	}
	if err := s.Users.UpdateProfile(u); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("Email %s already exists", u.Email).WithCode("duplicate_email")
		}
		return nil, apperr.Database("update user", err)
	}
	return u, nil
}

func (s *UserService) List(pg Page) ([]domain.User, Pagination, error) {
	users, total, err := s.Users.List(pg.Limit(), pg.Offset())
	if err != nil {
		return nil, Pagination{}, apperr.Database("list users", err)
	}
	return users, pg.Of(total), nil
}

// SetActive toggles an account. Admins cannot lock themselves out.
func (s *UserService) SetActive(actor *domain.User, id string, active bool) (*domain.User, error) {
	if actor != nil && actor.ID == id && !active {
		return nil, apperr.Validation("user_id", "You cannot deactivate your own account")
	}
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetActive(id, active); err != nil {
		return nil, apperr.Database("set active", err)
	}
	u.IsActive = active
	return u, nil
}

// SetRole promotes or demotes an account. Admins cannot demote themselves.
func (s *UserService) SetRole(actor *domain.User, id, role string) (*domain.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != domain.RoleCustomer && role != domain.RoleAdmin {
		return nil, apperr.Validation("role", "Role must be one of: customer, admin")
	}
	if actor != nil && actor.ID == id && role != domain.RoleAdmin {
		return nil, apperr.Validation("user_id", "You cannot remove your own admin role")
	}
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRole(id, role); err != nil {
		return nil, apperr.Database("set role", err)
	}
	u.Role = role
	return u, nil
}

// Delete removes the account. Open orders are cancelled and restocked first.
func (s *UserService) Delete(actor *domain.User, id string) error {
	if actor != nil && actor.ID == id {
		return apperr.Validation("user_id", "You cannot delete your own account")
	}
	err := s.Users.DeleteCascade(id)
	return notFoundOr(err, apperr.NotFound("User with ID %s not found", id), "delete user")
}
