package lifecycle

import (
	"context"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/dalemusser/tenanthub/internal/app/system/authutil"
	"github.com/dalemusser/tenanthub/internal/app/system/inputval"
	"github.com/dalemusser/tenanthub/internal/app/system/normalize"
	"github.com/dalemusser/tenanthub/internal/app/system/timeouts"
)

const invalidLoginMsg = "Invalid email or password"

// LoginInput is the payload of POST /admin/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,emailaddr" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// LoginResult carries an issued bearer token.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login verifies an admin's credentials and issues a token bound to the
// admin's organization. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	done := s.metrics.Record("login")
	res, err := s.login(ctx, in)
	return res, done(err)
}

func (s *Service) login(ctx context.Context, in LoginInput) (LoginResult, error) {
	const op = "lifecycle.Login"

	in.Email = normalize.Email(in.Email)
	if v := inputval.Validate(in); v.HasErrors() {
		return LoginResult{}, apierr.New(apierr.Invalid, op, v.First())
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "login")
	defer cancel()

	admin, err := s.admins.GetByEmail(ctx, in.Email)
	if err != nil {
		if isNoDocs(err) {
			authutil.EqualizeTiming(in.Password)
			return LoginResult{}, apierr.New(apierr.Unauthorized, op, invalidLoginMsg)
		}
		return LoginResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}
	if !authutil.CheckPassword(in.Password, admin.PasswordHash) {
		return LoginResult{}, apierr.New(apierr.Unauthorized, op, invalidLoginMsg)
	}

	// An admin without an organization breaks the 1:1 invariant; refuse
	// rather than issue a token bound to nothing.
	org, err := s.orgs.GetByID(ctx, admin.OrganizationID)
	if err != nil {
		if isNoDocs(err) {
			return LoginResult{}, apierr.New(apierr.NotFound, op, "Organization not found for this admin")
		}
		return LoginResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}

	tok, exp, err := s.codec.Issue(admin.ID.Hex(), org.ID.Hex(), admin.Email, 0)
	if err != nil {
		return LoginResult{}, apierr.Wrap(apierr.Internal, op, err, "")
	}
	return LoginResult{AccessToken: tok, TokenType: "bearer", ExpiresAt: exp}, nil
}
