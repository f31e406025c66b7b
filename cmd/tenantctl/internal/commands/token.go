package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
)

type TokenCmd struct {
	AdminID string        `help:"Admin id (hex ObjectID)" required:"" name:"admin-id"`
	OrgID   string        `help:"Organization id (hex ObjectID)" required:"" name:"org-id"`
	Email   string        `help:"Admin email" required:""`
	TTL     time.Duration `help:"Token lifetime; zero uses --jwt-expiration" default:"0s"`
}

func (t *TokenCmd) Run(ctx context.Context, g *Globals) error {
	if g.JWTSecret == "" {
		return errors.New("TENANTHUB_JWT_SECRET (or --jwt-secret) is required")
	}
	codec, err := tokens.NewCodec([]byte(g.JWTSecret), g.JWTExpiration)
	if err != nil {
		return err
	}

	token, exp, err := codec.Issue(t.AdminID, t.OrgID, t.Email, t.TTL)
	if err != nil {
		return err
	}

	w := g.out()
	fmt.Fprintln(w, token)
	fmt.Fprintf(w, "expires %s\n", exp.UTC().Format(time.RFC3339))
	return nil
}
