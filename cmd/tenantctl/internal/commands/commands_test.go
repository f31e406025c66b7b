package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenanthub/internal/app/system/tokens"
	"github.com/stretchr/testify/require"
)

func TestTokenCmd(t *testing.T) {
	var out bytes.Buffer
	g := &Globals{JWTSecret: "test-secret-test-secret-test-secret", JWTExpiration: time.Hour, Out: &out}
	cmd := &TokenCmd{AdminID: "a1", OrgID: "o1", Email: "owner@acme.test", TTL: 5 * time.Minute}

	require.NoError(t, cmd.Run(context.Background(), g))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "expires "))

	codec, err := tokens.NewCodec([]byte(g.JWTSecret), time.Hour)
	require.NoError(t, err)
	id, ok := codec.Validate(lines[0])
	require.True(t, ok)
	require.Equal(t, "a1", id.AdminID)
	require.Equal(t, "o1", id.OrganizationID)
	require.Equal(t, "owner@acme.test", id.Email)
}

func TestTokenCmd_RequiresSecret(t *testing.T) {
	g := &Globals{Out: &bytes.Buffer{}}
	err := (&TokenCmd{AdminID: "a", OrgID: "o", Email: "e@x.com"}).Run(context.Background(), g)
	require.Error(t, err)
}

func TestPrintSweep(t *testing.T) {
	tests := []struct {
		name    string
		res     lifecycle.SweepResult
		dryRun  bool
		want    []string
		wantErr bool
	}{
		{
			name: "nothing found",
			want: []string{"no orphaned collections"},
		},
		{
			name:   "dry run",
			res:    lifecycle.SweepResult{Orphans: []string{"org_a"}},
			dryRun: true,
			want:   []string{"org_a", "would drop"},
		},
		{
			name: "all dropped",
			res:  lifecycle.SweepResult{Orphans: []string{"org_a"}, Dropped: []string{"org_a"}},
			want: []string{"org_a", "dropped"},
		},
		{
			name:    "partial",
			res:     lifecycle.SweepResult{Orphans: []string{"org_a", "org_b"}, Dropped: []string{"org_a"}},
			want:    []string{"org_b", "kept"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := printSweep(&Globals{Out: &out}, tt.res, tt.dryRun)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.want {
				require.Contains(t, out.String(), s)
			}
		})
	}
}
