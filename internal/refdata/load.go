package refdata

import (
	"context"
	"fmt"

	"github.com/roach88/casesync/internal/remote"
)

// Load fetches the org-unit and role-type datasets and builds Tables.
// A truncated dataset is returned as is (wrapped); reference data must be
// complete or the run cannot resolve import codes.
func Load(ctx context.Context, gw remote.Gateway) (*Tables, error) {
	orgUnits, err := remote.Fetch(ctx, gw, remote.OrgUnits)
	if err != nil {
		return nil, fmt.Errorf("load org units: %w", err)
	}
	roles, err := remote.Fetch(ctx, gw, remote.RoleTypes)
	if err != nil {
		return nil, fmt.Errorf("load role types: %w", err)
	}
	t, err := New(orgUnits, roles)
	if err != nil {
		return nil, fmt.Errorf("build reference data: %w", err)
	}
	return t, nil
}
