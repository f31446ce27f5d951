package dhis2

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const orgUnitFields = "id,name,geometry,coordinates,ancestors[id]"

// OrgUnitsByAncestor fetches every organisation unit underneath the
// given ancestor in one unpaged request.
func (c *Client) OrgUnitsByAncestor(ctx context.Context, ancestorID string) ([]OrgUnit, error) {
	params := url.Values{
		"paging": {"false"},
		"fields": {orgUnitFields},
		"filter": {"ancestors.id:eq:" + ancestorID},
	}
	units, err := c.orgUnits(ctx, params)
	if err != nil {
		return nil, eris.Wrapf(err, "dhis2: org units under %s", ancestorID)
	}
	return units, nil
}

// OrgUnitsByID fetches specific organisation units by id.
func (c *Client) OrgUnitsByID(ctx context.Context, ids []string) ([]OrgUnit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{
		"paging": {"false"},
		"fields": {"id,name,geometry,coordinates"},
		"filter": {"id:in:[" + strings.Join(ids, ",") + "]"},
	}
	units, err := c.orgUnits(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "dhis2: org units by id")
	}
	return units, nil
}

func (c *Client) orgUnits(ctx context.Context, params url.Values) ([]OrgUnit, error) {
	var resp struct {
		OrganisationUnits []OrgUnit `json:"organisationUnits"`
	}
	if err := c.get(ctx, "/organisationUnits", params, &resp); err != nil {
		return nil, err
	}
	return resp.OrganisationUnits, nil
}
