package dhis2

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const defaultEntityFields = "trackedEntity,orgUnit,createdAt,updatedAt,geometry," +
	"attributes[attribute,value,valueType]"

// EntityQuery scopes a tracked-entity page stream.
type EntityQuery struct {
	Program  string
	OrgUnit  string
	OuMode   string // defaults to DESCENDANTS
	PageSize int    // defaults to 1000
	Fields   string
}

// EntityPager iterates tracked-entity pages.
type EntityPager struct {
	c    *Client
	q    EntityQuery
	page int
	done bool
}

// TrackedEntities returns a pager over the tracked entities matching the
// query.
func (c *Client) TrackedEntities(q EntityQuery) *EntityPager {
	if q.OuMode == "" {
		q.OuMode = "DESCENDANTS"
	}
	if q.PageSize == 0 {
		q.PageSize = 1000
	}
	if q.Fields == "" {
		q.Fields = defaultEntityFields
	}
	return &EntityPager{c: c, q: q}
}

// Next fetches the next page of tracked entities. A nil slice signals
// the end of the stream.
func (p *EntityPager) Next(ctx context.Context) ([]TrackedEntity, error) {
	if p.done {
		return nil, nil
	}
	p.page++

	params := url.Values{
		"program":  {p.q.Program},
		"orgUnit":  {p.q.OrgUnit},
		"ouMode":   {p.q.OuMode},
		"page":     {strconv.Itoa(p.page)},
		"pageSize": {strconv.Itoa(p.q.PageSize)},
		"fields":   {p.q.Fields},
	}

	var resp struct {
		TrackedEntities []TrackedEntity `json:"trackedEntities"`
		Pager           *Pager          `json:"pager"`
	}
	if err := p.c.get(ctx, "/tracker/trackedEntities", params, &resp); err != nil {
		return nil, eris.Wrapf(err, "dhis2: tracked entities page %d", p.page)
	}

	if len(resp.TrackedEntities) == 0 {
		p.done = true
		return nil, nil
	}
	if resp.Pager == nil || p.page >= resp.Pager.PageCount {
		p.done = true
	}
	return resp.TrackedEntities, nil
}
