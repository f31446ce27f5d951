package dhis2

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const defaultEventFields = "event,trackedEntity,programStage,status,orgUnit,orgUnitName," +
	"eventDate,occurredAt,storedBy,created,lastUpdated,geometry,coordinate," +
	"dataValues[dataElement,value]"

// EventQuery scopes an event page stream.
type EventQuery struct {
	Program  string
	OrgUnit  string
	OuMode   string // defaults to DESCENDANTS
	PageSize int    // defaults to 200
	Fields   string
}

// EventPager iterates event pages until the server reports the last page
// or returns an empty one.
type EventPager struct {
	c    *Client
	q    EventQuery
	page int
	done bool
}

// Events returns a pager over the events matching the query.
func (c *Client) Events(q EventQuery) *EventPager {
	if q.OuMode == "" {
		q.OuMode = "DESCENDANTS"
	}
	if q.PageSize == 0 {
		q.PageSize = 200
	}
	if q.Fields == "" {
		q.Fields = defaultEventFields
	}
	return &EventPager{c: c, q: q}
}

// Next fetches the next page of events. A nil slice signals the end of
// the stream.
func (p *EventPager) Next(ctx context.Context) ([]Event, error) {
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
		Events []Event `json:"events"`
		Pager  *Pager  `json:"pager"`
	}
	if err := p.c.get(ctx, "/events", params, &resp); err != nil {
		return nil, eris.Wrapf(err, "dhis2: events page %d", p.page)
	}

	if len(resp.Events) == 0 {
		p.done = true
		return nil, nil
	}
	// Without a pager, or on the reported last page, stop after this one.
	if resp.Pager == nil || p.page >= resp.Pager.PageCount {
		p.done = true
	}
	return resp.Events, nil
}
