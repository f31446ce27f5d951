package dhis2

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"
)

// AttributeLabels returns a display-label map for a program's tracked
// entity attributes. Label preference is displayName, then shortName,
// name, and code; an attribute with none of them maps to its own id.
func (c *Client) AttributeLabels(ctx context.Context, programID string) (map[string]string, error) {
	params := url.Values{
		"fields": {"programTrackedEntityAttributes[trackedEntityAttribute[id,displayName,shortName,code,name]]"},
	}

	var resp struct {
		ProgramTrackedEntityAttributes []struct {
			TrackedEntityAttribute struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
				ShortName   string `json:"shortName"`
				Name        string `json:"name"`
				Code        string `json:"code"`
			} `json:"trackedEntityAttribute"`
		} `json:"programTrackedEntityAttributes"`
	}
	if err := c.get(ctx, "/programs/"+programID, params, &resp); err != nil {
		return nil, eris.Wrapf(err, "dhis2: attribute labels for program %s", programID)
	}

	labels := make(map[string]string, len(resp.ProgramTrackedEntityAttributes))
	for _, entry := range resp.ProgramTrackedEntityAttributes {
		attr := entry.TrackedEntityAttribute
		if attr.ID == "" {
			continue
		}
		labels[attr.ID] = attr.ID
		for _, candidate := range []string{attr.DisplayName, attr.ShortName, attr.Name, attr.Code} {
			if candidate != "" {
				labels[attr.ID] = candidate
				break
			}
		}
	}
	return labels, nil
}
