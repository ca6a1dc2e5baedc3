package resolver

import (
	"time"

	"github.com/graphql-go/graphql"

	"talawa-graphql/internal/enums"
	"talawa-graphql/internal/scalars"
	"talawa-graphql/internal/store"
	"talawa-graphql/internal/tables"
)

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name:   "User",
	Fields: userFields(),
})

// userFields exposes every users column except the password hash. NOT NULL
// columns are non-null in the schema.
func userFields() graphql.Fields {
	fields := graphql.Fields{}
	for _, c := range tables.Users.Columns {
		if c.SQL == "password_hash" {
			continue
		}
		out, ok := c.Field.Type.(graphql.Output)
		if !ok {
			continue
		}
		if c.Field.Required {
			out = graphql.NewNonNull(out)
		}
		fields[c.Field.Name] = &graphql.Field{Type: out, Description: c.Field.Description}
	}
	return fields
}

var organizationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Organization",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Description: "Global identifier of the organization."},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Name of the organization."},
		"countryCode": &graphql.Field{Type: enums.Iso3166Alpha2CountryCode, Description: "Country code of the country the organization exists in."},
	},
})

var postAttachmentType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PostAttachment",
	Fields: graphql.Fields{
		"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Identifier name of the attachment."},
		"mimeType":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Mime type of the attachment."},
		"creatorId": &graphql.Field{Type: graphql.ID},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(scalars.DateTime), Description: "Date time at the time the attachment was created."},
	},
})

var postType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Post",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Description: "Global identifier of the post."},
		"caption":      &graphql.Field{Type: graphql.NewNonNull(graphql.String), Description: "Caption about the post."},
		"creatorId":    &graphql.Field{Type: graphql.ID},
		"updaterId":    &graphql.Field{Type: graphql.ID},
		"pinnedAt":     &graphql.Field{Type: scalars.DateTime, Description: "Date time at the time the post was pinned."},
		"createdAt":    &graphql.Field{Type: graphql.NewNonNull(scalars.DateTime), Description: "Date time at the time the post was created."},
		"updatedAt":    &graphql.Field{Type: scalars.DateTime, Description: "Date time at the time the post was last updated."},
		"organization": &graphql.Field{Type: graphql.NewNonNull(organizationType), Description: "Organization which the post is associated to."},
		"attachments":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postAttachmentType))), Description: "Array of attachments."},
	},
})

// postPayload shapes a loaded post for the Post type, exposing its
// attachments under "attachments".
func postPayload(p *store.Post) map[string]interface{} {
	attachments := make([]interface{}, 0, len(p.Attachments))
	for _, a := range p.Attachments {
		attachments = append(attachments, map[string]interface{}{
			"name":      a.Name,
			"mimeType":  a.MimeType,
			"creatorId": stringOrNil(a.CreatorID),
			"createdAt": a.CreatedAt,
		})
	}
	return map[string]interface{}{
		"id":        p.ID,
		"caption":   p.Caption,
		"creatorId": stringOrNil(p.CreatorID),
		"updaterId": stringOrNil(p.UpdaterID),
		"pinnedAt":  timeOrNil(p.PinnedAt),
		"createdAt": p.CreatedAt,
		"updatedAt": timeOrNil(p.UpdatedAt),
		"organization": map[string]interface{}{
			"id":          p.Organization.ID,
			"name":        p.Organization.Name,
			"countryCode": stringOrNil(p.Organization.CountryCode),
		},
		"attachments": attachments,
	}
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
