// Package enums defines the enumerated value sets of the data model and their
// GraphQL enum types.
package enums

import (
	"slices"

	"github.com/graphql-go/graphql"
)

// Values is an ordered set of enum values as stored in the database.
type Values []string

// Contains reports whether v is a member of the set.
func (vs Values) Contains(v string) bool {
	return slices.Contains(vs, v)
}

const (
	UserRoleAdministrator = "administrator"
	UserRoleRegular       = "regular"

	PostVoteTypeDownVote = "down_vote"
	PostVoteTypeUpVote   = "up_vote"
)

var (
	UserRoleValues                   = Values{UserRoleAdministrator, UserRoleRegular}
	OrganizationMembershipRoleValues = Values{UserRoleAdministrator, UserRoleRegular}
	PostVoteTypeValues               = Values{PostVoteTypeDownVote, PostVoteTypeUpVote}
	UserEducationGradeValues         = Values{
		"grade_1", "grade_2", "grade_3", "grade_4", "grade_5", "grade_6",
		"grade_7", "grade_8", "grade_9", "grade_10", "grade_11", "grade_12",
		"graduate", "kg", "no_grade", "pre_kg",
	}
	UserEmploymentStatusValues = Values{"full_time", "part_time", "unemployed"}
	UserMaritalStatusValues    = Values{"divorced", "engaged", "married", "separated", "single", "widowed"}
	UserNatalSexValues         = Values{"female", "intersex", "male"}
	CountryCodeValues          = iso3166Alpha2
	AvatarMimeTypeValues       = Values{"image/avif", "image/jpeg", "image/png", "image/webp"}
)

// GraphQL enum types. Names and values are identical so stored strings
// serialize without translation.
var (
	UserRole                   = newEnum("UserRole", "Possible variants of the role assigned to a user.", UserRoleValues)
	OrganizationMembershipRole = newEnum("OrganizationMembershipRole", "Possible variants of the role assigned to a user within an organization.", OrganizationMembershipRoleValues)
	PostVoteType               = newEnum("PostVoteType", "Possible variants of the type of a vote on a post.", PostVoteTypeValues)
	UserEducationGrade         = newEnum("UserEducationGrade", "Possible variants of the education grade (if applicable) of a user.", UserEducationGradeValues)
	UserEmploymentStatus       = newEnum("UserEmploymentStatus", "Possible variants of the employment status (if applicable) of a user.", UserEmploymentStatusValues)
	UserMaritalStatus          = newEnum("UserMaritalStatus", "Possible variants of the marital status (if applicable) of a user.", UserMaritalStatusValues)
	UserNatalSex               = newEnum("UserNatalSex", "Possible variants of the sex assigned to a user at birth.", UserNatalSexValues)
	Iso3166Alpha2CountryCode   = newEnum("Iso3166Alpha2CountryCode", "Country codes as defined by ISO 3166-1 alpha-2.", CountryCodeValues)
)

func newEnum(name, description string, values Values) *graphql.Enum {
	cfg := make(graphql.EnumValueConfigMap, len(values))
	for _, v := range values {
		cfg[v] = &graphql.EnumValueConfig{Value: v}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:        name,
		Description: description,
		Values:      cfg,
	})
}
