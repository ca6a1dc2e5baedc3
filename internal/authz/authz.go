// Package authz holds the authorization predicates shared by resolvers.
package authz

import "talawa-graphql/internal/enums"

// IsAdministrator reports whether role is the global administrator role.
func IsAdministrator(role string) bool {
	return role == enums.UserRoleAdministrator
}

// CanActOnOrganizationResource reports whether a user with the given global
// role may act on a resource owned by an organization. Administrators may act
// on any organization; everyone else needs a membership in it.
func CanActOnOrganizationResource(role string, hasMembership bool) bool {
	return IsAdministrator(role) || hasMembership
}
