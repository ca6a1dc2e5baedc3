// Package inputs defines the GraphQL input objects accepted by mutations and
// queries together with the validation schemas resolvers parse them with.
package inputs

import (
	"talawa-graphql/internal/scalars"
	"talawa-graphql/internal/tables"
	"talawa-graphql/internal/validation"

	"github.com/graphql-go/graphql"
)

// createUserOmitted are users columns a client may never set directly.
var createUserOmitted = []string{
	"id",
	"passwordHash",
	"creatorId",
	"updaterId",
	"createdAt",
	"updatedAt",
	"avatarName",
	"avatarMimeType",
}

var createUserDescriptions = map[string]string{
	"addressLine1":           "Address line 1 of the user's address.",
	"addressLine2":           "Address line 2 of the user's address.",
	"avatar":                 "Avatar of the user.",
	"birthDate":              "Date of birth of the user.",
	"city":                   "Name of the city where the user resides in.",
	"countryCode":            "Country code of the country the user is a citizen of.",
	"description":            "Custom information about the user.",
	"educationGrade":         "Primary education grade of the user.",
	"emailAddress":           "Email address of the user.",
	"employmentStatus":       "Employment status of the user.",
	"homePhoneNumber":        "The phone number to use to communicate with the user at their home.",
	"isEmailAddressVerified": "Boolean to tell whether the user has verified their email address.",
	"maritalStatus":          "Marital status of the user.",
	"mobilePhoneNumber":      "The phone number to use to communicate with the user on their mobile phone.",
	"name":                   "Name of the user.",
	"natalSex":               "The sex assigned to the user at their birth.",
	"password":               "Password of the user to sign in to the application.",
	"postalCode":             "Postal code of the user.",
	"role":                   "Role assigned to the user in the application.",
	"state":                  "Name of the state the user resides in.",
	"workPhoneNumber":        "The phone number to use to communicate with the user while they're at work.",
}

// CreateUserSchema is the users insert schema minus server-owned columns,
// plus the avatar upload and plaintext password.
var CreateUserSchema = tables.Users.InsertSchema().
	Omit(createUserOmitted...).
	Extend(
		validation.Field{Name: "avatar", Kind: validation.KindUpload, Type: scalars.Upload},
		validation.Field{Name: "password", Kind: validation.KindString, Required: true, MinLength: 1, MaxLength: 64, Type: graphql.String},
	).
	Describe(createUserDescriptions)

// MutationCreateUserInput is the input of the createUser mutation.
var MutationCreateUserInput = CreateUserSchema.InputObject("MutationCreateUserInput", "")
