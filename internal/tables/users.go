package tables

import (
	"talawa-graphql/internal/enums"
	"talawa-graphql/internal/scalars"
	"talawa-graphql/internal/validation"

	"github.com/graphql-go/graphql"
)

// Users is the users table.
var Users = Table{
	Name: "users",
	Columns: []Column{
		{SQL: "id", HasDefault: true, Field: validation.Field{Name: "id", Kind: validation.KindUUID, Required: true, Type: graphql.ID}},
		{SQL: "address_line_1", Field: text("addressLine1", 1, 1024)},
		{SQL: "address_line_2", Field: text("addressLine2", 1, 1024)},
		{SQL: "avatar_mime_type", Field: enum("avatarMimeType", enums.AvatarMimeTypeValues, graphql.String)},
		{SQL: "avatar_name", Field: text("avatarName", 1, 0)},
		{SQL: "birth_date", Field: validation.Field{Name: "birthDate", Kind: validation.KindDate, Type: scalars.Date}},
		{SQL: "city", Field: text("city", 1, 64)},
		{SQL: "country_code", Field: enum("countryCode", enums.CountryCodeValues, enums.Iso3166Alpha2CountryCode)},
		{SQL: "created_at", HasDefault: true, Field: validation.Field{Name: "createdAt", Kind: validation.KindDateTime, Required: true, Type: scalars.DateTime}},
		{SQL: "creator_id", Field: validation.Field{Name: "creatorId", Kind: validation.KindUUID, Type: graphql.ID}},
		{SQL: "description", Field: text("description", 1, 2048)},
		{SQL: "education_grade", Field: enum("educationGrade", enums.UserEducationGradeValues, enums.UserEducationGrade)},
		{SQL: "email_address", Field: validation.Field{Name: "emailAddress", Kind: validation.KindEmail, Required: true, Type: scalars.EmailAddress}},
		{SQL: "employment_status", Field: enum("employmentStatus", enums.UserEmploymentStatusValues, enums.UserEmploymentStatus)},
		{SQL: "home_phone_number", Field: phone("homePhoneNumber")},
		{SQL: "is_email_address_verified", Field: validation.Field{Name: "isEmailAddressVerified", Kind: validation.KindBoolean, Required: true, Type: graphql.Boolean}},
		{SQL: "marital_status", Field: enum("maritalStatus", enums.UserMaritalStatusValues, enums.UserMaritalStatus)},
		{SQL: "mobile_phone_number", Field: phone("mobilePhoneNumber")},
		{SQL: "name", Field: required(text("name", 1, 256))},
		{SQL: "natal_sex", Field: enum("natalSex", enums.UserNatalSexValues, enums.UserNatalSex)},
		{SQL: "password_hash", Field: required(text("passwordHash", 1, 0))},
		{SQL: "postal_code", Field: text("postalCode", 1, 32)},
		{SQL: "role", Field: required(enum("role", enums.UserRoleValues, enums.UserRole))},
		{SQL: "state", Field: text("state", 1, 64)},
		{SQL: "updated_at", Field: validation.Field{Name: "updatedAt", Kind: validation.KindDateTime, Type: scalars.DateTime}},
		{SQL: "updater_id", Field: validation.Field{Name: "updaterId", Kind: validation.KindUUID, Type: graphql.ID}},
		{SQL: "work_phone_number", Field: phone("workPhoneNumber")},
	},
}

func text(name string, minLen, maxLen int) validation.Field {
	return validation.Field{Name: name, Kind: validation.KindString, MinLength: minLen, MaxLength: maxLen, Type: graphql.String}
}

func phone(name string) validation.Field {
	return validation.Field{Name: name, Kind: validation.KindPhone, Type: scalars.PhoneNumber}
}

func enum(name string, values enums.Values, typ graphql.Input) validation.Field {
	return validation.Field{Name: name, Kind: validation.KindEnum, Enum: values, Type: typ}
}

func required(f validation.Field) validation.Field {
	f.Required = true
	return f
}
