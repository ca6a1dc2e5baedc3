package scalars

import (
	"testing"
	"time"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScalar(t *testing.T) {
	input := time.Date(1994, 7, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "1994-07-15", Date.Serialize(input))
	assert.Nil(t, Date.Serialize((*time.Time)(nil)))

	parsed := Date.ParseValue("2001-02-03")
	require.IsType(t, time.Time{}, parsed)
	assert.Equal(t, "2001-02-03", parsed.(time.Time).Format("2006-01-02"))

	assert.Nil(t, Date.ParseValue("2001-02-30"))
	assert.Nil(t, Date.ParseValue("03/02/2001"))
	assert.Nil(t, Date.ParseValue(42))

	literal := Date.ParseLiteral(&ast.StringValue{Value: "2020-12-31"})
	require.IsType(t, time.Time{}, literal)
	assert.Nil(t, Date.ParseLiteral(&ast.IntValue{Value: "2020"}))
}

func TestEmailAddressScalar(t *testing.T) {
	assert.Equal(t, "ada@example.org", EmailAddress.ParseValue("ada@example.org"))
	assert.Equal(t, "ada@example.org", EmailAddress.ParseValue("  ada@example.org "))
	assert.Nil(t, EmailAddress.ParseValue("not-an-email"))
	assert.Nil(t, EmailAddress.ParseValue("a@-bad-.org"))
	assert.Nil(t, EmailAddress.ParseValue(7))

	assert.Equal(t, "x@y.io", EmailAddress.ParseLiteral(&ast.StringValue{Value: "x@y.io"}))
	assert.Nil(t, EmailAddress.ParseLiteral(&ast.StringValue{Value: "x@"}))
}

func TestPhoneNumberScalar(t *testing.T) {
	assert.Equal(t, "+14155550100", PhoneNumber.ParseValue("+14155550100"))
	assert.Nil(t, PhoneNumber.ParseValue("4155550100"))
	assert.Nil(t, PhoneNumber.ParseValue("+0123456789"))
	assert.Nil(t, PhoneNumber.ParseValue("+1415"))
	assert.True(t, IsPhoneNumber("+919876543210"))
}

func TestUploadScalar(t *testing.T) {
	upload := &FileUpload{Filename: "me.png", MimeType: "image/png", Size: 12}
	assert.Same(t, upload, Upload.ParseValue(upload))

	byValue := Upload.ParseValue(FileUpload{Filename: "me.webp", MimeType: "image/webp"})
	require.IsType(t, &FileUpload{}, byValue)
	assert.Equal(t, "image/webp", byValue.(*FileUpload).MimeType)

	assert.Nil(t, Upload.ParseValue("me.png"))
	assert.Nil(t, Upload.ParseLiteral(&ast.StringValue{Value: "me.png"}))
	assert.Nil(t, Upload.Serialize(upload))
}
