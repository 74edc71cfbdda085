package mapping

import (
	"github.com/jinzhu/inflection"
	"github.com/stoewer/go-strcase"
)

// DefaultDiscriminatorColumn names a discriminator declared without a column.
const DefaultDiscriminatorColumn = "dtype"

// columnName converts a camel-case field name to snake case: litterBox -> litter_box
func columnName(fieldName string) string {
	return strcase.SnakeCase(fieldName)
}

// tableName derives a table name from a type's simple name: LitterBox -> litter_box,
// or litter_boxes when plural naming is on.
func tableName(typeName string, plural bool) string {
	name := strcase.SnakeCase(typeName)
	if plural {
		name = inflection.Plural(name)
	}
	return name
}
