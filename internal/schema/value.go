package schema

import "strings"

// ValueType is the semantic type of a mapped attribute, independent of any
// storage engine's physical type.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeChar    ValueType = "char"
	TypeInteger ValueType = "integer"
	TypeLong    ValueType = "long"
	TypeFloat   ValueType = "float"
	TypeDouble  ValueType = "double"
	TypeDecimal ValueType = "decimal"
	TypeBoolean ValueType = "boolean"
	TypeUUID    ValueType = "uuid"
	TypeTime    ValueType = "time"
	TypeBytes   ValueType = "bytes"
)

var valueTypeAliases = map[string]ValueType{
	"string":    TypeString,
	"text":      TypeString,
	"char":      TypeChar,
	"character": TypeChar,
	"int":       TypeInteger,
	"integer":   TypeInteger,
	"long":      TypeLong,
	"int64":     TypeLong,
	"float":     TypeFloat,
	"double":    TypeDouble,
	"float64":   TypeDouble,
	"decimal":   TypeDecimal,
	"bool":      TypeBoolean,
	"boolean":   TypeBoolean,
	"uuid":      TypeUUID,
	"time":      TypeTime,
	"timestamp": TypeTime,
	"bytes":     TypeBytes,
	"binary":    TypeBytes,
}

// ParseValueType maps a declared type name (case-insensitive, common aliases
// accepted) to a ValueType.
func ParseValueType(s string) (ValueType, bool) {
	vt, ok := valueTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return vt, ok
}

// DiscriminatorKind is the declared value kind of a discriminator column.
type DiscriminatorKind string

const (
	DiscriminatorString  DiscriminatorKind = "string"
	DiscriminatorChar    DiscriminatorKind = "char"
	DiscriminatorInteger DiscriminatorKind = "integer"
)

// ValueType returns the column type a discriminator of this kind is stored
// as. Unspecified and unrecognized kinds are strings.
func (k DiscriminatorKind) ValueType() ValueType {
	switch DiscriminatorKind(strings.ToLower(string(k))) {
	case DiscriminatorChar, "character":
		return TypeChar
	case DiscriminatorInteger, "int":
		return TypeInteger
	default:
		return TypeString
	}
}
