package casa

// ValueType identifies the element type of a column. The names follow
// the CASA table descriptor vocabulary ("int", "string", ...), which
// is also how they are spelled in saved table descriptors.
type ValueType string

const (
	Bool     ValueType = "bool"
	Int      ValueType = "int"
	Float    ValueType = "float"
	Double   ValueType = "double"
	Complex  ValueType = "complex"
	DComplex ValueType = "dcomplex"
	String   ValueType = "string"
)

// Valid reports whether v is a known value type.
func (v ValueType) Valid() bool {
	switch v {
	case Bool, Int, Float, Double, Complex, DComplex, String:
		return true
	}
	return false
}

// IsNumeric reports whether the type is numeric (including complex).
func (v ValueType) IsNumeric() bool {
	return v.Valid() && v != Bool && v != String
}
