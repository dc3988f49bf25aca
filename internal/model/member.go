package model

import "fmt"

// Category partitions the fragments of a type definition. The declaration
// order of the constants is the render order.
type Category int

const (
	// CategoryNestedType holds package-level type declarations owned by the type.
	CategoryNestedType Category = iota
	// CategoryField holds struct fields.
	CategoryField
	// CategoryConstructor holds constructor functions.
	CategoryConstructor
	// CategoryProperty holds accessor methods.
	CategoryProperty
	// CategoryNotification holds notification point accessors.
	CategoryNotification
	// CategoryMethod holds methods and package-level functions.
	CategoryMethod
)

// Categories returns every category in render order.
func Categories() []Category {
	return []Category{
		CategoryNestedType,
		CategoryField,
		CategoryConstructor,
		CategoryProperty,
		CategoryNotification,
		CategoryMethod,
	}
}

var categoryHeadings = map[Category]string{
	CategoryNestedType:   "Nested Types",
	CategoryField:        "Fields",
	CategoryConstructor:  "Constructors",
	CategoryProperty:     "Properties",
	CategoryNotification: "Notifications",
	CategoryMethod:       "Methods",
}

// Heading is the region title rendered above the category.
func (c Category) Heading() string {
	if heading, ok := categoryHeadings[c]; ok {
		return heading
	}

	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) String() string {
	return c.Heading()
}

// MemberKey identifies a fragment inside its category. Discriminator is empty
// for name-keyed categories; methods use the parameter list and nested types
// the kind keyword so overloads and same-named kinds coexist.
type MemberKey struct {
	Name          string
	Discriminator string
}

// Less orders keys by name, then discriminator.
func (k MemberKey) Less(other MemberKey) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}

	return k.Discriminator < other.Discriminator
}

func (k MemberKey) String() string {
	if k.Discriminator == "" {
		return k.Name
	}

	return k.Name + "(" + k.Discriminator + ")"
}

// Fragment is a caller-supplied member definition stored verbatim.
type Fragment struct {
	Category Category
	Key      MemberKey
	Text     string
}
