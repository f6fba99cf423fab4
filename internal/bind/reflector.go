package bind

// Query selects one resolution tier of a field-or-property lookup.
type Query struct {
	Name       string
	Kind       MemberKind
	Visibility Visibility
	Static     bool
}

// Reflector finds members of target types.
type Reflector interface {
	// FindMember returns the field or property that matches q exactly.
	FindMember(target TypeRef, q Query) (FieldOrProp, bool)

	// FindMethods returns every method of target and every function of
	// target's package named name, in a stable order.
	FindMethods(target TypeRef, name string) []*Method

	// SameType reports type identity by fully qualified name.
	SameType(a, b TypeRef) bool
}

// tier is one entry of the ordered member lookup.
type tier struct {
	kind   MemberKind
	vis    Visibility
	static bool
}

// lookupOrder lists the tiers tried by findFieldOrProp, first match wins:
// exported before unexported, properties before fields, instance members
// before package-level ones.
var lookupOrder = []tier{
	{KindProperty, Exported, false},
	{KindField, Exported, false},
	{KindProperty, Exported, true},
	{KindField, Exported, true},
	{KindProperty, Unexported, false},
	{KindField, Unexported, false},
	{KindProperty, Unexported, true},
	{KindField, Unexported, true},
}

func findFieldOrProp(r Reflector, target TypeRef, name string) (FieldOrProp, bool) {
	for _, t := range lookupOrder {
		q := Query{Name: name, Kind: t.kind, Visibility: t.vis, Static: t.static}
		if m, ok := r.FindMember(target, q); ok {
			return m, true
		}
	}
	return nil, false
}

// SameTypeName is a Reflector.SameType implementation comparing full names.
func SameTypeName(a, b TypeRef) bool {
	return a.FullName() == b.FullName()
}
