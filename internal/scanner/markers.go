package scanner

// Role is the meaning of one positional argument of an extraction marker.
type Role int

const (
	// Ignored arguments are neither extracted nor checked.
	Ignored Role = iota
	// Context disambiguates identical source strings.
	Context
	// Singular is the source text, or its singular form.
	Singular
	// Plural is the plural form of the source text.
	Plural
	// Count is the number selecting the plural form.
	Count
)

// Marker is the signature of a call that flags its arguments as translatable.
type Marker struct {
	Name string
	Args []Role
}

// DefaultMarkers are the markers recognized when a Scanner does not define its own.
var DefaultMarkers = []Marker{
	{Name: "tr", Args: []Role{Singular}},
	{Name: "marktr", Args: []Role{Singular}},
	{Name: "trc", Args: []Role{Context, Singular}},
	{Name: "marktrc", Args: []Role{Context, Singular}},
	{Name: "trn", Args: []Role{Singular, Plural, Count}},
	{Name: "trnc", Args: []Role{Context, Singular, Plural, Count}},
	{Name: "G", Args: []Role{Singular}},
	{Name: "NG", Args: []Role{Singular, Plural, Count}},
}

func (m Marker) needsLiteral(i int) bool {
	r := m.Args[i]
	return r == Context || r == Singular || r == Plural
}
