package dataset

// Attr is a single text attribute.
type Attr struct {
	Name  string
	Value string
}

// Attributes is an ordered attribute list. Setting an existing name replaces
// its value in place.
type Attributes []Attr

// Set adds or replaces an attribute.
func (a *Attributes) Set(name, value string) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attr{Name: name, Value: value})
}

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (string, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return "", false
}

// Names returns attribute names in order.
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, at := range a {
		names[i] = at.Name
	}
	return names
}
