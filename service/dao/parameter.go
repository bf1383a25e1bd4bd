package dao

// Parameter is a list filter, e.g. NewParameter("State", "running", "finished").
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// StateParameter returns the "State" filter understood by criteria.FilterByState.
func StateParameter(states ...string) *Parameter {
	return NewParameter("State", states...)
}
