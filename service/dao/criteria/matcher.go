package criteria

import (
	"github.com/viant/jobqueue/service/dao"
)

// FilterByState returns true when state matches every "State" parameter.
// Parameters with other names are ignored; no parameters match everything.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != "State" {
			continue
		}
		if !matches(state, parameter.Value) {
			return false
		}
	}
	return true
}

func matches(state string, value interface{}) bool {
	switch actual := value.(type) {
	case string:
		return state == actual
	case []string:
		for _, s := range actual {
			if state == s {
				return true
			}
		}
		return false
	}
	return true
}
