package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/jobqueue/service/dao"
)

func TestFilterByState(t *testing.T) {
	testCases := []struct {
		name       string
		state      string
		parameters []*dao.Parameter
		expect     bool
	}{
		{name: "no parameters", state: "running", expect: true},
		{name: "single match", state: "running", parameters: []*dao.Parameter{dao.StateParameter("running")}, expect: true},
		{name: "single mismatch", state: "finished", parameters: []*dao.Parameter{dao.StateParameter("running")}, expect: false},
		{name: "any of", state: "finished", parameters: []*dao.Parameter{dao.StateParameter("running", "finished")}, expect: true},
		{name: "other name ignored", state: "finished", parameters: []*dao.Parameter{dao.NewParameter("Machine", "1")}, expect: true},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, FilterByState(tc.state, tc.parameters), tc.name)
	}
}
