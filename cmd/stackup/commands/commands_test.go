package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolsen/snap-openstack-sub000/internal/app/destroy"
)

func TestParseUnitPlacements(t *testing.T) {
	tests := map[string]struct {
		specs  []string
		expRes []destroy.UnitPlacement
		expErr bool
	}{
		"workload=machine should parse": {
			specs:  []string{"nova=3", "glance=0"},
			expRes: []destroy.UnitPlacement{{Workload: "nova", Machine: "3"}, {Workload: "glance", Machine: "0"}},
		},
		"No specs should parse to nothing": {
			specs:  nil,
			expRes: []destroy.UnitPlacement{},
		},
		"Missing machine should fail": {
			specs:  []string{"nova="},
			expErr: true,
		},
		"Missing separator should fail": {
			specs:  []string{"nova/3"},
			expErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := parseUnitPlacements(tc.specs)

			if tc.expErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expRes, res)
		})
	}
}
