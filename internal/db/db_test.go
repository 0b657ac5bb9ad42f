package db

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
)

func TestParseConsistency(t *testing.T) {
	cases := map[string]gocql.Consistency{
		"one":          gocql.One,
		"LOCAL_ONE":    gocql.LocalOne,
		"local_quorum": gocql.LocalQuorum,
		"ALL":          gocql.All,
		"QUORUM":       gocql.Quorum,
		"":             gocql.Quorum,
		"bogus":        gocql.Quorum,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseConsistency(in), "input %q", in)
	}
}
