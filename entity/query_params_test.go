package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryParamsPagination(t *testing.T) {
	cases := []struct {
		name   string
		params QueryParams
		offset int
		limit  int
	}{
		{name: "zero value", params: QueryParams{}, offset: 0, limit: DefaultPageSize},
		{name: "third page", params: QueryParams{Page: 3, PageSize: 20}, offset: 40, limit: 20},
		{name: "negative page", params: QueryParams{Page: -2, PageSize: 5}, offset: 0, limit: 5},
		{name: "page size capped", params: QueryParams{Page: 2, PageSize: 5000}, offset: MaxPageSize, limit: MaxPageSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.offset, tc.params.GetOffset())
			assert.Equal(t, tc.limit, tc.params.GetLimit())
		})
	}
}
