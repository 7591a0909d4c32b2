package httpserver

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/validation"
)

func TestParsePage(t *testing.T) {
	page, err := parsePage(url.Values{"limit": {"10"}, "offset": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, repository.Page{Limit: 10, Offset: 20}, page)

	page, err = parsePage(url.Values{})
	require.NoError(t, err)
	assert.Zero(t, page)

	_, err = parsePage(url.Values{"offset": {"-1"}})
	assert.Error(t, err)
	_, err = parsePage(url.Values{"limit": {"x"}})
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate(nil)
	require.NoError(t, err)
	assert.Nil(t, d)

	raw := "1970-07-30"
	d, err = parseDate(&raw)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, raw, *formatDate(d))

	bad := "30/07/1970"
	_, err = parseDate(&bad)
	assert.Error(t, err)
}

func TestRatingOutcome(t *testing.T) {
	type sample struct {
		Value int `validate:"min=1"`
	}
	assert.Equal(t, "invalid", ratingOutcome(validation.Struct(sample{})))
	assert.Equal(t, "conflict", ratingOutcome(fmt.Errorf("%w: ratings_movie_id_user_id_key", repository.ErrConflict)))
	assert.Equal(t, "not_found", ratingOutcome(repository.ErrNotFound))
	assert.Equal(t, "error", ratingOutcome(errors.New("boom")))
}
