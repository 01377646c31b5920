package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAverageRating(t *testing.T) {
	r := Resource{RatingSum: 7, RatingCount: 3}
	assert.Equal(t, 2.33, r.ComputeAverageRating())

	r = Resource{RatingSum: 6, RatingCount: 2}
	assert.Equal(t, 3.0, r.ComputeAverageRating())

	r = Resource{RatingSum: 5, RatingCount: 1}
	assert.Equal(t, 5.0, r.ComputeAverageRating())
}

func TestComputeAverageRatingUnrated(t *testing.T) {
	r := Resource{}
	assert.Equal(t, 0.0, r.ComputeAverageRating())
}
