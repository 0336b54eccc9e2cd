package coupons

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
)

type scriptedCodes struct {
	codes []string
	i     int
}

func (s *scriptedCodes) Next() string {
	code := s.codes[s.i%len(s.codes)]
	s.i++
	return code
}

func TestDrawCodesSkipsLiveAndRepeatedCodes(t *testing.T) {
	gen := &scriptedCodes{codes: []string{"1234", "1234", "5555", "1234", "7777"}}
	live := map[string]struct{}{"5555": {}}

	codes, err := drawCodes(gen, live, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234", "7777"}, codes)
	assert.Len(t, live, 3)
}

func TestDrawCodesRejectsExhaustedSpace(t *testing.T) {
	live := make(map[string]struct{}, codeSpace)
	for i := minRedemptionCode; i <= maxRedemptionCode; i++ {
		live[strconv.Itoa(i)] = struct{}{}
	}

	_, err := drawCodes(RandomCodes(), live, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRandomCodesStayInRange(t *testing.T) {
	gen := RandomCodes()
	for range 500 {
		n, err := strconv.Atoi(gen.Next())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, minRedemptionCode)
		assert.LessOrEqual(t, n, maxRedemptionCode)
	}
}

func TestNewCouponIDShape(t *testing.T) {
	id := newCouponID()
	require.True(t, strings.HasPrefix(id, "CPN-"))
	assert.Len(t, id, len("CPN-")+12)
	assert.Equal(t, strings.ToUpper(id), id)
	assert.NotEqual(t, id, newCouponID())
}

func TestChunkIDs(t *testing.T) {
	ids := make([]string, 1201)
	chunks := chunkIDs(ids)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 201)
}
