package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

func TestAll(t *testing.T) {
	codes := All()

	require.Len(t, codes, len(listingPrefixes)*1000)
	assert.Equal(t, "600000", codes[0])
	assert.Contains(t, codes, "000001")
	assert.Contains(t, codes, "300750")
	assert.Contains(t, codes, "688999")

	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		require.NoError(t, ValidCode(c))
		require.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
}

func TestValidCode(t *testing.T) {
	assert.NoError(t, ValidCode("600519"))
	assert.ErrorIs(t, ValidCode("60051"), contracts.ErrInvalidCode)
	assert.ErrorIs(t, ValidCode("sh6005"), contracts.ErrInvalidCode)
	assert.ErrorIs(t, ValidCode("60051a"), contracts.ErrInvalidCode)
}

func TestParseCodes(t *testing.T) {
	codes, err := ParseCodes(" 600519, 000001,,300750 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"600519", "000001", "300750"}, codes)

	_, err = ParseCodes("600519,60A001")
	assert.ErrorIs(t, err, contracts.ErrInvalidCode)

	codes, err = ParseCodes(" , ")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestSegmentOf(t *testing.T) {
	tests := []struct {
		code string
		want contracts.Segment
	}{
		{"600519", contracts.SegmentMainSH},
		{"605499", contracts.SegmentMainSH},
		{"000001", contracts.SegmentMainSZ},
		{"002594", contracts.SegmentMainSZ},
		{"300750", contracts.SegmentChiNext},
		{"301236", contracts.SegmentChiNext},
		{"688981", contracts.SegmentSTAR},
		{"83", contracts.SegmentUnknown},
		{"830799", contracts.SegmentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentOf(tt.code))
		})
	}
}

func TestLimitPriceAndPct(t *testing.T) {
	assert.Equal(t, 10.0, LimitPct(contracts.SegmentMainSH))
	assert.Equal(t, 20.0, LimitPct(contracts.SegmentSTAR))

	assert.Equal(t, 11.0, LimitPrice(10, 10))
	assert.Equal(t, 13.55, LimitPrice(12.32, 10))
	assert.Equal(t, 24.0, LimitPrice(20, 20))
	// 浮点直接计算会得到 10.06
	assert.Equal(t, 10.07, LimitPrice(9.15, 10))
}

func TestApplyPct(t *testing.T) {
	assert.Equal(t, 10.14, ApplyPct(10.40, -2.5))
	assert.Equal(t, 9.80, ApplyPct(10, -2))
	assert.Equal(t, 10.30, ApplyPct(10, 3))
	assert.Equal(t, 1.01, RoundTick(1.005))
	assert.Equal(t, 12.35, RoundTick(12.345))
}

func TestReferenceIndex(t *testing.T) {
	assert.Equal(t, IndexShanghai, ReferenceIndex(contracts.SegmentMainSH))
	assert.Equal(t, IndexShanghai, ReferenceIndex(contracts.SegmentSTAR))
	assert.Equal(t, IndexShenzhen, ReferenceIndex(contracts.SegmentMainSZ))
	assert.Equal(t, IndexChiNext, ReferenceIndex(contracts.SegmentChiNext))
}

func TestSymbolAndSecID(t *testing.T) {
	assert.Equal(t, "sh600519", Symbol("600519"))
	assert.Equal(t, "sz000001", Symbol("000001"))
	assert.Equal(t, "sh000001", Symbol("sh000001"))

	assert.Equal(t, "1.600519", SecID("600519"))
	assert.Equal(t, "0.300750", SecID("300750"))
	assert.Equal(t, "1.000001", SecID(IndexShanghai))
	assert.Equal(t, "0.399006", SecID(IndexChiNext))
}

func TestBatches(t *testing.T) {
	codes := []string{"a", "b", "c", "d", "e"}

	batches := Batches(codes, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"e"}, batches[2])

	assert.Len(t, Batches(codes, 10), 1)
	assert.Empty(t, Batches(nil, 10))
}
