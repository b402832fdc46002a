package citation

import (
	"bytes"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Sequential(t *testing.T) {
	a := NewAllocator()
	assert.Equal(t, 1, a.Next())
	assert.Equal(t, 1, a.Allocate(3))
	assert.Equal(t, 4, a.Allocate(2))
	assert.Equal(t, 6, a.Allocate(0))
	assert.Equal(t, 6, a.Allocate(-4))
	assert.Equal(t, 6, a.Next())

	b := a.Reserve(4)
	assert.Equal(t, Block{Start: 6, Size: 4}, b)
	assert.Equal(t, 10, b.End())
	assert.Equal(t, 10, a.Next())
}

func TestAllocator_ConcurrentBlocksPartitionInterval(t *testing.T) {
	a := NewAllocator()

	const callers = 100
	blocks := make([]Block, callers)
	total := 0
	sizes := make([]int, callers)
	for i := range sizes {
		sizes[i] = rand.IntN(5) + 1
		total += sizes[i]
	}

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			blocks[i] = Block{Start: a.Allocate(sizes[i]), Size: sizes[i]}
		}(i)
	}
	wg.Wait()

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	expected := 1
	for _, b := range blocks {
		require.Equal(t, expected, b.Start, "blocks must be contiguous without overlap")
		expected = b.End()
	}
	assert.Equal(t, total+1, expected)
	assert.Equal(t, total+1, a.Next())
}

func TestBlock(t *testing.T) {
	b := Block{Start: 5, Size: 3}
	assert.True(t, b.Contains(5))
	assert.True(t, b.Contains(7))
	assert.False(t, b.Contains(8))
	assert.False(t, b.Contains(4))
	assert.Equal(t, 6, b.Number(1))
	assert.Equal(t, 2, b.Local(7))
	assert.Equal(t, -1, b.Local(9))
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"Demand fell[2][2] due to policy[5][5][5]": "Demand fell[2] due to policy[5]",
		"mixed[2][3][2]":                           "mixed[2][3]",
		"separate[1] and again[1]":                 "separate[1] and again[1]",
		"no markers":                               "no markers",
		"":                                         "",
		"[10][1][10][1]":                           "[10][1]",
	}
	for in, want := range tests {
		assert.Equal(t, want, Clean(in), in)
	}
	assert.Equal(t, []string{"a[1]", "b"}, CleanAll([]string{"a[1][1]", "b"}))
}

func TestPrune(t *testing.T) {
	keep := func(n int) bool { return n == 2 || n == 3 }
	assert.Equal(t, "Demand fell[2] as rates rose[3]", Prune("Demand fell[2][9] as rates rose[3][3]", keep))
	assert.Equal(t, "no valid refs", Prune("no valid refs[7]", keep))
}

func TestRefs(t *testing.T) {
	assert.Equal(t, []int{1, 3, 12}, Refs("x[3] y[1]", "z[12][3]"))
	assert.Empty(t, Refs("nothing cited"))
}

func TestCite(t *testing.T) {
	sources := []Source{
		{Title: "A", URL: "https://a", Date: "2025-01-01"},
		{Title: "", URL: "", Date: ""},
		{Title: "C", URL: "https://c", Date: "2025-01-03"},
	}
	block := Block{Start: 10, Size: 4}

	ev := Cite(block, []int{12, 11, 12, 3, 13, 14}, sources, SectionCompany, "TSLA", "2025-06-30")
	require.Len(t, ev, 2)
	assert.Equal(t, Evidence{Ref: 11, Section: SectionCompany, Title: "Untitled", URL: "N/A", Date: "2025-06-30", Entity: "TSLA"}, ev[0])
	assert.Equal(t, 12, ev[1].Ref)
	assert.Equal(t, "C", ev[1].Title)
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify([]Evidence{{Ref: 1}, {Ref: 4}}))
	assert.ErrorContains(t, Verify([]Evidence{{Ref: 1}, {Ref: 1}}), "more than once")
	assert.ErrorContains(t, Verify([]Evidence{{Ref: 0}}), "non-positive")
}

func TestEvidenceLog(t *testing.T) {
	entries := []Evidence{
		{Ref: 3, Section: SectionStock, Title: "T", URL: "u&v", Date: "d"},
		{Ref: 1, Section: SectionMarket, Title: "M", URL: "m", Date: "d"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteLog(&buf, entries))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"n":1`)
	assert.Contains(t, string(lines[1]), `"url":"u&v"`)
	assert.Equal(t, 3, entries[0].Ref, "input must not be reordered")

	back, err := ReadLog(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, []int{back[0].Ref, back[1].Ref})
}
