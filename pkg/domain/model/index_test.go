package model_test

import (
	"testing"

	"github.com/hindsight-journal/hindsight/pkg/domain/model"
	"github.com/hindsight-journal/hindsight/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func newChunk(path, text string) *model.Chunk {
	return &model.Chunk{
		ID:          model.NewChunkID(),
		Path:        path,
		Text:        text,
		Vector:      []float32{0.1, 0.2},
		ContextType: types.ContextTypeGeneral,
		Hash:        "h-" + path,
	}
}

func TestIndexCloneIsolation(t *testing.T) {
	idx := model.NewIndex("gemini/768")
	idx.Items = append(idx.Items, newChunk("a.md", "alpha"), newChunk("b.md", "beta"))
	idx.FileHashes["a.md"] = "ha"
	idx.FileHashes["b.md"] = "hb"

	clone := idx.Clone()
	gt.Value(t, clone.RemovePath("a.md")).Equal(1)
	delete(clone.FileHashes, "a.md")

	gt.Array(t, idx.Items).Length(2)
	gt.Value(t, idx.FileHashes["a.md"]).Equal("ha")
	gt.Array(t, clone.Items).Length(1)
	gt.Value(t, clone.Items[0].Path).Equal("b.md")
}

func TestIndexRemovePathPreservesOrder(t *testing.T) {
	idx := model.NewIndex("m")
	idx.Items = append(idx.Items,
		newChunk("a.md", "1"),
		newChunk("b.md", "2"),
		newChunk("a.md", "3"),
		newChunk("c.md", "4"),
	)

	gt.Value(t, idx.RemovePath("a.md")).Equal(2)
	gt.Array(t, idx.Items).Length(2)
	gt.Value(t, idx.Items[0].Text).Equal("2")
	gt.Value(t, idx.Items[1].Text).Equal("4")
	gt.Value(t, idx.RemovePath("missing.md")).Equal(0)
}

func TestIndexIsCompatible(t *testing.T) {
	idx := model.NewIndex("gemini/768")
	gt.Bool(t, idx.IsCompatible("gemini/768")).True()
	gt.Bool(t, idx.IsCompatible("openai/1536")).False()

	idx.Version = "1"
	gt.Bool(t, idx.IsCompatible("gemini/768")).False()

	var empty *model.Index
	gt.Bool(t, empty.IsCompatible("gemini/768")).False()
	gt.Value(t, empty.ChunkCount()).Equal(0)
}

func TestIndexDeepCopy(t *testing.T) {
	idx := model.NewIndex("m")
	idx.Items = append(idx.Items, newChunk("a.md", "alpha"))

	cp := idx.DeepCopy()
	cp.Items[0].Vector[0] = 9

	gt.Value(t, idx.Items[0].Vector[0]).Equal(float32(0.1))
}

func TestTimeRangeContainsIsInclusive(t *testing.T) {
	r := model.TimeRange{Start: date(2024, 1, 4), End: date(2024, 1, 11)}
	gt.Bool(t, r.Contains(date(2024, 1, 4))).True()
	gt.Bool(t, r.Contains(date(2024, 1, 11))).True()
	gt.Bool(t, r.Contains(date(2024, 1, 1))).False()
}

func TestNewChunkID(t *testing.T) {
	id1 := model.NewChunkID()
	id2 := model.NewChunkID()

	gt.Value(t, string(id1)).NotEqual("")
	gt.Value(t, id1).NotEqual(id2)
}
