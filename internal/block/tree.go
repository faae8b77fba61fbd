package block

import (
	"github.com/Stage2Sec/frenzy/internal/errors"
)

// Find returns the first block matching pred. Returns a
// *errors.NotFoundError if no block matches; handlers reference block
// ids that must exist in the current tree, so a miss is an explicit
// failure rather than a nil.
func Find(blocks []Block, pred func(Block) bool) (Block, error) {
	for _, b := range blocks {
		if pred(b) {
			return b, nil
		}
	}
	return nil, &errors.NotFoundError{Kind: "block", ID: "<predicate>"}
}

// FindByID returns the block with the given block id.
func FindByID(blocks []Block, id string) (Block, error) {
	for _, b := range blocks {
		if b.ID() == id {
			return b, nil
		}
	}
	return nil, &errors.NotFoundError{Kind: "block", ID: id}
}

// FindSection returns the section block with the given block id.
func FindSection(blocks []Block, id string) (*Section, error) {
	b, err := FindByID(blocks, id)
	if err != nil {
		return nil, err
	}
	section, ok := b.(*Section)
	if !ok {
		return nil, &errors.NotFoundError{Kind: "section", ID: id}
	}
	return section, nil
}

// FindHeader returns the header block with the given block id.
func FindHeader(blocks []Block, id string) (*Header, error) {
	b, err := FindByID(blocks, id)
	if err != nil {
		return nil, err
	}
	header, ok := b.(*Header)
	if !ok {
		return nil, &errors.NotFoundError{Kind: "header", ID: id}
	}
	return header, nil
}

// Index returns the position of b in blocks, or -1 if absent.
// Blocks are pointers, so identity comparison is intended.
func Index(blocks []Block, b Block) int {
	for i, candidate := range blocks {
		if candidate == b {
			return i
		}
	}
	return -1
}

// Splice deletes deleteCount blocks starting at index and inserts the
// given blocks in their place, mutating the slice in place. Out of
// range index or count values are clamped. Toggle handlers use this to
// reveal and hide sub-sections; an insert followed by a delete of the
// same span restores the original sequence.
func Splice(blocks *[]Block, index, deleteCount int, insert ...Block) {
	s := *blocks
	if index < 0 {
		index = 0
	}
	if index > len(s) {
		index = len(s)
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if index+deleteCount > len(s) {
		deleteCount = len(s) - index
	}

	result := make([]Block, 0, len(s)-deleteCount+len(insert))
	result = append(result, s[:index]...)
	result = append(result, insert...)
	result = append(result, s[index+deleteCount:]...)
	*blocks = result
}
