package badger

import (
	"encoding/binary"

	"github.com/poiesic/signalsearch/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec:"
	documentIDPrefix     = "docid:"
	documentSeq          = "docrecseq"
)

// makeDocumentKey generates the primary key for a document.
// Format: prefix + big-endian seq, so prefix iteration yields insertion order.
func makeDocumentKey(seq uint64) []byte {
	return appendUint64([]byte(documentRecordPrefix), seq)
}

// makeDocumentIDKey generates the key of the ID -> seq index.
// Format: prefix + big-endian id
func makeDocumentIDKey(id core.ID) []byte {
	return appendUint64([]byte(documentIDPrefix), uint64(id))
}

func appendUint64(prefix []byte, v uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], v)
	return buf
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func decodeSeq(val []byte) (uint64, bool) {
	if len(val) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val), true
}
