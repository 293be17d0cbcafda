package textdiff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when decoding an op kind that is not one of
// same, insert or delete.
var ErrUnknownKind = errors.New("unknown op kind")

// Kind tags an alignment operation.
type Kind uint8

const (
	// Same keeps a token present in both sequences.
	Same Kind = iota
	// Inserted marks a token present only in B.
	Inserted
	// Deleted marks a token present only in A.
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Same:
		return "same"
	case Inserted:
		return "insert"
	case Deleted:
		return "delete"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind converts the String form of a Kind back to its value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "same":
		return Same, nil
	case "insert", "inserted", "add":
		return Inserted, nil
	case "delete", "deleted", "del":
		return Deleted, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k > Deleted {
		return nil, fmt.Errorf("%w %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Op is a single alignment step. AIndex is -1 for Inserted ops and BIndex is
// -1 for Deleted ops.
type Op struct {
	Kind   Kind `json:"kind" yaml:"kind" msgpack:"kind"`
	AIndex int  `json:"a" yaml:"a" msgpack:"a"`
	BIndex int  `json:"b" yaml:"b" msgpack:"b"`
}

// SameOp pairs a[ai] with b[bi].
func SameOp(ai, bi int) Op { return Op{Kind: Same, AIndex: ai, BIndex: bi} }

// InsertOp marks b[bi] as present only in B.
func InsertOp(bi int) Op { return Op{Kind: Inserted, AIndex: -1, BIndex: bi} }

// DeleteOp marks a[ai] as present only in A.
func DeleteOp(ai int) Op { return Op{Kind: Deleted, AIndex: ai, BIndex: -1} }

func (o Op) String() string {
	switch o.Kind {
	case Same:
		return fmt.Sprintf("same(%d,%d)", o.AIndex, o.BIndex)
	case Inserted:
		return fmt.Sprintf("insert(%d)", o.BIndex)
	case Deleted:
		return fmt.Sprintf("delete(%d)", o.AIndex)
	default:
		return fmt.Sprintf("%s(%d,%d)", o.Kind, o.AIndex, o.BIndex)
	}
}
